package port

import "errors"

// ErrEmbeddingUnavailable indicates the embedding backend could not be
// reached or rejected the request. Transient; retry policy belongs to the
// caller, not to this layer.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, order-preserving.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
