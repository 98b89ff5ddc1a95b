package port

import "athleterag/internal/domain"

// Retriever answers similarity queries over the indexed corpus.
type Retriever interface {
	// Retrieve returns up to topK records most similar to the query,
	// optionally restricted to one athlete and to a similarity floor.
	// An empty result is a valid outcome, not an error.
	Retrieve(query, athleteFilter string, topK int, minSimilarity float64) ([]domain.ScoredRecord, error)
}
