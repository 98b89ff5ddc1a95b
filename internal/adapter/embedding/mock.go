package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// MockEmbedder produces deterministic pseudo-embeddings without any
// network dependency: each word contributes a hash-seeded direction, so
// texts sharing words get similar vectors. For offline runs and tests.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dimension)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			sum := sha256.Sum256([]byte(word))
			for j := 0; j < e.dimension; j++ {
				// Two hash bytes per component, mapped into [-1, 1).
				b := binary.LittleEndian.Uint16(sum[(2*j)%30 : (2*j)%30+2])
				vec[j] += float32(int32(b)-32768) / 32768.0
			}
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
