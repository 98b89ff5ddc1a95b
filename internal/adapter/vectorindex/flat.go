package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	// ErrDimensionMismatch indicates a vector whose length differs from the
	// index dimension. A model/version mismatch; never coerced.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrDuplicateBinding indicates an internal vector ID bound twice.
	ErrDuplicateBinding = errors.New("internal vector id already bound")

	// ErrUnknownVectorID indicates an internal vector ID with no binding.
	ErrUnknownVectorID = errors.New("unknown internal vector id")
)

// Hit is one search result: an internal vector ID and its similarity.
type Hit struct {
	InternalID int64
	Score      float64
}

// FlatIndex is an exact nearest-neighbor index. Vectors are L2-normalized
// at insert and query time; the score is their inner product, which for
// unit vectors equals cosine similarity.
//
// Inserts are append-only and assign sequential internal IDs that are
// never reused. Insert, Save and Load take the write lock; Search takes
// the read lock, so searches may run concurrently with each other but
// not with mutation.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	nextID    int64
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("%w: dimension must be >= 1, got %d", ErrDimensionMismatch, dimension)
	}
	return &FlatIndex{dimension: dimension}, nil
}

// Dimension returns the declared vector dimension.
func (x *FlatIndex) Dimension() int {
	return x.dimension
}

// Len returns the number of stored vectors.
func (x *FlatIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Insert normalizes and appends the vector, returning its internal ID.
func (x *FlatIndex) Insert(vector []float32) (int64, error) {
	if len(vector) != x.dimension {
		return 0, fmt.Errorf("%w: index dimension %d, vector dimension %d",
			ErrDimensionMismatch, x.dimension, len(vector))
	}

	normalized := normalize(vector)

	x.mu.Lock()
	defer x.mu.Unlock()

	id := x.nextID
	x.nextID++
	x.vectors = append(x.vectors, normalized)
	return id, nil
}

// Search returns up to k hits ordered by descending score, ties broken by
// ascending internal ID.
func (x *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: index dimension %d, query dimension %d",
			ErrDimensionMismatch, x.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	normalized := normalize(query)

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(x.vectors))
	for i, vec := range x.vectors {
		hits[i] = Hit{InternalID: int64(i), Score: dot(normalized, vec)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].InternalID < hits[j].InternalID
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// normalize returns a unit-length copy of v. A zero vector is returned
// unchanged; its inner product with anything is 0.
func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
