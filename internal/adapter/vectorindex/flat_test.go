package vectorindex

import (
	"errors"
	"math"
	"testing"
)

func TestInsertAssignsSequentialIDs(t *testing.T) {
	index, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}

	for want := int64(0); want < 5; want++ {
		id, err := index.Insert([]float32{1, 0, 0})
		if err != nil {
			t.Fatal(err)
		}
		if id != want {
			t.Errorf("expected id %d, got %d", want, id)
		}
	}
	if index.Len() != 5 {
		t.Errorf("expected 5 vectors, got %d", index.Len())
	}
}

func TestInsertDimensionMismatch(t *testing.T) {
	index, _ := NewFlatIndex(3)

	_, err := index.Insert([]float32{1, 0, 0, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}

	_, err = index.Insert([]float32{1, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}

	if index.Len() != 0 {
		t.Errorf("failed insert must not grow the index, len=%d", index.Len())
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	index, _ := NewFlatIndex(3)
	index.Insert([]float32{1, 0, 0})

	_, err := index.Search([]float32{1, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchCosineOrdering(t *testing.T) {
	index, _ := NewFlatIndex(2)

	// id 0 orthogonal, id 1 identical direction, id 2 in between.
	// Magnitudes differ to exercise normalization.
	index.Insert([]float32{0, 7})
	index.Insert([]float32{3, 0})
	index.Insert([]float32{2, 2})

	hits, err := index.Search([]float32{10, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}

	if hits[0].InternalID != 1 {
		t.Errorf("expected id 1 first, got %d", hits[0].InternalID)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-6 {
		t.Errorf("identical direction should score 1.0, got %f", hits[0].Score)
	}
	if hits[1].InternalID != 2 {
		t.Errorf("expected id 2 second, got %d", hits[1].InternalID)
	}
	if math.Abs(hits[1].Score-math.Sqrt2/2) > 1e-6 {
		t.Errorf("45 degrees should score ~0.7071, got %f", hits[1].Score)
	}
	if hits[2].InternalID != 0 {
		t.Errorf("expected id 0 last, got %d", hits[2].InternalID)
	}
	if math.Abs(hits[2].Score) > 1e-6 {
		t.Errorf("orthogonal should score 0, got %f", hits[2].Score)
	}
}

func TestSearchTiesBrokenByAscendingID(t *testing.T) {
	index, _ := NewFlatIndex(2)

	// Same direction, different magnitudes: identical scores.
	index.Insert([]float32{1, 1})
	index.Insert([]float32{5, 5})
	index.Insert([]float32{2, 2})

	hits, err := index.Search([]float32{1, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, hit := range hits {
		if hit.InternalID != int64(i) {
			t.Errorf("position %d: expected id %d, got %d", i, i, hit.InternalID)
		}
	}
}

func TestSearchTruncatesToK(t *testing.T) {
	index, _ := NewFlatIndex(2)
	for i := 0; i < 10; i++ {
		index.Insert([]float32{1, float32(i)})
	}

	hits, err := index.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Errorf("expected 3 hits, got %d", len(hits))
	}

	hits, err = index.Search([]float32{1, 0}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 10 {
		t.Errorf("k beyond size should return all 10, got %d", len(hits))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	index, _ := NewFlatIndex(4)

	hits, err := index.Search([]float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestSearchDeterministic(t *testing.T) {
	index, _ := NewFlatIndex(3)
	vectors := [][]float32{
		{0.1, 0.9, 0.3},
		{0.8, 0.2, 0.1},
		{0.5, 0.5, 0.5},
		{0.9, 0.1, 0.7},
	}
	for _, v := range vectors {
		index.Insert(v)
	}

	query := []float32{0.6, 0.3, 0.4}
	first, err := index.Search(query, 4)
	if err != nil {
		t.Fatal(err)
	}
	second, err := index.Search(query, 4)
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("position %d differs between identical searches: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestIDMapBindResolveUnbind(t *testing.T) {
	m := NewIDMap()

	if err := m.Bind(0, "rec-a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Bind(1, "rec-b"); err != nil {
		t.Fatal(err)
	}

	rec, err := m.Resolve(0)
	if err != nil {
		t.Fatal(err)
	}
	if rec != "rec-a" {
		t.Errorf("expected rec-a, got %s", rec)
	}

	m.Unbind("rec-a")
	if _, err := m.Resolve(0); !errors.Is(err, ErrUnknownVectorID) {
		t.Errorf("expected ErrUnknownVectorID after unbind, got %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 binding, got %d", m.Len())
	}

	// Unbinding twice is a no-op.
	m.Unbind("rec-a")
	m.Unbind("never-bound")
}

func TestIDMapDuplicateBinding(t *testing.T) {
	m := NewIDMap()

	if err := m.Bind(7, "rec-a"); err != nil {
		t.Fatal(err)
	}
	err := m.Bind(7, "rec-b")
	if !errors.Is(err, ErrDuplicateBinding) {
		t.Fatalf("expected ErrDuplicateBinding, got %v", err)
	}

	// Original binding unchanged.
	rec, err := m.Resolve(7)
	if err != nil {
		t.Fatal(err)
	}
	if rec != "rec-a" {
		t.Errorf("expected rec-a, got %s", rec)
	}
}

func TestIDMapResolveUnknown(t *testing.T) {
	m := NewIDMap()
	if _, err := m.Resolve(42); !errors.Is(err, ErrUnknownVectorID) {
		t.Fatalf("expected ErrUnknownVectorID, got %v", err)
	}
}
