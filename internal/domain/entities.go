package domain

import "time"

// Document is one raw source text about an athlete, before chunking.
type Document struct {
	ID          string
	AthleteName string
	Topic       string
	Title       string
	URL         string
	Text        string
	RetrievedAt time.Time
}

// Chunk is a contiguous, token-bounded span of a document's text.
// Immutable once created.
type Chunk struct {
	Text        string
	TokenCount  int
	ChunkIndex  int
	SourceDocID string
	ContentHash string
}

// IndexedRecord is the persisted form of an embedded chunk. Exactly one
// record exists per stored vector; the id map keeps the two sides paired.
type IndexedRecord struct {
	RecordID         string
	InternalVectorID int64
	Chunk            Chunk
	AthleteName      string
	EmbeddingModelID string
	// Extra holds open provenance fields (url, title, topic).
	Extra     map[string]string
	IndexedAt time.Time
}

// ScoredRecord pairs a record with its similarity to a query.
type ScoredRecord struct {
	Record IndexedRecord
	Score  float64
}

// IndexingStats summarizes one indexing run.
type IndexingStats struct {
	Inserted         int
	SkippedDuplicate int
	Failed           int
}

// Add accumulates another run's stats into s.
func (s *IndexingStats) Add(other IndexingStats) {
	s.Inserted += other.Inserted
	s.SkippedDuplicate += other.SkippedDuplicate
	s.Failed += other.Failed
}

// StoreStats describes the current contents of the engine's stores.
type StoreStats struct {
	TotalRecords int
	VectorCount  int
	Dimension    int
	Athletes     map[string]int
}
