package port

import (
	"errors"

	"athleterag/internal/domain"
)

var (
	// ErrNotFound indicates no record exists for the given key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateRecord indicates a record with the same athlete and
	// content hash is already stored.
	ErrDuplicateRecord = errors.New("duplicate record")
)

// MetadataStore keeps indexed records addressable by opaque record IDs and
// by the (athlete, content hash) dedup key.
type MetadataStore interface {
	// Insert validates the record, assigns its RecordID and stores it.
	// Fails with ErrDuplicateRecord if a record with the same athlete and
	// content hash already exists.
	Insert(rec domain.IndexedRecord) (string, error)

	// Put stores a record that already has a RecordID, overwriting any
	// previous version. Used by index rebuilds.
	Put(rec domain.IndexedRecord) error

	// Get returns the record with the given ID, or ErrNotFound.
	Get(recordID string) (domain.IndexedRecord, error)

	// Find returns the record matching the dedup key, or ErrNotFound.
	// The athlete name is matched case-insensitively.
	Find(athleteName, contentHash string) (domain.IndexedRecord, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(recordID string) error

	// ListByAthlete returns all records for one athlete (case-insensitive).
	ListByAthlete(athleteName string) ([]domain.IndexedRecord, error)

	// List returns all records.
	List() ([]domain.IndexedRecord, error)

	// Stats returns record counts, total and per athlete.
	Stats() (domain.StoreStats, error)

	Close() error
}
