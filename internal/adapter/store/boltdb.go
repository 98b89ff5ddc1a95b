package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"athleterag/internal/domain"
	"athleterag/internal/port"
)

var (
	bucketRecords = []byte("records")
	bucketDedup   = []byte("dedup")
	bucketMeta    = []byte("meta")
)

// BoltStore implements the metadata store on BoltDB. Records are stored as
// JSON keyed by record ID, with a secondary bucket mapping the per-athlete
// dedup key to the record ID.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the metadata database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketDedup, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Insert validates the record, assigns its ID and stores it. Fails with
// ErrDuplicateRecord when the athlete already has a record with the same
// content hash.
func (s *BoltStore) Insert(rec domain.IndexedRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	rec.RecordID = domain.NewRecordID(rec)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		dedup := tx.Bucket(bucketDedup)
		key := []byte(domain.DedupKey(rec.AthleteName, rec.Chunk.ContentHash))
		if existing := dedup.Get(key); existing != nil {
			return fmt.Errorf("%w: athlete %s already has record %s for this content",
				port.ErrDuplicateRecord, rec.AthleteName, existing)
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketRecords).Put([]byte(rec.RecordID), data); err != nil {
			return err
		}
		return dedup.Put(key, []byte(rec.RecordID))
	})
	if err != nil {
		return "", err
	}
	return rec.RecordID, nil
}

// Put overwrites a record that already carries its ID. Used by rebuilds to
// refresh internal vector IDs.
func (s *BoltStore) Put(rec domain.IndexedRecord) error {
	if rec.RecordID == "" {
		return fmt.Errorf("%w: record id is required", domain.ErrInvalidRecord)
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketRecords).Put([]byte(rec.RecordID), data); err != nil {
			return err
		}
		key := []byte(domain.DedupKey(rec.AthleteName, rec.Chunk.ContentHash))
		return tx.Bucket(bucketDedup).Put(key, []byte(rec.RecordID))
	})
}

// Get returns the record with the given ID.
func (s *BoltStore) Get(recordID string) (domain.IndexedRecord, error) {
	var rec domain.IndexedRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get([]byte(recordID))
		if data == nil {
			return fmt.Errorf("%w: %s", port.ErrNotFound, recordID)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// Find returns the record matching the per-athlete dedup key.
func (s *BoltStore) Find(athleteName, contentHash string) (domain.IndexedRecord, error) {
	var recordID string
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketDedup).Get([]byte(domain.DedupKey(athleteName, contentHash)))
		if id == nil {
			return fmt.Errorf("%w: athlete %s, hash %.12s", port.ErrNotFound, athleteName, contentHash)
		}
		recordID = string(id)
		return nil
	})
	if err != nil {
		return domain.IndexedRecord{}, err
	}
	return s.Get(recordID)
}

// Delete removes the record and its dedup entry.
func (s *BoltStore) Delete(recordID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		data := records.Get([]byte(recordID))
		if data == nil {
			return nil
		}

		var rec domain.IndexedRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}

		key := []byte(domain.DedupKey(rec.AthleteName, rec.Chunk.ContentHash))
		if err := tx.Bucket(bucketDedup).Delete(key); err != nil {
			return err
		}
		return records.Delete([]byte(recordID))
	})
}

// ListByAthlete returns all records for one athlete, case-insensitively.
func (s *BoltStore) ListByAthlete(athleteName string) ([]domain.IndexedRecord, error) {
	var records []domain.IndexedRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(_, data []byte) error {
			var rec domain.IndexedRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return nil // skip corrupted entries
			}
			if strings.EqualFold(rec.AthleteName, athleteName) {
				records = append(records, rec)
			}
			return nil
		})
	})
	return records, err
}

// List returns all records.
func (s *BoltStore) List() ([]domain.IndexedRecord, error) {
	var records []domain.IndexedRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(_, data []byte) error {
			var rec domain.IndexedRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return nil // skip corrupted entries
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

// Stats returns record counts, total and per athlete.
func (s *BoltStore) Stats() (domain.StoreStats, error) {
	stats := domain.StoreStats{Athletes: make(map[string]int)}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(_, data []byte) error {
			var rec domain.IndexedRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return nil
			}
			stats.TotalRecords++
			stats.Athletes[rec.AthleteName]++
			return nil
		})
	})
	return stats, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
