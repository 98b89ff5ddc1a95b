package memstore

import (
	"fmt"
	"strings"
	"sync"

	"athleterag/internal/domain"
	"athleterag/internal/port"
)

// MemoryStore is an in-memory metadata store for tests and ephemeral runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.IndexedRecord
	dedup   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]domain.IndexedRecord),
		dedup:   make(map[string]string),
	}
}

func (s *MemoryStore) Insert(rec domain.IndexedRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	rec.RecordID = domain.NewRecordID(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.DedupKey(rec.AthleteName, rec.Chunk.ContentHash)
	if existing, ok := s.dedup[key]; ok {
		return "", fmt.Errorf("%w: athlete %s already has record %s for this content",
			port.ErrDuplicateRecord, rec.AthleteName, existing)
	}

	s.records[rec.RecordID] = rec
	s.dedup[key] = rec.RecordID
	return rec.RecordID, nil
}

func (s *MemoryStore) Put(rec domain.IndexedRecord) error {
	if rec.RecordID == "" {
		return fmt.Errorf("%w: record id is required", domain.ErrInvalidRecord)
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.RecordID] = rec
	s.dedup[domain.DedupKey(rec.AthleteName, rec.Chunk.ContentHash)] = rec.RecordID
	return nil
}

func (s *MemoryStore) Get(recordID string) (domain.IndexedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordID]
	if !ok {
		return domain.IndexedRecord{}, fmt.Errorf("%w: %s", port.ErrNotFound, recordID)
	}
	return rec, nil
}

func (s *MemoryStore) Find(athleteName, contentHash string) (domain.IndexedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recordID, ok := s.dedup[domain.DedupKey(athleteName, contentHash)]
	if !ok {
		return domain.IndexedRecord{}, fmt.Errorf("%w: athlete %s, hash %.12s", port.ErrNotFound, athleteName, contentHash)
	}
	return s.records[recordID], nil
}

func (s *MemoryStore) Delete(recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordID]
	if !ok {
		return nil
	}
	delete(s.dedup, domain.DedupKey(rec.AthleteName, rec.Chunk.ContentHash))
	delete(s.records, recordID)
	return nil
}

func (s *MemoryStore) ListByAthlete(athleteName string) ([]domain.IndexedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.IndexedRecord
	for _, rec := range s.records {
		if strings.EqualFold(rec.AthleteName, athleteName) {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *MemoryStore) List() ([]domain.IndexedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.IndexedRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	return records, nil
}

func (s *MemoryStore) Stats() (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.StoreStats{
		TotalRecords: len(s.records),
		Athletes:     make(map[string]int),
	}
	for _, rec := range s.records {
		stats.Athletes[rec.AthleteName]++
	}
	return stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
