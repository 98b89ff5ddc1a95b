package vectorindex

import (
	"fmt"
	"sync"
)

// IDMap is the bijection between internal vector IDs and metadata record
// IDs. Unbinding frees the record side only; internal IDs are never
// reassigned because the index's counter only moves forward.
type IDMap struct {
	mu       sync.RWMutex
	toRecord map[int64]string
	toVector map[string]int64
}

// NewIDMap creates an empty mapping.
func NewIDMap() *IDMap {
	return &IDMap{
		toRecord: make(map[int64]string),
		toVector: make(map[string]int64),
	}
}

// Bind registers the pairing. Fails with ErrDuplicateBinding if the
// internal ID is already bound.
func (m *IDMap) Bind(internalID int64, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.toRecord[internalID]; ok {
		return fmt.Errorf("%w: id %d already bound to record %s", ErrDuplicateBinding, internalID, existing)
	}
	m.toRecord[internalID] = recordID
	m.toVector[recordID] = internalID
	return nil
}

// Resolve returns the record ID bound to the internal ID, or
// ErrUnknownVectorID.
func (m *IDMap) Resolve(internalID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recordID, ok := m.toRecord[internalID]
	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrUnknownVectorID, internalID)
	}
	return recordID, nil
}

// Unbind removes the mapping for a record. A logical delete: the vector
// slot stays in the index but can no longer be resolved. Unbinding an
// unknown record is a no-op.
func (m *IDMap) Unbind(recordID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	internalID, ok := m.toVector[recordID]
	if !ok {
		return
	}
	delete(m.toVector, recordID)
	delete(m.toRecord, internalID)
}

// Len returns the number of bindings.
func (m *IDMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.toRecord)
}

// Bindings returns a copy of the internal-ID-to-record-ID table.
func (m *IDMap) Bindings() map[int64]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int64]string, len(m.toRecord))
	for id, rec := range m.toRecord {
		out[id] = rec
	}
	return out
}
