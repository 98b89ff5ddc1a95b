package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord indicates a record missing required fields.
var ErrInvalidRecord = errors.New("invalid record")

// Validate checks the fields every stored record must carry. Enforced at
// the metadata store boundary; Extra stays an open map.
func (r IndexedRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.AthleteName) == "":
		return fmt.Errorf("%w: athlete name is required", ErrInvalidRecord)
	case r.Chunk.Text == "":
		return fmt.Errorf("%w: chunk text is required", ErrInvalidRecord)
	case r.Chunk.ContentHash == "":
		return fmt.Errorf("%w: content hash is required", ErrInvalidRecord)
	case r.Chunk.TokenCount < 1:
		return fmt.Errorf("%w: token count must be >= 1, got %d", ErrInvalidRecord, r.Chunk.TokenCount)
	case r.Chunk.ChunkIndex < 0:
		return fmt.Errorf("%w: chunk index must be >= 0, got %d", ErrInvalidRecord, r.Chunk.ChunkIndex)
	}
	return nil
}

// NewRecordID derives an opaque record ID from the record's identity
// fields. Stable for a given chunk of a given document.
func NewRecordID(r IndexedRecord) string {
	key := fmt.Sprintf("%s:%s:%d:%s",
		strings.ToLower(r.AthleteName), r.Chunk.SourceDocID, r.Chunk.ChunkIndex, r.Chunk.ContentHash)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// DedupKey is the per-athlete duplicate-detection key. Athlete names
// compare case-insensitively.
func DedupKey(athleteName, contentHash string) string {
	return strings.ToLower(strings.TrimSpace(athleteName)) + "\x00" + contentHash
}
