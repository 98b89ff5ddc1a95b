package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current storage schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keyProvenance = []byte("provenance")

// Provenance records which embedding model produced the stored vectors.
// Querying an index built by a different model is a logic error, so a
// mismatch forces a rebuild rather than being silently accepted.
type Provenance struct {
	SchemaVersion int    `json:"schema_version"`
	ModelID       string `json:"model_id"`
	Dimension     int    `json:"dimension"`
}

// ProvenanceResult describes whether the stored provenance is compatible
// with the configured embedder.
type ProvenanceResult struct {
	NeedsRebuild bool
	Reason       string
}

// GetProvenance retrieves the stored provenance, or nil if none recorded.
func (s *BoltStore) GetProvenance() (*Provenance, error) {
	var prov *Provenance
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyProvenance)
		if data == nil {
			return nil
		}
		prov = &Provenance{}
		return json.Unmarshal(data, prov)
	})
	return prov, err
}

// SetProvenance stores the provenance of the current index.
func (s *BoltStore) SetProvenance(modelID string, dimension int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(Provenance{
			SchemaVersion: CurrentSchemaVersion,
			ModelID:       modelID,
			Dimension:     dimension,
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyProvenance, data)
	})
}

// CheckProvenance compares the stored provenance against the configured
// embedding model and dimension.
func (s *BoltStore) CheckProvenance(modelID string, dimension int) (*ProvenanceResult, error) {
	prov, err := s.GetProvenance()
	if err != nil {
		return nil, err
	}

	if prov == nil {
		// Fresh store, nothing to compare against.
		return &ProvenanceResult{}, nil
	}

	if prov.SchemaVersion != CurrentSchemaVersion {
		return &ProvenanceResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("schema version changed (%d -> %d)", prov.SchemaVersion, CurrentSchemaVersion),
		}, nil
	}
	if prov.ModelID != modelID {
		return &ProvenanceResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("embedding model changed (%s -> %s)", prov.ModelID, modelID),
		}, nil
	}
	if prov.Dimension != dimension {
		return &ProvenanceResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("embedding dimension changed (%d -> %d)", prov.Dimension, dimension),
		}, nil
	}

	return &ProvenanceResult{}, nil
}
