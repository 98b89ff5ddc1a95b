package usecase

import (
	"errors"

	"athleterag/internal/port"
)

// VerifyReport lists the two ways the vector index and the metadata store
// can drift apart, since nothing ties their updates together.
type VerifyReport struct {
	// OrphanVectors are index slots with no id map binding: a crash
	// between vector insert and record write, or a logical delete.
	OrphanVectors []int64
	// DanglingBindings are record IDs the id map knows but the metadata
	// store does not.
	DanglingBindings []string
}

// Clean reports whether every vector resolves to a stored record.
func (r VerifyReport) Clean() bool {
	return len(r.OrphanVectors) == 0 && len(r.DanglingBindings) == 0
}

// Verify sweeps the index, id map and metadata store for inconsistencies.
// A maintenance operation, not part of the hot path; retrieval already
// skips whatever this would report.
func (u *IndexUseCase) Verify() (VerifyReport, error) {
	var report VerifyReport

	bindings := u.idMap.Bindings()

	for id := int64(0); id < int64(u.index.Len()); id++ {
		if _, ok := bindings[id]; !ok {
			report.OrphanVectors = append(report.OrphanVectors, id)
		}
	}

	for _, recordID := range bindings {
		_, err := u.meta.Get(recordID)
		switch {
		case err == nil:
		case errors.Is(err, port.ErrNotFound):
			report.DanglingBindings = append(report.DanglingBindings, recordID)
		default:
			return report, err
		}
	}

	return report, nil
}
