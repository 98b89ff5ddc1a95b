package port

import "athleterag/internal/domain"

// DocumentSource yields raw documents for ingestion.
type DocumentSource interface {
	Load(root string) ([]domain.Document, error)
}
