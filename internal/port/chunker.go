package port

import "athleterag/internal/domain"

type Chunker interface {
	Split(doc domain.Document) ([]domain.Chunk, error)
}
