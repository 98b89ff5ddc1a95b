package usecase

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"athleterag/internal/adapter/cache"
	"athleterag/internal/adapter/vectorindex"
	"athleterag/internal/domain"
	"athleterag/internal/port"
)

// IndexUseCase runs the indexing pipeline: chunk, dedup, embed, insert,
// bind, persist metadata. Writes are expected to run as one logical
// sequence at a time; the index's own locking protects readers, not
// interleaved writers.
type IndexUseCase struct {
	index    *vectorindex.FlatIndex
	idMap    *vectorindex.IDMap
	meta     port.MetadataStore
	embedder port.Embedder
	chunker  port.Chunker
	cache    *cache.QueryCache
}

// NewIndexUseCase wires the pipeline. The embedder's dimension must match
// the index dimension; a mismatch is a configuration error, not something
// to discover chunk by chunk.
func NewIndexUseCase(
	index *vectorindex.FlatIndex,
	idMap *vectorindex.IDMap,
	meta port.MetadataStore,
	embedder port.Embedder,
	chunker port.Chunker,
	queryCache *cache.QueryCache,
) (*IndexUseCase, error) {
	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: index dimension %d, embedder %s produces %d",
			vectorindex.ErrDimensionMismatch, index.Dimension(), embedder.ModelName(), embedder.Dimension())
	}
	return &IndexUseCase{
		index:    index,
		idMap:    idMap,
		meta:     meta,
		embedder: embedder,
		chunker:  chunker,
		cache:    queryCache,
	}, nil
}

// IndexDocument chunks one document, skips chunks the athlete already has
// indexed, embeds the rest in a single batch and stores them. A failing
// chunk is counted and logged, not fatal to the document; a duplicate
// binding aborts the run because it means the write discipline was
// violated.
func (u *IndexUseCase) IndexDocument(doc domain.Document, athleteName string) (domain.IndexingStats, error) {
	var stats domain.IndexingStats

	doc.AthleteName = athleteName

	chunks, err := u.chunker.Split(doc)
	if err != nil {
		return stats, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}
	if len(chunks) == 0 {
		return stats, nil
	}

	// Dedup pass. seen guards against identical chunks within this batch,
	// which the store would not have caught yet.
	seen := make(map[string]bool)
	pending := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if seen[chunk.ContentHash] {
			stats.SkippedDuplicate++
			continue
		}
		_, err := u.meta.Find(athleteName, chunk.ContentHash)
		switch {
		case err == nil:
			stats.SkippedDuplicate++
			continue
		case errors.Is(err, port.ErrNotFound):
			seen[chunk.ContentHash] = true
			pending = append(pending, chunk)
		default:
			log.Printf("index: dedup lookup failed for chunk %d of %s: %v", chunk.ChunkIndex, doc.ID, err)
			stats.Failed++
		}
	}
	if len(pending) == 0 {
		return stats, nil
	}

	// One embedding call per document.
	texts := make([]string, len(pending))
	for i, chunk := range pending {
		texts[i] = chunk.Text
	}
	vectors, err := u.embedder.Embed(texts)
	if err != nil {
		stats.Failed += len(pending)
		return stats, fmt.Errorf("embed document %s: %w", doc.ID, err)
	}
	if len(vectors) != len(pending) {
		stats.Failed += len(pending)
		return stats, fmt.Errorf("embed document %s: got %d vectors for %d chunks", doc.ID, len(vectors), len(pending))
	}

	now := time.Now().UTC()
	for i, chunk := range pending {
		internalID, err := u.index.Insert(vectors[i])
		if err != nil {
			log.Printf("index: insert vector for chunk %d of %s: %v", chunk.ChunkIndex, doc.ID, err)
			stats.Failed++
			continue
		}

		rec := domain.IndexedRecord{
			InternalVectorID: internalID,
			Chunk:            chunk,
			AthleteName:      athleteName,
			EmbeddingModelID: u.embedder.ModelName(),
			Extra:            provenance(doc),
			IndexedAt:        now,
		}
		recordID, err := u.meta.Insert(rec)
		if err != nil {
			// The vector is already in the index with no record behind it.
			// Orphaned slots resolve to nothing and retrieval skips them;
			// Verify reports them for an offline sweep.
			log.Printf("index: store record for chunk %d of %s: %v", chunk.ChunkIndex, doc.ID, err)
			stats.Failed++
			continue
		}

		if err := u.idMap.Bind(internalID, recordID); err != nil {
			stats.Failed++
			return stats, fmt.Errorf("bind chunk %d of %s: %w", chunk.ChunkIndex, doc.ID, err)
		}
		stats.Inserted++
	}

	if stats.Inserted > 0 && u.cache != nil {
		u.cache.Invalidate()
	}
	return stats, nil
}

// ProcessAll indexes a document set, aggregating stats. An empty set is a
// zero result, not an error. Per-document failures are logged and the run
// continues, except for binding conflicts, which abort.
func (u *IndexUseCase) ProcessAll(docs []domain.Document, athleteName string) (domain.IndexingStats, error) {
	var total domain.IndexingStats

	for _, doc := range docs {
		stats, err := u.IndexDocument(doc, athleteName)
		total.Add(stats)
		if err != nil {
			if errors.Is(err, vectorindex.ErrDuplicateBinding) {
				return total, err
			}
			log.Printf("index: document %s: %v", doc.ID, err)
		}
	}
	return total, nil
}

// DeleteAthlete logically deletes all of one athlete's records: id map
// bindings and metadata go, vector slots stay until the next rebuild.
func (u *IndexUseCase) DeleteAthlete(athleteName string) (int, error) {
	records, err := u.meta.ListByAthlete(athleteName)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, rec := range records {
		u.idMap.Unbind(rec.RecordID)
		if err := u.meta.Delete(rec.RecordID); err != nil {
			return deleted, fmt.Errorf("delete record %s: %w", rec.RecordID, err)
		}
		deleted++
	}

	if deleted > 0 && u.cache != nil {
		u.cache.Invalidate()
	}
	return deleted, nil
}

// Rebuild constructs a fresh index and id map from the surviving records,
// re-embedding their text. This is the only way vector slots freed by
// logical deletes are actually reclaimed. Records keep their IDs; their
// internal vector IDs are reassigned in the old insertion order.
func (u *IndexUseCase) Rebuild() (*vectorindex.FlatIndex, *vectorindex.IDMap, int, error) {
	records, err := u.meta.List()
	if err != nil {
		return nil, nil, 0, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].InternalVectorID < records[j].InternalVectorID
	})

	fresh, err := vectorindex.NewFlatIndex(u.index.Dimension())
	if err != nil {
		return nil, nil, 0, err
	}
	freshMap := vectorindex.NewIDMap()

	const batchSize = 64
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Chunk.Text
		}
		vectors, err := u.embedder.Embed(texts)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("rebuild: embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return nil, nil, 0, fmt.Errorf("rebuild: got %d vectors for %d records", len(vectors), len(batch))
		}

		for i, rec := range batch {
			internalID, err := fresh.Insert(vectors[i])
			if err != nil {
				return nil, nil, 0, fmt.Errorf("rebuild: insert vector for record %s: %w", rec.RecordID, err)
			}
			if err := freshMap.Bind(internalID, rec.RecordID); err != nil {
				return nil, nil, 0, fmt.Errorf("rebuild: bind record %s: %w", rec.RecordID, err)
			}
			rec.InternalVectorID = internalID
			rec.EmbeddingModelID = u.embedder.ModelName()
			if err := u.meta.Put(rec); err != nil {
				return nil, nil, 0, fmt.Errorf("rebuild: update record %s: %w", rec.RecordID, err)
			}
		}
	}

	if u.cache != nil {
		u.cache.Invalidate()
	}
	return fresh, freshMap, len(records), nil
}

// provenance flattens the document fields every chunk should carry.
func provenance(doc domain.Document) map[string]string {
	extra := make(map[string]string)
	if doc.URL != "" {
		extra["url"] = doc.URL
	}
	if doc.Title != "" {
		extra["title"] = doc.Title
	}
	if doc.Topic != "" {
		extra["topic"] = doc.Topic
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
