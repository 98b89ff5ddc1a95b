package usecase

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"athleterag/internal/adapter/cache"
	"athleterag/internal/adapter/vectorindex"
	"athleterag/internal/domain"
	"athleterag/internal/port"
)

// RetrieveUseCase answers similarity queries: embed, over-fetch from the
// index, resolve hits to records, post-filter, truncate. Read-only and
// idempotent against an unchanged index.
type RetrieveUseCase struct {
	index           *vectorindex.FlatIndex
	idMap           *vectorindex.IDMap
	meta            port.MetadataStore
	embedder        port.Embedder
	cache           *cache.QueryCache
	fetchMultiplier int
}

func NewRetrieveUseCase(
	index *vectorindex.FlatIndex,
	idMap *vectorindex.IDMap,
	meta port.MetadataStore,
	embedder port.Embedder,
	queryCache *cache.QueryCache,
	fetchMultiplier int,
) (*RetrieveUseCase, error) {
	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: index dimension %d, embedder %s produces %d",
			vectorindex.ErrDimensionMismatch, index.Dimension(), embedder.ModelName(), embedder.Dimension())
	}
	if fetchMultiplier < 1 {
		fetchMultiplier = 10
	}
	return &RetrieveUseCase{
		index:           index,
		idMap:           idMap,
		meta:            meta,
		embedder:        embedder,
		cache:           queryCache,
		fetchMultiplier: fetchMultiplier,
	}, nil
}

// Retrieve returns up to topK records similar to the query, optionally
// restricted to one athlete (case-insensitive) and to a similarity floor.
// Zero qualifying results is a valid outcome, returned as an empty slice.
func (u *RetrieveUseCase) Retrieve(query, athleteFilter string, topK int, minSimilarity float64) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		return nil, nil
	}

	if u.cache != nil {
		if results, ok := u.cache.Get(query, athleteFilter, topK, minSimilarity); ok {
			return results, nil
		}
	}

	vectors, err := u.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector for query", port.ErrEmbeddingUnavailable)
	}

	// The index knows nothing about athletes or floors, so over-fetch
	// when post-filtering will discard hits.
	fetchK := topK
	if athleteFilter != "" || minSimilarity > 0 {
		fetchK = topK * u.fetchMultiplier
	}

	hits, err := u.index.Search(vectors[0], fetchK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.ScoredRecord, 0, topK)
	for _, hit := range hits {
		// Hits come back in descending score order, so the floor cuts
		// off everything that follows.
		if hit.Score < minSimilarity {
			break
		}

		recordID, err := u.idMap.Resolve(hit.InternalID)
		if err != nil {
			// Orphaned vector slot: logically deleted or never bound.
			log.Printf("retrieve: no binding for vector %d, skipping", hit.InternalID)
			continue
		}

		rec, err := u.meta.Get(recordID)
		if err != nil {
			if errors.Is(err, port.ErrNotFound) {
				log.Printf("retrieve: record %s bound but not stored, skipping", recordID)
				continue
			}
			return nil, fmt.Errorf("load record %s: %w", recordID, err)
		}

		if athleteFilter != "" && !strings.EqualFold(rec.AthleteName, athleteFilter) {
			continue
		}

		results = append(results, domain.ScoredRecord{Record: rec, Score: hit.Score})
	}

	// Deterministic order: score descending, then chunk index, then
	// record ID.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Record.Chunk.ChunkIndex != results[j].Record.Chunk.ChunkIndex {
			return results[i].Record.Chunk.ChunkIndex < results[j].Record.Chunk.ChunkIndex
		}
		return results[i].Record.RecordID < results[j].Record.RecordID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	if u.cache != nil {
		u.cache.Put(query, athleteFilter, topK, minSimilarity, results)
	}
	return results, nil
}
