package cli

import (
	"fmt"
	"time"

	"athleterag/config"
	"athleterag/internal/adapter/cache"
	"athleterag/internal/adapter/embedding"
	"athleterag/internal/adapter/store"
	"athleterag/internal/adapter/vectorindex"
	"athleterag/internal/port"
)

// buildEmbedder constructs the configured embedding backend. The
// embedder's dimension is the source of truth for the index dimension.
func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.BatchSize)
	case "openai", "":
		if e.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.BatchSize)
		}
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.BatchSize)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", e.Provider)
	}
}

// openStores opens the metadata database and loads the vector index and
// id map pair from the data directory.
func openStores(root string, embedder port.Embedder) (*store.BoltStore, *vectorindex.FlatIndex, *vectorindex.IDMap, error) {
	if err := config.EnsureDataDir(root); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	meta, err := store.NewBoltStore(config.MetaDBPath(root))
	if err != nil {
		return nil, nil, nil, err
	}

	index, idMap, err := vectorindex.LoadFrom(config.DataDir(root), embedder.Dimension())
	if err != nil {
		meta.Close()
		return nil, nil, nil, fmt.Errorf("failed to load vector index: %w", err)
	}

	return meta, index, idMap, nil
}

func buildQueryCache(cfg *config.Config) *cache.QueryCache {
	return cache.NewQueryCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
}
