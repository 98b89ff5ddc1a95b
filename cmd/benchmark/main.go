package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"athleterag/config"
	"athleterag/internal/adapter/embedding"
	"athleterag/internal/adapter/store"
	"athleterag/internal/adapter/vectorindex"
	"athleterag/internal/port"
	"athleterag/internal/usecase"
)

func main() {
	rootDir := flag.String("dir", ".", "Path to indexed directory")
	query := flag.String("q", "", "Query to test")
	athlete := flag.String("athlete", "", "Restrict to one athlete")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./data -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, index load)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		fmt.Println("  3. Retrieval latency (embed + search + resolve)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	meta, err := store.NewBoltStore(config.MetaDBPath(*rootDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening metadata store: %v\n", err)
		os.Exit(1)
	}
	defer meta.Close()

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}

	index, idMap, err := vectorindex.LoadFrom(config.DataDir(*rootDir), embedder.Dimension())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading vector index: %v\n", err)
		os.Exit(1)
	}
	if index.Len() == 0 {
		fmt.Fprintln(os.Stderr, "No vectors indexed - run 'athleterag index' first")
		os.Exit(1)
	}

	retrieveUC, err := usecase.NewRetrieveUseCase(index, idMap, meta, embedder, nil, cfg.Retrieve.FetchMultiplier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Vectors indexed: %d\n", index.Len())
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	if *athlete != "" {
		fmt.Printf("Athlete filter: %s\n", *athlete)
	}
	fmt.Println(strings.Repeat("-", 70))

	start := time.Now()
	results, err := retrieveUC.Retrieve(*query, *athlete, *topK, 0)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieval error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		os.Exit(0)
	}

	fmt.Printf("Retrieved %d results in %v\n\n", len(results), elapsed)

	totalScore := 0.0
	for i, r := range results {
		preview := strings.ReplaceAll(r.Record.Chunk.Text, "\n", " ")
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		totalScore += r.Score

		rating := "LOW"
		if r.Score > 0.7 {
			rating = "HIGH"
		} else if r.Score > 0.5 {
			rating = "GOOD"
		} else if r.Score > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s (chunk %d)\n", i+1, rating, r.Score, r.Record.AthleteName, r.Record.Chunk.ChunkIndex)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Latency:            %v\n", elapsed)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or re-indexing")
	}
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
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
		return nil, fmt.Errorf("unsupported provider: %s", e.Provider)
	}
}
