package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"athleterag/internal/usecase"
)

var (
	queryText     string
	queryAthlete  string
	queryTopK     int
	queryMinScore float64
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search indexed passages by similarity",
	Long: `Search the indexed passages for the ones most similar to the query,
optionally restricted to one athlete.

Examples:
  athleterag query -q "world record attempt"
  athleterag query -q "knee injury recovery" --athlete "Mikaela Shiffrin" -k 3`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().StringVarP(&queryAthlete, "athlete", "a", "", "restrict results to one athlete")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-similarity", -1, "similarity floor (default from config)")
	queryCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	topK := queryTopK
	if topK <= 0 {
		topK = cfg.Retrieve.TopK
	}
	minScore := queryMinScore
	if minScore < 0 {
		minScore = cfg.Retrieve.MinSimilarity
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up embedder: %w", err)
	}

	meta, index, idMap, err := openStores(GetRootDir(), embedder)
	if err != nil {
		return err
	}
	defer meta.Close()

	check, err := meta.CheckProvenance(embedder.ModelName(), embedder.Dimension())
	if err != nil {
		return fmt.Errorf("failed to check index provenance: %w", err)
	}
	if check.NeedsRebuild {
		return fmt.Errorf("index was built by a different embedder (%s); run 'athleterag rebuild' first", check.Reason)
	}

	retrieveUC, err := usecase.NewRetrieveUseCase(index, idMap, meta, embedder, buildQueryCache(cfg), cfg.Retrieve.FetchMultiplier)
	if err != nil {
		return err
	}

	results, err := retrieveUC.Retrieve(queryText, queryAthlete, topK, minScore)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No relevant passages found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s (chunk %d)\n", i+1, r.Score, r.Record.AthleteName, r.Record.Chunk.ChunkIndex)
		if title := r.Record.Extra["title"]; title != "" {
			fmt.Printf("   %s\n", title)
		}
		fmt.Printf("   %s\n\n", snippet(r.Record.Chunk.Text, 240))
	}
	return nil
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
