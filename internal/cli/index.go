package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"athleterag/config"
	"athleterag/internal/adapter/analyzer"
	"athleterag/internal/adapter/chunker"
	"athleterag/internal/adapter/fs"
	"athleterag/internal/adapter/vectorindex"
	"athleterag/internal/domain"
	"athleterag/internal/usecase"
)

var indexAthlete string

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index documents about one athlete",
	Long: `Index text documents in the given directory as passages about one
athlete. Already-indexed content is skipped, so re-running over the same
documents is cheap and creates no duplicates.

Examples:
  athleterag index --athlete "Eliud Kipchoge" ./docs/kipchoge
  athleterag index --athlete "Eliud Kipchoge"   # index current directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexAthlete, "athlete", "a", "", "athlete the documents describe (required)")
	indexCmd.MarkFlagRequired("athlete")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()

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
		return fmt.Errorf("index rebuild required (%s); run 'athleterag rebuild' first", check.Reason)
	}

	tokenizer := analyzer.NewTokenizer()
	chk, err := chunker.NewTokenChunker(cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens, cfg.Chunking.PrependMetadata, tokenizer)
	if err != nil {
		return err
	}

	indexUC, err := usecase.NewIndexUseCase(index, idMap, meta, embedder, chk, nil)
	if err != nil {
		return err
	}

	loader := fs.NewLoader(indexAthlete, cfg.Ingest.Includes, cfg.Ingest.Excludes, cfg.Ingest.MinTextLength)
	docs, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Printf("No matching documents under %s\n", path)
		return nil
	}

	fmt.Printf("Indexing %d documents for %s (model %s, dimension %d)\n",
		len(docs), indexAthlete, embedder.ModelName(), embedder.Dimension())

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)

	var total domain.IndexingStats
	for _, doc := range docs {
		stats, err := indexUC.IndexDocument(doc, indexAthlete)
		total.Add(stats)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\ndocument %s: %v\n", doc.Title, err)
		}
		bar.Add(1)
	}

	if err := vectorindex.SaveTo(config.DataDir(GetRootDir()), index, idMap); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	if err := meta.SetProvenance(embedder.ModelName(), embedder.Dimension()); err != nil {
		return fmt.Errorf("failed to record provenance: %w", err)
	}

	fmt.Printf("Inserted %d, skipped %d duplicates, %d failed\n",
		total.Inserted, total.SkippedDuplicate, total.Failed)
	return nil
}
