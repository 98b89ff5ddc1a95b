package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"athleterag/config"
	"athleterag/internal/adapter/store"
	"athleterag/internal/adapter/vectorindex"
	"athleterag/internal/usecase"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index from stored records",
	Long: `Re-embed every surviving record and write a fresh vector index and id
map. This reclaims slots freed by deletions and is required after switching
the embedding model or dimension; the old vector data is not read at all,
only the stored chunk text.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up embedder: %w", err)
	}

	// The old blob may have been written by an embedder of a different
	// dimension, so it is never loaded here. Rebuild works from the
	// metadata store alone.
	if err := config.EnsureDataDir(root); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	meta, err := store.NewBoltStore(config.MetaDBPath(root))
	if err != nil {
		return err
	}
	defer meta.Close()

	index, err := vectorindex.NewFlatIndex(embedder.Dimension())
	if err != nil {
		return err
	}
	idMap := vectorindex.NewIDMap()

	indexUC, err := usecase.NewIndexUseCase(index, idMap, meta, embedder, nil, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Rebuilding with model %s (dimension %d)\n", embedder.ModelName(), embedder.Dimension())

	fresh, freshMap, count, err := indexUC.Rebuild()
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	if err := vectorindex.SaveTo(config.DataDir(root), fresh, freshMap); err != nil {
		return fmt.Errorf("failed to save rebuilt index: %w", err)
	}
	if err := meta.SetProvenance(embedder.ModelName(), embedder.Dimension()); err != nil {
		return fmt.Errorf("failed to record provenance: %w", err)
	}

	fmt.Printf("Rebuilt index with %d vector(s)\n", count)
	return nil
}
