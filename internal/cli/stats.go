package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"athleterag/internal/usecase"
)

var statsVerify bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and store statistics",
	Long: `Print what the engine currently holds: record and vector counts, the
embedding dimension, and a per-athlete breakdown. With --verify, also sweep
the index, id map and metadata store for drift between them.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsVerify, "verify", false, "sweep the stores for inconsistencies")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats, err := meta.Stats()
	if err != nil {
		return fmt.Errorf("failed to read store statistics: %w", err)
	}

	fmt.Printf("Records:    %d\n", stats.TotalRecords)
	fmt.Printf("Vectors:    %d\n", index.Len())
	fmt.Printf("Bindings:   %d\n", idMap.Len())
	fmt.Printf("Dimension:  %d\n", index.Dimension())

	if len(stats.Athletes) > 0 {
		names := make([]string, 0, len(stats.Athletes))
		for name := range stats.Athletes {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("\nAthletes:")
		for _, name := range names {
			fmt.Printf("  %-30s %d records\n", name, stats.Athletes[name])
		}
	}

	if !statsVerify {
		return nil
	}

	indexUC, err := usecase.NewIndexUseCase(index, idMap, meta, embedder, nil, nil)
	if err != nil {
		return err
	}
	report, err := indexUC.Verify()
	if err != nil {
		return fmt.Errorf("verification sweep failed: %w", err)
	}

	fmt.Println()
	if report.Clean() {
		fmt.Println("Verification: clean")
		return nil
	}
	if n := len(report.OrphanVectors); n > 0 {
		fmt.Printf("Verification: %d orphan vector slot(s); run 'athleterag rebuild' to reclaim them\n", n)
	}
	if n := len(report.DanglingBindings); n > 0 {
		fmt.Printf("Verification: %d dangling binding(s) with no stored record\n", n)
	}
	return nil
}
