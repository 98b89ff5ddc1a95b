package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"athleterag/config"
	"athleterag/internal/adapter/vectorindex"
	"athleterag/internal/usecase"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <athlete>",
	Short: "Delete all of one athlete's records",
	Long: `Delete every indexed record for the named athlete. The deletion is
logical: metadata and id map bindings are removed immediately, the vector
slots stay occupied until the next 'athleterag rebuild'.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	athlete := args[0]
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

	indexUC, err := usecase.NewIndexUseCase(index, idMap, meta, embedder, nil, nil)
	if err != nil {
		return err
	}

	deleted, err := indexUC.DeleteAthlete(athlete)
	if err != nil {
		return err
	}
	if deleted == 0 {
		fmt.Printf("No records found for %s\n", athlete)
		return nil
	}

	if err := vectorindex.SaveTo(config.DataDir(GetRootDir()), index, idMap); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	fmt.Printf("Deleted %d record(s) for %s; run 'athleterag rebuild' to reclaim the vector slots\n",
		deleted, athlete)
	return nil
}
