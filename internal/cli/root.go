package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"athleterag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "athleterag",
	Short: "Index and retrieve athlete passages by semantic similarity",
	Long: `athleterag ingests free-text documents about athletes, splits them into
overlapping token-bounded passages, embeds each passage and indexes the
vectors for similarity search with optional athlete filtering.

Example usage:
  athleterag index --athlete "Mikaela Shiffrin" ./docs/shiffrin
  athleterag query -q "comeback after injury" --athlete "Mikaela Shiffrin"
  athleterag stats --verify`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.Logging.Level == "quiet" {
			log.SetOutput(io.Discard)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./athleterag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
