package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/batchsight/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "batchsight",
	Short: "Manufacturing batch process analytics",
	Long:  "Merges batch, QC and COA tables, scores batch failure risk (rule-based, Gaussian mixture or logistic regression), tracks SPC metrics and renders charts.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
