package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "deadonfilm",
	Short: "Circumstances-of-death enrichment for deceased public figures",
	Long:  "Queries free scrapers, free APIs, and AI-backed sources in priority order, caching every outcome and stopping when cost budgets are spent.",
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
