package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cvgate",
	Short: "Candidate validation and anti-overfitting gating engine",
	Long:  "Extracts experience and education records from line-indexed résumé text, gating every candidate through tri-signal validation, boundary guards, organization sieving, quality demotion, and pattern-diversity enforcement.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
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
