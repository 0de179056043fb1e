package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/healthpay/claimcheck/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "claimcheck",
	Short: "Cross-document consistency validation for medical claims",
	Long:  "Validates that fields extracted from the documents of a medical claim agree with each other, scores the claim, and recommends a decision.",
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
