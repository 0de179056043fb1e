package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/healthpay/claimcheck/internal/ingest"
	"github.com/healthpay/claimcheck/internal/model"
)

var (
	validateFile       string
	validateThresholds string
	validatePersist    bool
	validateOutput     string
	validateStrict     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the documents of a single claim",
	Long: `Reads a claim JSON file, checks its documents against each other, and
prints the validation run with findings and the recommended decision.

Examples:
  # Validate a claim and print the report
  claimcheck validate --file claim.json

  # Custom comparison thresholds, persist the run
  claimcheck validate --file claim.json --thresholds thresholds.yaml --persist

  # Exit non-zero when the claim has critical discrepancies
  claimcheck validate --file claim.json --strict`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f, err := os.Open(validateFile)
		if err != nil {
			return eris.Wrapf(err, "open %s", validateFile)
		}
		defer f.Close()

		claim, err := ingest.ReadClaimJSON(f)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, validatePersist, validateThresholds)
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Pipeline.Run(ctx, *claim)
		if err != nil {
			return err
		}

		if err := printJSON(run, validateOutput); err != nil {
			return err
		}

		if run.Status == model.RunStatusFailed {
			return eris.Errorf("validation run failed: %s", run.Result.Error)
		}
		if validateStrict && !run.Result.Report.IsConsistent {
			zap.L().Warn("claim has critical discrepancies",
				zap.String("claim", claim.ClaimID),
				zap.Int("critical", run.Result.Report.CriticalCount()))
			return eris.New("claim is not consistent")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFile, "file", "", "claim JSON file (required)")
	validateCmd.Flags().StringVar(&validateThresholds, "thresholds", "", "standalone validator thresholds YAML")
	validateCmd.Flags().BoolVar(&validatePersist, "persist", false, "store the run")
	validateCmd.Flags().StringVar(&validateOutput, "output", "", "write run JSON to file instead of stdout")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "exit non-zero when the claim is inconsistent")
	_ = validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(validateCmd)
}
