package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/healthpay/claimcheck/internal/ingest"
)

var (
	batchFile        string
	batchSheet       string
	batchThresholds  string
	batchPersist     bool
	batchConcurrency int
	batchLimit       int
	batchOutput      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Validate many claims from a JSON, CSV, or XLSX file",
	Long: `Reads a claims file and validates each claim concurrently. The input
format is chosen by file extension: .json expects an array of claims,
.csv and .xlsx expect one extracted field per row.

Examples:
  # Validate a claims export, five at a time
  claimcheck batch --file claims.csv

  # XLSX workbook, specific sheet, persist every run
  claimcheck batch --file claims.xlsx --sheet March --persist`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		claims, err := readClaims(ctx, batchFile, batchSheet)
		if err != nil {
			return err
		}
		zap.L().Info("parsed claims file", zap.Int("claims", len(claims)))

		if batchLimit > 0 && batchLimit < len(claims) {
			claims = claims[:batchLimit]
		}

		env, err := initPipeline(ctx, batchPersist, batchThresholds)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentClaims
		}

		summary, err := env.Pipeline.RunBatch(ctx, claims, concurrency)
		if err != nil {
			return err
		}

		return printJSON(summary, batchOutput)
	},
}

func readClaims(ctx context.Context, path, sheet string) ([]ingest.ClaimInput, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close()

		claimCh, errCh := ingest.StreamClaimsJSON(ctx, f)
		var claims []ingest.ClaimInput
		for claim := range claimCh {
			claims = append(claims, claim)
		}
		if err := <-errCh; err != nil {
			return nil, err
		}
		return claims, nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		return ingest.ReadClaimsCSV(ctx, f)
	case ".xlsx":
		return ingest.ReadClaimsXLSX(ctx, path, ingest.XLSXOptions{SheetName: sheet})
	default:
		return nil, eris.Errorf("unsupported claims file extension %q", filepath.Ext(path))
	}
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "claims file: .json, .csv, or .xlsx (required)")
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "xlsx sheet name (default first sheet)")
	batchCmd.Flags().StringVar(&batchThresholds, "thresholds", "", "standalone validator thresholds YAML")
	batchCmd.Flags().BoolVar(&batchPersist, "persist", false, "store every run")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max claims in flight (default from config)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "validate at most N claims")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write summary JSON to file instead of stdout")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
