package main

import (
	"github.com/spf13/cobra"

	"github.com/healthpay/claimcheck/internal/model"
	"github.com/healthpay/claimcheck/internal/store"
)

var (
	runsStatus   string
	runsClaimID  string
	runsLimit    int
	runsOffset   int
	runsSeverity string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored validation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:  model.RunStatus(runsStatus),
			ClaimID: runsClaimID,
			Limit:   runsLimit,
			Offset:  runsOffset,
		})
		if err != nil {
			return err
		}

		return printJSON(map[string]any{"runs": runs, "count": len(runs)}, "")
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show one validation run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(run, "")
	},
}

var runsFindingsCmd = &cobra.Command{
	Use:   "findings RUN_ID",
	Short: "List the archived findings of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		findings, err := st.ListFindings(ctx, store.FindingFilter{
			RunID:    args[0],
			Severity: model.Severity(runsSeverity),
			Limit:    runsLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"findings": findings, "count": len(findings)}, "")
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by run status")
	runsCmd.Flags().StringVar(&runsClaimID, "claim", "", "filter by claim id")
	runsCmd.PersistentFlags().IntVar(&runsLimit, "limit", 0, "max rows (default 100)")
	runsCmd.Flags().IntVar(&runsOffset, "offset", 0, "skip rows")
	runsFindingsCmd.Flags().StringVar(&runsSeverity, "severity", "", "filter by severity: info, warning, critical")

	runsCmd.AddCommand(runsShowCmd, runsFindingsCmd)
	rootCmd.AddCommand(runsCmd)
}
