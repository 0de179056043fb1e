package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/healthpay/claimcheck/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation API server",
	Long: `Serves the validation pipeline over HTTP:

  POST /validate            validate a claim synchronously
  POST /claims              queue a claim, returns the run id
  GET  /runs                list stored runs
  GET  /runs/{id}           one run with its result
  GET  /runs/{id}/findings  archived findings of a run
  GET  /health              liveness check`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, true, "")
		if err != nil {
			return err
		}
		defer env.Close()

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg.Port = servePort
		}

		return server.New(serverCfg, env.Pipeline, env.Store).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
