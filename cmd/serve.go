package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brynleigh/reflow-cli/internal/server"
)

var (
	servePort    int
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the BOM lookup API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initPipeline(ctx, "serve", serveOffline)
		if err != nil {
			return err
		}
		defer env.Close()

		return server.New(cfg, env.Pipeline).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "use canned document stubs instead of the network")
	rootCmd.AddCommand(serveCmd)
}
