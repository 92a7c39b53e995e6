package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brynleigh/reflow-cli/internal/export"
)

var (
	runMPN     string
	runForce   bool
	runReport  bool
	runOffline bool
	runOutput  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Look up the reflow profile for a single part number",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "run", runOffline)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, runMPN, runForce)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("lookup complete",
			zap.String("mpn", result.MPN),
			zap.String("status", string(result.Status)),
			zap.Bool("from_cache", result.FromCache),
		)

		if runReport {
			fmt.Print(export.FormatReport(*result, result.Phases))
			return nil
		}

		out := os.Stdout
		if runOutput != "" {
			f, err := os.Create(runOutput)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runMPN, "mpn", "", "manufacturer part number (required)")
	runCmd.Flags().BoolVar(&runForce, "force", false, "bypass the lookup cache")
	runCmd.Flags().BoolVar(&runReport, "report", false, "print a human-readable report instead of JSON")
	runCmd.Flags().StringVar(&runOutput, "output", "", "write the result JSON to a file (default: stdout)")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "use canned document stubs instead of the network")
	_ = runCmd.MarkFlagRequired("mpn")
	rootCmd.AddCommand(runCmd)
}
