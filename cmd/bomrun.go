package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brynleigh/reflow-cli/internal/assemble"
	"github.com/brynleigh/reflow-cli/internal/bom"
	"github.com/brynleigh/reflow-cli/internal/export"
)

var (
	bomrunPath        string
	bomrunLimit       int
	bomrunConcurrency int
	bomrunDryRun      bool
	bomrunForce       bool
	bomrunOffline     bool
	bomrunOutput      string
)

var bomrunCmd = &cobra.Command{
	Use:   "bomrun",
	Short: "Look up reflow profiles for every part in a BOM workbook",
	Long: `Reads an xlsx bill of materials and runs the datasheet lookup over its
unique part numbers, then writes the reconciled profile workbook.

Examples:
  # Dry run - parse the BOM and print its unique part numbers
  reflow-cli bomrun --bom board.xlsx --dry-run

  # Offline lookup against canned documents (no network needed)
  reflow-cli bomrun --bom board.xlsx --offline --limit 1

  # Full run, four parts in flight, custom output
  reflow-cli bomrun --bom board.xlsx --concurrency 4 --output profiles.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := bom.Read(bomrunPath)
		if err != nil {
			return err
		}
		mpns, err := bom.UniqueMPNs(b, cfg.BOM.MPNColumn)
		if err != nil {
			return err
		}
		if bomrunLimit > 0 && len(mpns) > bomrunLimit {
			mpns = mpns[:bomrunLimit]
		}

		zap.L().Info("bom loaded",
			zap.String("file", bomrunPath),
			zap.Int("rows", len(b.Rows)),
			zap.Int("unique_mpns", len(mpns)),
		)

		if bomrunDryRun {
			printMPNs(cmd, mpns)
			return nil
		}

		if bomrunConcurrency > 0 {
			cfg.Pipeline.MaxConcurrentParts = bomrunConcurrency
		}

		env, err := initPipeline(ctx, "bomrun", bomrunOffline)
		if err != nil {
			return err
		}
		defer env.Close()

		results := env.Pipeline.RunBatch(ctx, mpns, bomrunForce)

		output := bomrunOutput
		if output == "" {
			output = cfg.Export.Path
		}
		if _, err := env.Pipeline.Aggregate(ctx, results, output); err != nil {
			return eris.Wrap(err, "aggregate results")
		}

		fmt.Print(export.FormatBatchSummary(results))
		zap.L().Info("bom run complete",
			zap.Int("parts", len(results)),
			zap.String("output", output),
		)
		return nil
	},
}

func init() {
	bomrunCmd.Flags().StringVar(&bomrunPath, "bom", "", "path to the BOM xlsx file (required)")
	bomrunCmd.Flags().IntVar(&bomrunLimit, "limit", 0, "max unique part numbers to process (0 = all)")
	bomrunCmd.Flags().IntVar(&bomrunConcurrency, "concurrency", 0, "max parts in flight (default from config)")
	bomrunCmd.Flags().BoolVar(&bomrunDryRun, "dry-run", false, "parse the BOM and print part numbers, skip the lookup")
	bomrunCmd.Flags().BoolVar(&bomrunForce, "force", false, "bypass the lookup cache")
	bomrunCmd.Flags().BoolVar(&bomrunOffline, "offline", false, "use canned document stubs instead of the network")
	bomrunCmd.Flags().StringVar(&bomrunOutput, "output", "", "profile workbook path (default from config)")
	_ = bomrunCmd.MarkFlagRequired("bom")
	rootCmd.AddCommand(bomrunCmd)
}

// printMPNs lists the unique part numbers one per line. Blank cells show
// as the not-found marker so every pending lookup gets a line.
func printMPNs(cmd *cobra.Command, mpns []string) {
	for _, mpn := range mpns {
		if mpn == "" {
			mpn = assemble.NotFoundMarker
		}
		cmd.Println(mpn)
	}
}
