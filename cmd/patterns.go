package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brynleigh/reflow-cli/internal/extract"
	"github.com/brynleigh/reflow-cli/internal/model"
	"github.com/brynleigh/reflow-cli/internal/unitpattern"
)

var patternsFile string

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Validate a quantity pattern file",
	Long:  "Compiles every quantity descriptor and anchor override in a pattern YAML file against the built-ins and prints what the file adds, without touching the store or the network.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := unitpattern.LoadDescriptors(patternsFile)
		if err != nil {
			return err
		}
		anchors, err := extract.LoadAnchors(patternsFile)
		if err != nil {
			return err
		}

		// The additions must combine cleanly with the built-ins.
		lib := unitpattern.New()
		for _, d := range ds {
			if err := lib.Add(d); err != nil {
				return err
			}
		}
		if _, err := extract.New(lib, extract.Config{Anchors: anchors}); err != nil {
			return err
		}

		byKind := make(map[model.Kind]int)
		for _, d := range ds {
			byKind[d.Kind]++
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Quantity descriptors:\t%d\n", len(ds))
		for _, kind := range model.Kinds() {
			if n := byKind[kind]; n > 0 {
				_, _ = fmt.Fprintf(w, "  %s:\t%d\n", kind, n)
			}
		}
		_, _ = fmt.Fprintf(w, "Anchor overrides:\t%d\n", len(anchors))
		fields := make([]string, 0, len(anchors))
		for f := range anchors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			_, _ = fmt.Fprintf(w, "  %s:\t%d phrases\n", f, len(anchors[f]))
		}
		_ = w.Flush()

		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	},
}

func init() {
	patternsCmd.Flags().StringVar(&patternsFile, "file", "", "pattern YAML file to validate (required)")
	_ = patternsCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(patternsCmd)
}
