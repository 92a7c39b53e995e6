package export

import (
	"fmt"
	"strings"

	"github.com/brynleigh/reflow-cli/internal/assemble"
	"github.com/brynleigh/reflow-cli/internal/model"
)

// FormatReport generates a human-readable lookup report for one part.
func FormatReport(result model.LookupResult, phases []model.PhaseResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Reflow Profile: %s\n", result.MPN)
	fmt.Fprintf(&b, "Status: %s", result.Status)
	if result.FromCache {
		b.WriteString(" (cached)")
	}
	b.WriteString("\n")
	if result.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", result.Error)
	}
	b.WriteString("\n")

	// Summary.
	resolved, conflicts, sources := 0, 0, 0
	if result.Profile != nil {
		for _, f := range model.TargetFields() {
			if result.Profile.Value(f).Status == model.FieldResolved {
				resolved++
			}
		}
		conflicts = len(result.Profile.Conflicts())
		sources = len(result.Profile.SourceURLs)
	}
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Fields resolved: %d\n", resolved)
	fmt.Fprintf(&b, "- Conflicts: %d\n", conflicts)
	fmt.Fprintf(&b, "- Sources: %d\n\n", sources)

	// Phase results.
	b.WriteString("## Phases\n")
	for _, p := range phases {
		fmt.Fprintf(&b, "- %s: %s (%dms)\n", p.Name, p.Status, p.Duration)
		if p.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", p.Error)
		}
	}
	b.WriteString("\n")

	// Field values in output order.
	b.WriteString("## Profile\n")
	if result.Profile == nil {
		b.WriteString("No profile extracted.\n")
	} else {
		for _, f := range model.TargetFields() {
			fv := result.Profile.Value(f)
			fmt.Fprintf(&b, "- **%s**: %s", f, assemble.Render(fv))
			if fv.Status != model.FieldNotFound {
				fmt.Fprintf(&b, " [%.0f%%]", fv.Confidence*100)
			}
			b.WriteString("\n")
		}
		if src := assemble.SourceColumn(*result.Profile); src != "" {
			fmt.Fprintf(&b, "\nSources: %s\n", src)
		}
	}

	// Evidence snippet when the pipeline captured one.
	if result.Evidence.Snippet != "" {
		b.WriteString("\n## Evidence\n")
		if result.Evidence.SourceURL != "" {
			fmt.Fprintf(&b, "Source: %s\n", result.Evidence.SourceURL)
		}
		fmt.Fprintf(&b, "> %s\n", result.Evidence.Snippet)
	}

	return b.String()
}

// FormatBatchSummary generates the status rollup printed after a BOM run.
func FormatBatchSummary(results []model.LookupResult) string {
	var b strings.Builder

	counts := make(map[model.LookupStatus]int)
	resolved, cached := 0, 0
	for _, r := range results {
		counts[r.Status]++
		if r.FromCache {
			cached++
		}
		if r.Profile != nil && r.Profile.Resolved() {
			resolved++
		}
	}

	b.WriteString("# BOM Run Summary\n")
	fmt.Fprintf(&b, "- Parts processed: %d\n", len(results))
	fmt.Fprintf(&b, "- Profiles resolved: %d\n", resolved)
	fmt.Fprintf(&b, "- Cache hits: %d\n\n", cached)

	b.WriteString("## Status Breakdown\n")
	for _, s := range []model.LookupStatus{
		model.LookupOK,
		model.LookupNotFound,
		model.LookupNoReflowInfo,
		model.LookupErrorBlocked,
		model.LookupMPNNA,
	} {
		fmt.Fprintf(&b, "- %s: %d parts\n", s, counts[s])
	}

	return b.String()
}
