package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brynleigh/reflow-cli/internal/assemble"
	"github.com/brynleigh/reflow-cli/internal/export"
	"github.com/brynleigh/reflow-cli/internal/model"
)

// Aggregate folds per-part lookup results into the final profile table,
// persists the records, and writes the workbook when outputPath is set.
// Results without a profile (NA parts, failed lookups) still get a row so
// the table covers the whole BOM.
func (p *Pipeline) Aggregate(ctx context.Context, results []model.LookupResult, outputPath string) ([]model.ProfileRecord, error) {
	log := zap.L().With(zap.Int("parts", len(results)))

	records := make([]model.ProfileRecord, 0, len(results))
	for _, r := range results {
		if r.Profile != nil {
			records = append(records, *r.Profile)
			continue
		}
		partNumber := r.MPN
		if partNumber == "" {
			partNumber = assemble.NotFoundMarker
		}
		rec, err := assemble.Assemble(partNumber, nil, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: placeholder row for %q", r.MPN)
		}
		records = append(records, rec)
	}

	if err := p.store.SaveProfiles(ctx, records); err != nil {
		log.Warn("pipeline: failed to persist profiles", zap.Error(err))
	}

	if outputPath != "" {
		if err := export.WriteXLSX(results, outputPath); err != nil {
			return nil, err
		}
		log.Info("pipeline: workbook written", zap.String("path", outputPath))
	}

	return records, nil
}
