// Package assemble composes reconciled field values into the terminal
// profile record and renders fields into their display form. It makes no
// resolution decisions of its own.
package assemble

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/brynleigh/reflow-cli/internal/model"
)

// NotFoundMarker is the explicit display value for an unresolved field.
// An empty spreadsheet cell cannot be told apart from a skipped part, so
// absence is spelled out.
const NotFoundMarker = "NA"

// ConflictSuffix marks a field whose sources disagree, so a reviewer can
// spot it in rendered output without re-running reconciliation.
const ConflictSuffix = " (conflict)"

// Assemble builds the read-only record for one part number. A part with
// no resolved fields or no sources still assembles cleanly; the only hard
// failure is a blank part number.
func Assemble(partNumber string, values map[model.Field]model.FieldValue, sourceURLs []string) (model.ProfileRecord, error) {
	if strings.TrimSpace(partNumber) == "" {
		return model.ProfileRecord{}, eris.New("assemble: part number is required")
	}

	rec := model.ProfileRecord{PartNumber: partNumber, SourceURLs: distinctSorted(sourceURLs)}
	for _, f := range model.TargetFields() {
		fv, ok := values[f]
		if !ok {
			fv = model.FieldValue{Field: f, Status: model.FieldNotFound}
		}
		switch f {
		case model.FieldPreheat:
			rec.Preheat = fv
		case model.FieldSoak:
			rec.Soak = fv
		case model.FieldReflow:
			rec.Reflow = fv
		case model.FieldPeak:
			rec.Peak = fv
		case model.FieldCooling:
			rec.Cooling = fv
		}
	}
	return rec, nil
}

// Render returns the display text for one field value, e.g.
// "150–180 °C for 60–120 s" or "60–90 s above 217 °C". Conflicting values
// carry the conflict suffix; unresolved fields render the NA marker.
func Render(fv model.FieldValue) string {
	if fv.Status == model.FieldNotFound || len(fv.Quantities) == 0 {
		return NotFoundMarker
	}

	var parts []string
	for _, kind := range model.FieldKinds(fv.Field) {
		if q, ok := fv.QuantityOf(kind); ok {
			parts = append(parts, q.String())
		}
	}
	if len(parts) == 0 {
		return NotFoundMarker
	}

	text := strings.Join(parts, joiner(fv.Field))
	if fv.Status == model.FieldConflicting {
		text += ConflictSuffix
	}
	return text
}

// joiner picks the connective between a field's primary and secondary
// quantity.
func joiner(f model.Field) string {
	switch f {
	case model.FieldReflow:
		return " above "
	default:
		return " for "
	}
}

// SourceColumn renders the record's contributing URLs as one cell.
func SourceColumn(rec model.ProfileRecord) string {
	return strings.Join(rec.SourceURLs, "; ")
}

func distinctSorted(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
