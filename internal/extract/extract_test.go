package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brynleigh/reflow-cli/internal/model"
	"github.com/brynleigh/reflow-cli/internal/unitpattern"
)

const profileLine = "Preheat: 150–180°C for 60–120s; Soak: 150–200°C, 60–180s; " +
	"Reflow (TAL): 60–90s above 217°C; Peak: 245°C max; Cooling: ≤4°C/s"

func newEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(unitpattern.New(), DefaultConfig())
	require.NoError(t, err)
	return eng
}

func oneCandidatePerField(t *testing.T, cands []model.CandidateMeasurement) map[model.Field]model.CandidateMeasurement {
	t.Helper()
	out := make(map[model.Field]model.CandidateMeasurement, len(cands))
	for _, c := range cands {
		_, dup := out[c.Field]
		require.False(t, dup, "field %s has more than one candidate", c.Field)
		out[c.Field] = c
	}
	return out
}

func TestExtract_FullProfileLine(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	cands := eng.Extract(profileLine, "https://vendor.example/ds.pdf")
	require.Len(t, cands, 5)
	got := oneCandidatePerField(t, cands)

	tests := []struct {
		field model.Field
		want  []model.Quantity
	}{
		{model.FieldPreheat, []model.Quantity{
			model.Range(model.KindTemperature, 150, 180),
			model.Range(model.KindTime, 60, 120),
		}},
		{model.FieldSoak, []model.Quantity{
			model.Range(model.KindTemperature, 150, 200),
			model.Range(model.KindTime, 60, 180),
		}},
		{model.FieldReflow, []model.Quantity{
			model.Range(model.KindTime, 60, 90),
			model.Single(model.KindTemperature, 217),
		}},
		{model.FieldPeak, []model.Quantity{
			model.Single(model.KindTemperature, 245),
		}},
		{model.FieldCooling, []model.Quantity{
			model.Single(model.KindRate, 4),
		}},
	}
	for _, tt := range tests {
		c, ok := got[tt.field]
		require.True(t, ok, "missing candidate for %s", tt.field)
		assert.Equal(t, tt.want, c.Quantities, "field %s", tt.field)
		assert.Empty(t, c.Missing, "field %s", tt.field)
		assert.Greater(t, c.Confidence, 0.3, "field %s", tt.field)
		assert.Equal(t, "https://vendor.example/ds.pdf", c.Source.URL)
	}
}

func TestExtract_SinglePeakPhrase(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	cands := eng.Extract("The peak temperature is 245°C.", "https://vendor.example/ds.pdf")
	require.Len(t, cands, 1)
	assert.Equal(t, model.FieldPeak, cands[0].Field)
	assert.Equal(t, []model.Quantity{model.Single(model.KindTemperature, 245)}, cands[0].Quantities)
	assert.Greater(t, cands[0].Confidence, 0.3)
}

func TestExtract_MissingExpectedTime(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)

	full := eng.Extract("Preheat: 150-180 °C for 60-120 s", "u")
	require.Len(t, full, 1)
	require.Empty(t, full[0].Missing)

	partial := eng.Extract("Preheat: 150-180 °C", "u")
	require.Len(t, partial, 1)
	assert.Equal(t, []model.Kind{model.KindTime}, partial[0].Missing)
	assert.Equal(t, []model.Quantity{model.Range(model.KindTemperature, 150, 180)}, partial[0].Quantities)
	assert.Less(t, partial[0].Confidence, full[0].Confidence)
}

func TestExtract_MandatoryQuantityGates(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)

	tests := []struct {
		name string
		text string
	}{
		{"anchor without quantity", "Preheat zone follows the usual guidelines."},
		{"cooling without rate", "Cooling: see chart on page 12."},
		{"no anchors at all", "The quick brown fox jumps over the lazy dog."},
		{"empty text", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Empty(t, eng.Extract(tt.text, "u"))
		})
	}
}

func TestExtract_OverlappingAnchorsMerge(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)

	merged := eng.Extract("Reflow (TAL): 60-90s", "u")
	require.Len(t, merged, 1)
	assert.Equal(t, model.FieldReflow, merged[0].Field)

	single := eng.Extract("Reflow: 60-90s", "u")
	require.Len(t, single, 1)

	assert.Greater(t, merged[0].Confidence, single[0].Confidence)
}

func TestExtract_AnchorInsideLongerAnchor(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	cands := eng.Extract("Ramp-to-soak: 150–180°C for 90s", "u")
	require.Len(t, cands, 1)
	assert.Equal(t, model.FieldPreheat, cands[0].Field)
}

func TestExtract_DistantAnchorsStaySeparate(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	text := "Peak: 245°C\n" + strings.Repeat("x", 200) + "\nPeak temperature: 250°C"
	cands := eng.Extract(text, "u")
	require.Len(t, cands, 2)
	assert.Equal(t, []model.Quantity{model.Single(model.KindTemperature, 245)}, cands[0].Quantities)
	assert.Equal(t, []model.Quantity{model.Single(model.KindTemperature, 250)}, cands[1].Quantities)
	assert.Equal(t, "line 1", cands[0].Source.Locator)
	assert.Equal(t, "line 3", cands[1].Source.Locator)
}

func TestExtract_WindowStopsAtClauseBoundary(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)

	// The 217°C threshold belongs to the reflow clause and must not leak
	// into the peak candidate.
	cands := eng.Extract("Reflow (TAL): 60–90s above 217°C; Peak: 245°C max", "u")
	got := oneCandidatePerField(t, cands)
	peak, ok := got[model.FieldPeak]
	require.True(t, ok)
	assert.Equal(t, []model.Quantity{model.Single(model.KindTemperature, 245)}, peak.Quantities)
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	eng := newEngine(t)
	first := eng.Extract(profileLine, "u")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, eng.Extract(profileLine, "u"))
	}
}

func TestNew_AnchorOverrides(t *testing.T) {
	t.Parallel()

	t.Run("replaces the field's phrase list", func(t *testing.T) {
		t.Parallel()
		eng, err := New(unitpattern.New(), Config{
			Anchors: map[string][]string{"peak": {"maximum temperature"}},
		})
		require.NoError(t, err)

		cands := eng.Extract("Maximum temperature: 250°C", "u")
		require.Len(t, cands, 1)
		assert.Equal(t, model.FieldPeak, cands[0].Field)

		assert.Empty(t, eng.Extract("Peak: 245°C", "u"))
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := New(unitpattern.New(), Config{Anchors: map[string][]string{"bogus": {"x"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown field")
	})

	t.Run("empty phrase list", func(t *testing.T) {
		t.Parallel()
		_, err := New(unitpattern.New(), Config{Anchors: map[string][]string{"peak": {}}})
		require.Error(t, err)
	})
}

func TestLoadAnchors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "patterns.yaml")
	content := `
anchors:
  peak: ["max temp"]
quantities:
  - name: ignored-here
    kind: temperature_c
    expr: '(?P<lo>\d+)'
    confidence: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	anchors, err := LoadAnchors(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"peak": {"max temp"}}, anchors)

	eng, err := New(unitpattern.New(), Config{Anchors: anchors})
	require.NoError(t, err)
	cands := eng.Extract("Max temp: 250°C", "u")
	require.Len(t, cands, 1)
	assert.Equal(t, model.FieldPeak, cands[0].Field)
}
