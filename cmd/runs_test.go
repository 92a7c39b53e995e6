package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brynleigh/reflow-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 5, 14, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			MPN:       "ATMEGA328P-AU",
			Status:    model.RunStatusComplete,
			Result:    &model.LookupResult{MPN: "ATMEGA328P-AU", Status: model.LookupOK},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			MPN:       "GRM188R71C104KA01D",
			Status:    model.RunStatusSearching,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "MPN")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "ATMEGA328P-AU")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "ok")
	assert.Contains(t, output, "GRM188R71C104KA01D")
	assert.Contains(t, output, "searching")
	assert.Contains(t, output, "2026-05-14 10:30")
	assert.Contains(t, output, "abc12345")
}

func TestFormatRunsList_CachedResult(t *testing.T) {
	now := time.Date(2026, 5, 14, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			MPN:       "LM358",
			Status:    model.RunStatusComplete,
			Result:    &model.LookupResult{MPN: "LM358", Status: model.LookupNotFound, FromCache: true},
			CreatedAt: now,
			UpdatedAt: now.Add(time.Second),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "not_found (cached)")
}

func TestRunsStats(t *testing.T) {
	now := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)

	runs := []model.Run{
		{
			ID:        "1",
			Status:    model.RunStatusComplete,
			Result:    &model.LookupResult{Status: model.LookupOK},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "2",
			Status:    model.RunStatusComplete,
			Result:    &model.LookupResult{Status: model.LookupNoReflowInfo},
			CreatedAt: now.Add(5 * time.Minute),
			UpdatedAt: now.Add(8 * time.Minute),
		},
		{
			ID:        "3",
			Status:    model.RunStatusFailed,
			CreatedAt: now.Add(10 * time.Minute),
			UpdatedAt: now.Add(10*time.Minute + 30*time.Second),
		},
		{
			ID:        "4",
			Status:    model.RunStatusSearching,
			CreatedAt: now.Add(15 * time.Minute),
			UpdatedAt: now.Add(15 * time.Minute),
		},
	}

	stats := computeRunStats(runs)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Complete)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.InFlight)
	assert.Equal(t, 1, stats.Outcomes[model.LookupOK])
	assert.Equal(t, 1, stats.Outcomes[model.LookupNoReflowInfo])
	// Average duration of the 2 complete runs: (120s + 180s) / 2 = 150s.
	assert.InDelta(t, 150.0, stats.AvgDurSecs, 0.1)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Complete:")
	assert.Contains(t, output, "ok:")
	assert.Contains(t, output, "no_reflow_info:")
	assert.Contains(t, output, "Failed:")
	assert.Contains(t, output, "In flight:")
	assert.Contains(t, output, "150.0s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
