package model

import "time"

// LookupStatus is the terminal outcome of one part-number lookup.
type LookupStatus string

const (
	LookupOK           LookupStatus = "ok"
	LookupNotFound     LookupStatus = "not_found"
	LookupNoReflowInfo LookupStatus = "no_reflow_info"
	LookupErrorBlocked LookupStatus = "error_or_blocked"
	LookupMPNNA        LookupStatus = "mpn_na"
)

// Evidence points a reviewer at the text that produced a result.
type Evidence struct {
	SourceURL string `json:"source_url,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
}

// LookupResult is the per-MPN outcome of the datasheet pipeline. A cached
// result keeps the phases of the lookup that produced it.
type LookupResult struct {
	MPN       string         `json:"mpn"`
	Status    LookupStatus   `json:"status"`
	Profile   *ProfileRecord `json:"profile,omitempty"`
	Evidence  Evidence       `json:"evidence"`
	Phases    []PhaseResult  `json:"phases,omitempty"`
	FromCache bool           `json:"from_cache,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// RunStatus represents the current state of a lookup run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusSearching   RunStatus = "searching"
	RunStatusFetching    RunStatus = "fetching"
	RunStatusExtracting  RunStatus = "extracting"
	RunStatusReconciling RunStatus = "reconciling"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run represents a single persisted lookup run for a part number.
type Run struct {
	ID        string        `json:"id"`
	MPN       string        `json:"mpn"`
	Status    RunStatus     `json:"status"`
	Result    *LookupResult `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
