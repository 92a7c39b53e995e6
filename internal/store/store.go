package store

import (
	"context"
	"time"

	"github.com/brynleigh/reflow-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	MPN    string          `json:"mpn,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the lookup pipeline. Cache
// and profile reads return nil with no error on a miss.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, mpn string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.LookupResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error

	// Lookup cache. Failed lookups are cached like successful ones so a
	// rerun does not hammer the same dead datasheet URLs.
	GetCachedLookup(ctx context.Context, mpn string) (*model.LookupResult, error)
	SetCachedLookup(ctx context.Context, mpn string, result *model.LookupResult, ttl time.Duration) error
	DeleteExpiredLookups(ctx context.Context) (int, error)

	// Profiles
	SaveProfile(ctx context.Context, rec *model.ProfileRecord) error
	SaveProfiles(ctx context.Context, recs []model.ProfileRecord) error
	GetProfile(ctx context.Context, partNumber string) (*model.ProfileRecord, error)
	ListProfiles(ctx context.Context, limit, offset int) ([]model.ProfileRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
