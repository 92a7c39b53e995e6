// Package server exposes the BOM lookup workflow over HTTP. The API is
// session-shaped: one loaded BOM, one lookup run, one aggregation at a
// time, with all state held server-side behind a mutex.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brynleigh/reflow-cli/internal/config"
	"github.com/brynleigh/reflow-cli/internal/model"
	"github.com/brynleigh/reflow-cli/internal/pipeline"
)

// Run states surfaced in the state payload.
const (
	runIdle     = "idle"
	runRunning  = "running"
	runComplete = "complete"
)

// Aggregation states.
const (
	aggNotRun   = "not_run"
	aggComplete = "complete"
)

// State is the snapshot returned by the state endpoint. The BOM field
// carries only a preview; the full table stays on the Server.
type State struct {
	BOMLabel    string               `json:"bom_label,omitempty"`
	BOM         *model.BOM           `json:"bom,omitempty"`
	RunStatus   string               `json:"run_status"`
	UniqueMPNs  int                  `json:"unique_mpn_count,omitempty"`
	Results     []model.LookupResult `json:"results,omitempty"`
	Aggregation Aggregation          `json:"aggregation"`
}

// Aggregation describes the reconciled-profile table built from the
// last completed run.
type Aggregation struct {
	Status  string                `json:"status"`
	Summary string                `json:"summary,omitempty"`
	Records []model.ProfileRecord `json:"records,omitempty"`
}

// Server holds the session state and the pipeline that does the work.
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline

	mu    sync.Mutex
	bom   model.BOM
	state State
}

// New creates a Server with an empty session.
func New(cfg *config.Config, p *pipeline.Pipeline) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: p,
		state: State{
			RunStatus:   runIdle,
			Aggregation: Aggregation{Status: aggNotRun},
		},
	}
}

// Handler builds the API router. ctx bounds the background lookups
// started by the run endpoint, so stopping the server cancels them.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/ping", s.handlePing)
	r.Get("/api/state", s.handleState)
	r.Post("/api/upload_bom", s.handleUploadBOM)
	r.Post("/api/run", s.handleRun(ctx))
	r.Post("/api/aggregate", s.handleAggregate)
	r.Get("/api/export", s.handleExport)

	return r
}

// ListenAndServe runs the API server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.Int("port", s.cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}
