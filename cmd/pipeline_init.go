package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brynleigh/reflow-cli/internal/doctext"
	"github.com/brynleigh/reflow-cli/internal/extract"
	"github.com/brynleigh/reflow-cli/internal/fetcher"
	"github.com/brynleigh/reflow-cli/internal/pipeline"
	"github.com/brynleigh/reflow-cli/internal/reconcile"
	"github.com/brynleigh/reflow-cli/internal/store"
	"github.com/brynleigh/reflow-cli/internal/unitpattern"
	"github.com/brynleigh/reflow-cli/pkg/websearch"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "reflow.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// pipelineEnv holds the initialized store and pipeline shared by the
// run/bomrun/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config for the given command mode, sets up
// the store and document clients, and builds the Pipeline. Callers should
// defer env.Close(). offline swaps the network clients for canned stubs.
func initPipeline(ctx context.Context, mode string, offline bool) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	search, fetch, converter, err := initClients(offline)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	eng, err := initExtractEngine()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	rec := reconcile.New(reconcile.Config{
		Tolerance:      cfg.Reconcile.Tolerance,
		ConflictMargin: cfg.Reconcile.ConflictMargin,
	})

	p := pipeline.New(cfg, st, search, fetch, converter, eng, rec)
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

// initClients builds the search, fetch, and conversion clients. Offline
// mode substitutes canned stubs so lookups run without network access.
func initClients(offline bool) (websearch.Client, fetcher.Fetcher, doctext.Converter, error) {
	if offline {
		zap.L().Info("offline mode: using canned document stubs")
		return &pipeline.StubSearchClient{}, &pipeline.StubFetcher{}, &pipeline.StubConverter{}, nil
	}

	searchOpts := []websearch.Option{
		websearch.WithBaseURL(cfg.Search.BaseURL),
		websearch.WithMaxResults(cfg.Search.MaxResults),
		websearch.WithRetries(cfg.Search.Retries),
	}
	if cfg.Search.TimeoutSecs > 0 {
		searchOpts = append(searchOpts, websearch.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Search.TimeoutSecs) * time.Second,
		}))
	}
	search := websearch.NewClient(cfg.Search.Key, searchOpts...)

	fetch := &fetcher.Dispatch{
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.Retries,
			MaxBytes:   cfg.Fetch.MaxBytes,
			RatePerSec: cfg.Fetch.RatePerSec,
			Burst:      cfg.Fetch.Burst,
		}),
		FTP: fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout:  time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxBytes: cfg.Fetch.MaxBytes,
		}),
	}

	converter, err := doctext.New(cfg.Doctext)
	if err != nil {
		return nil, nil, nil, err
	}

	return search, fetch, converter, nil
}

// initExtractEngine builds the extraction engine, layering the optional
// pattern file's quantity descriptors and anchor overrides over the
// built-ins.
func initExtractEngine() (*extract.Engine, error) {
	lib := unitpattern.New()
	extractCfg := extract.Config{
		WindowBefore: cfg.Extract.WindowBefore,
		WindowAfter:  cfg.Extract.WindowAfter,
	}

	if cfg.Extract.PatternFile != "" {
		if err := lib.LoadFile(cfg.Extract.PatternFile); err != nil {
			return nil, err
		}
		anchors, err := extract.LoadAnchors(cfg.Extract.PatternFile)
		if err != nil {
			return nil, err
		}
		extractCfg.Anchors = anchors
		zap.L().Info("pattern file loaded", zap.String("path", cfg.Extract.PatternFile))
	}

	return extract.New(lib, extractCfg)
}
