// Package pipeline orchestrates the per-part lookup: search, fetch,
// convert, extract, reconcile, assemble, with every phase tracked in the
// store.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brynleigh/reflow-cli/internal/assemble"
	"github.com/brynleigh/reflow-cli/internal/config"
	"github.com/brynleigh/reflow-cli/internal/doctext"
	"github.com/brynleigh/reflow-cli/internal/extract"
	"github.com/brynleigh/reflow-cli/internal/fetcher"
	"github.com/brynleigh/reflow-cli/internal/model"
	"github.com/brynleigh/reflow-cli/internal/reconcile"
	"github.com/brynleigh/reflow-cli/internal/store"
	"github.com/brynleigh/reflow-cli/pkg/websearch"
)

// Pipeline runs the datasheet lookup for part numbers.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	search     websearch.Client
	fetch      fetcher.Fetcher
	convert    doctext.Converter
	extractor  *extract.Engine
	reconciler *reconcile.Engine
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	searchClient websearch.Client,
	fetch fetcher.Fetcher,
	convert doctext.Converter,
	extractor *extract.Engine,
	reconciler *reconcile.Engine,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		search:     searchClient,
		fetch:      fetch,
		convert:    convert,
		extractor:  extractor,
		reconciler: reconciler,
	}
}

// Run executes the full lookup for a single part number. Phase failures
// map to terminal statuses on the result; the returned error covers only
// infrastructure failures (run creation, cancellation).
func (p *Pipeline) Run(ctx context.Context, mpn string, force bool) (*model.LookupResult, error) {
	mpn = model.NormalizeMPN(mpn)
	log := zap.L().With(zap.String("mpn", mpn))
	log.Info("pipeline: starting lookup")

	run, err := p.store.CreateRun(ctx, mpn)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	// Status writes use a detached context so a cancelled run still gets
	// its row marked failed.
	statusCtx := context.WithoutCancel(ctx)
	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(statusCtx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	var phases []model.PhaseResult
	var phasesMu sync.Mutex

	finish := func(result *model.LookupResult) *model.LookupResult {
		if result.Phases == nil {
			result.Phases = phases
		}
		if saveErr := p.store.UpdateRunResult(ctx, run.ID, result); saveErr != nil {
			log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
		}
		return result
	}

	// Phases must land on the result before it is cached, so a later
	// cache hit can still show how the lookup went.
	cacheAndFinish := func(result *model.LookupResult) *model.LookupResult {
		if result.Phases == nil {
			result.Phases = phases
		}
		return finish(p.cacheResult(ctx, result))
	}

	// NA parts are never searched.
	if model.IsNAPartNumber(mpn) {
		log.Info("pipeline: part number is NA")
		return finish(&model.LookupResult{MPN: mpn, Status: model.LookupMPNNA}), nil
	}

	// Cached results short-circuit the lookup unless forced.
	if !force {
		if cached, cacheErr := p.store.GetCachedLookup(ctx, mpn); cacheErr != nil {
			log.Warn("pipeline: cache read failed", zap.Error(cacheErr))
		} else if cached != nil {
			log.Info("pipeline: cache hit", zap.String("status", string(cached.Status)))
			cached.FromCache = true
			return finish(cached), nil
		}
	}

	result := &model.LookupResult{MPN: mpn}

	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) *model.PhaseResult {
		phase, phaseErr := p.store.CreatePhase(ctx, run.ID, name)
		if phaseErr != nil {
			log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
		}

		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{Name: name}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		if fnErr != nil {
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else if phaseResult.Status == "" {
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if phase != nil {
			_ = p.store.CompletePhase(ctx, phase.ID, phaseResult)
		}
		phasesMu.Lock()
		phases = append(phases, *phaseResult)
		phasesMu.Unlock()
		return phaseResult
	}

	// ===== Phase: search =====
	setStatus(model.RunStatusSearching)

	var docURLs []string
	searchPhase := trackPhase("search", func() (*model.PhaseResult, error) {
		results, searchErr := p.search.Search(ctx, fmt.Sprintf(p.cfg.Pipeline.QueryTemplate, mpn))
		if searchErr != nil {
			return nil, searchErr
		}
		docURLs = rankDocuments(results, p.cfg.Pipeline.MaxDocsPerPart)
		return &model.PhaseResult{
			Metadata: map[string]any{
				"results": len(results),
				"picked":  len(docURLs),
			},
		}, nil
	})
	if err := ctx.Err(); err != nil {
		setStatus(model.RunStatusFailed)
		return nil, eris.Wrap(err, "pipeline: cancelled")
	}
	if searchPhase.Status == model.PhaseStatusFailed {
		result.Status = model.LookupErrorBlocked
		result.Error = searchPhase.Error
		return cacheAndFinish(result), nil
	}
	if len(docURLs) == 0 {
		result.Status = model.LookupNotFound
		return cacheAndFinish(result), nil
	}

	// ===== Phase: fetch =====
	setStatus(model.RunStatusFetching)

	var raws []doctext.Raw
	trackPhase("fetch", func() (*model.PhaseResult, error) {
		fetched, fetchErrs := p.fetchDocuments(ctx, docURLs)
		raws = fetched
		meta := map[string]any{
			"fetched": len(fetched),
			"failed":  len(fetchErrs),
		}
		if len(fetched) == 0 && len(fetchErrs) > 0 {
			return &model.PhaseResult{Metadata: meta}, fetchErrs[0]
		}
		return &model.PhaseResult{Metadata: meta}, nil
	})
	if err := ctx.Err(); err != nil {
		setStatus(model.RunStatusFailed)
		return nil, eris.Wrap(err, "pipeline: cancelled")
	}
	if len(raws) == 0 {
		result.Status = model.LookupErrorBlocked
		result.Error = lastPhaseError(phases)
		return cacheAndFinish(result), nil
	}

	// ===== Phase: convert =====
	var docs []model.Document
	trackPhase("convert", func() (*model.PhaseResult, error) {
		converted, convertErrs := p.convertDocuments(ctx, raws)
		docs = converted
		meta := map[string]any{
			"converted": len(converted),
			"failed":    len(convertErrs),
		}
		if len(converted) == 0 && len(convertErrs) > 0 {
			return &model.PhaseResult{Metadata: meta}, convertErrs[0]
		}
		return &model.PhaseResult{Metadata: meta}, nil
	})
	if err := ctx.Err(); err != nil {
		setStatus(model.RunStatusFailed)
		return nil, eris.Wrap(err, "pipeline: cancelled")
	}
	if len(docs) == 0 {
		result.Status = model.LookupErrorBlocked
		result.Error = lastPhaseError(phases)
		return cacheAndFinish(result), nil
	}

	result.Evidence = findEvidence(docs)

	// ===== Phase: extract =====
	setStatus(model.RunStatusExtracting)

	var candidates []model.CandidateMeasurement
	trackPhase("extract", func() (*model.PhaseResult, error) {
		var mu sync.Mutex
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.docLimit())
		for _, doc := range docs {
			g.Go(func() error {
				if gCtx.Err() != nil {
					return nil
				}
				cands := p.extractor.Extract(doc.Text, doc.URL)
				mu.Lock()
				candidates = append(candidates, cands...)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		return &model.PhaseResult{
			Metadata: map[string]any{
				"candidates": len(candidates),
				"documents":  len(docs),
			},
		}, nil
	})

	// ===== Phase: reconcile =====
	setStatus(model.RunStatusReconciling)

	var values map[model.Field]model.FieldValue
	reconcilePhase := trackPhase("reconcile", func() (*model.PhaseResult, error) {
		boundsBefore := p.reconciler.Stats().OutOfBounds
		vals, recErr := p.reconciler.Reconcile(mpn, candidates)
		if recErr != nil {
			return nil, recErr
		}
		values = vals
		resolved, conflicting := 0, 0
		for _, fv := range vals {
			switch fv.Status {
			case model.FieldResolved:
				resolved++
			case model.FieldConflicting:
				conflicting++
			}
		}
		return &model.PhaseResult{
			Metadata: map[string]any{
				"resolved":      resolved,
				"conflicting":   conflicting,
				"out_of_bounds": p.reconciler.Stats().OutOfBounds - boundsBefore,
			},
		}, nil
	})
	if reconcilePhase.Status == model.PhaseStatusFailed {
		result.Status = model.LookupErrorBlocked
		result.Error = reconcilePhase.Error
		return cacheAndFinish(result), nil
	}

	// ===== Phase: assemble =====
	trackPhase("assemble", func() (*model.PhaseResult, error) {
		rec, asmErr := assemble.Assemble(mpn, values, candidateURLs(candidates))
		if asmErr != nil {
			return nil, asmErr
		}
		result.Profile = &rec
		if saveErr := p.store.SaveProfile(ctx, &rec); saveErr != nil {
			log.Warn("pipeline: failed to save profile", zap.Error(saveErr))
		}
		return &model.PhaseResult{
			Metadata: map[string]any{
				"sources": len(rec.SourceURLs),
			},
		}, nil
	})

	if result.Profile != nil && result.Profile.Resolved() {
		result.Status = model.LookupOK
	} else {
		result.Status = model.LookupNoReflowInfo
	}

	log.Info("pipeline: lookup complete",
		zap.String("run_id", run.ID),
		zap.String("status", string(result.Status)),
		zap.Int("candidates", len(candidates)),
	)

	return cacheAndFinish(result), nil
}

// cacheResult stores a terminal result in the lookup cache. Failures are
// cached too so reruns do not hammer the same dead URLs.
func (p *Pipeline) cacheResult(ctx context.Context, result *model.LookupResult) *model.LookupResult {
	ttl := time.Duration(p.cfg.Pipeline.CacheTTLHours) * time.Hour
	if ttl <= 0 {
		return result
	}
	if err := p.store.SetCachedLookup(ctx, result.MPN, result, ttl); err != nil {
		zap.L().Warn("pipeline: cache write failed", zap.String("mpn", result.MPN), zap.Error(err))
	}
	return result
}

func (p *Pipeline) docLimit() int {
	if p.cfg.Pipeline.MaxConcurrentDocs > 0 {
		return p.cfg.Pipeline.MaxConcurrentDocs
	}
	return 1
}

// lastPhaseError returns the error text of the most recent failed phase.
func lastPhaseError(phases []model.PhaseResult) string {
	for i := len(phases) - 1; i >= 0; i-- {
		if phases[i].Error != "" {
			return phases[i].Error
		}
	}
	return ""
}

// candidateURLs collects the distinct source URLs behind the candidates.
func candidateURLs(cands []model.CandidateMeasurement) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, c := range cands {
		if c.Source.URL == "" {
			continue
		}
		if _, ok := seen[c.Source.URL]; ok {
			continue
		}
		seen[c.Source.URL] = struct{}{}
		urls = append(urls, c.Source.URL)
	}
	return urls
}
