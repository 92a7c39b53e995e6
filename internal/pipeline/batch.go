package pipeline

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brynleigh/reflow-cli/internal/model"
)

// RunBatch looks up every part number with bounded concurrency. Results
// come back in input order. A part whose lookup fails outright is
// recorded as error_or_blocked so one bad part never sinks the batch.
func (p *Pipeline) RunBatch(ctx context.Context, mpns []string, force bool) []model.LookupResult {
	log := zap.L().With(zap.Int("parts", len(mpns)))
	log.Info("pipeline: batch start", zap.Int("concurrency", p.partLimit()))

	results := make([]model.LookupResult, len(mpns))
	var failed atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.partLimit())
	for i, mpn := range mpns {
		g.Go(func() error {
			res, err := p.Run(gCtx, mpn, force)
			if err != nil {
				failed.Add(1)
				zap.L().Error("pipeline: lookup failed", zap.String("mpn", mpn), zap.Error(err))
				results[i] = model.LookupResult{
					MPN:    model.NormalizeMPN(mpn),
					Status: model.LookupErrorBlocked,
					Error:  err.Error(),
				}
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait()

	log.Info("pipeline: batch complete", zap.Int64("failed", failed.Load()))
	return results
}

func (p *Pipeline) partLimit() int {
	if p.cfg.Pipeline.MaxConcurrentParts > 0 {
		return p.cfg.Pipeline.MaxConcurrentParts
	}
	return 1
}
