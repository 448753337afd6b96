package scanner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/logsift/logsift/pkg/accumulator"
	"github.com/logsift/logsift/pkg/source"
	"github.com/logsift/logsift/pkg/types"
)

// sourceResult is what one worker produced for one source.
type sourceResult struct {
	acc   *accumulator.Accumulator
	stats types.SourceStats
	errs  []*types.SourceError
}

// scanParallel reads up to Workers sources at a time. Each source fills its
// own accumulator, which in unique mode already drops repeats within that
// source. The per-source results are merged into acc in source list order once
// every source is done, so the result is the same as a sequential scan.
func (e *Engine) scanParallel(ctx context.Context, sources []source.Source, acc *accumulator.Accumulator, result *Result) error {
	results := make([]sourceResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i, src := range sources {
		g.Go(func() error {
			r, err := e.collectSource(gctx, src)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// errgroup cancels gctx only on error; a cancelled parent must still win.
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, r := range results {
		if e.cfg.AbortOnError && len(r.errs) > 0 {
			return r.errs[0]
		}
		acc.Add(r.acc.Results()...)
		e.record(result, r.stats, r.errs)
	}
	return nil
}

// collectSource scans src into a fresh accumulator in the engine's mode.
func (e *Engine) collectSource(ctx context.Context, src source.Source) (sourceResult, error) {
	acc, err := accumulator.New(e.uniqueGroup)
	if err != nil {
		return sourceResult{}, err
	}
	stats, errs, err := e.scanSource(ctx, src, acc.Add)
	if err != nil {
		return sourceResult{}, err
	}
	return sourceResult{acc: acc, stats: stats, errs: errs}, nil
}
