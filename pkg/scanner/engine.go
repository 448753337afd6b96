// Package scanner drives a scan: it reads every source line by line in
// batches, applies one compiled pattern to each line and collects the matches
// in an accumulator.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/logsift/logsift/pkg/accumulator"
	"github.com/logsift/logsift/pkg/matcher"
	"github.com/logsift/logsift/pkg/prefilter"
	"github.com/logsift/logsift/pkg/source"
	"github.com/logsift/logsift/pkg/types"
)

// Engine scans sources for one compiled pattern. An Engine may be reused for
// any number of scans; each scan starts from an empty accumulator.
type Engine struct {
	cfg         Config
	matcher     *matcher.Matcher
	prefilter   *prefilter.Prefilter
	uniqueGroup *int
}

// New validates cfg and compiles its pattern once.
//
// Errors are *types.ConfigurationError for invalid settings (including a
// unique group beyond the pattern's highest group number) and
// *types.PatternError when the pattern does not compile.
func New(cfg Config) (*Engine, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	m, err := matcher.New(cfg.Pattern, matcher.Options{
		IgnoreCase:   cfg.IgnoreCase,
		MatchTimeout: cfg.MatchTimeout,
	})
	if err != nil {
		return nil, err
	}

	uniqueGroup, err := resolveUniqueGroup(cfg, m)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:         cfg,
		matcher:     m,
		prefilter:   prefilter.New(cfg.Keywords, cfg.IgnoreCase),
		uniqueGroup: uniqueGroup,
	}, nil
}

// resolveUniqueGroup checks the unique group against the compiled pattern.
func resolveUniqueGroup(cfg Config, m *matcher.Matcher) (*int, error) {
	if cfg.UniqueGroupName != "" {
		n := m.GroupNumber(cfg.UniqueGroupName)
		if n < 0 {
			return nil, &types.ConfigurationError{
				Field:  "unique group",
				Reason: fmt.Sprintf("pattern has no group %q", cfg.UniqueGroupName),
			}
		}
		return &n, nil
	}

	if cfg.UniqueGroup == nil {
		return nil, nil
	}
	if *cfg.UniqueGroup > m.GroupCount() {
		return nil, &types.ConfigurationError{
			Field:  "unique group",
			Reason: fmt.Sprintf("index %d exceeds the pattern's %d capture group(s)", *cfg.UniqueGroup, m.GroupCount()),
		}
	}
	n := *cfg.UniqueGroup
	return &n, nil
}

// UniqueGroup returns the resolved uniqueness group, or nil in append mode.
func (e *Engine) UniqueGroup() *int {
	if e.uniqueGroup == nil {
		return nil
	}
	n := *e.uniqueGroup
	return &n
}

// Matcher returns the compiled pattern.
func (e *Engine) Matcher() *matcher.Matcher {
	return e.matcher
}

// Scan processes sources in order and returns the accumulated matches.
//
// A source that cannot be opened or read is recorded in Result.Errors and the
// scan continues with the next source, unless AbortOnError is set, in which
// case Scan returns (nil, *types.SourceError). Cancelling ctx aborts the scan
// with ctx.Err().
func (e *Engine) Scan(ctx context.Context, sources []source.Source) (*Result, error) {
	start := time.Now()

	acc, err := accumulator.New(e.uniqueGroup)
	if err != nil {
		return nil, err
	}

	e.cfg.Logger.Log("scanning %d source(s) for %q (mode %s, batch %d, workers %d)",
		len(sources), e.cfg.Pattern, acc.Mode(), e.cfg.BatchSize, e.cfg.Workers)

	result := &Result{}
	if e.cfg.Workers > 1 && len(sources) > 1 {
		err = e.scanParallel(ctx, sources, acc, result)
	} else {
		err = e.scanSequential(ctx, sources, acc, result)
	}
	if err != nil {
		return nil, err
	}

	result.Matches = acc.Results()
	result.Stats.Retained = acc.Len()
	result.Stats.Discarded = result.Stats.Matches - int64(acc.Len())
	result.Stats.Duration = time.Since(start)

	e.cfg.Logger.Log("scan complete: %d lines, %d matches, %d retained, %d source error(s) in %s",
		result.Stats.Lines, result.Stats.Matches, result.Stats.Retained, len(result.Errors), result.Stats.Duration)

	return result, nil
}

// scanSequential scans one source after another into acc.
func (e *Engine) scanSequential(ctx context.Context, sources []source.Source, acc *accumulator.Accumulator, result *Result) error {
	for _, src := range sources {
		stats, errs, err := e.scanSource(ctx, src, acc.Add)
		if err != nil {
			return err
		}
		if e.cfg.AbortOnError && len(errs) > 0 {
			return errs[0]
		}
		e.record(result, stats, errs)
	}
	return nil
}

// record appends one source's outcome to result.
func (e *Engine) record(result *Result, stats types.SourceStats, errs []*types.SourceError) {
	result.Errors = append(result.Errors, errs...)
	result.Stats.Sources = append(result.Stats.Sources, stats)
	result.Stats.Lines += stats.Lines
	result.Stats.Matches += stats.Matches

	for _, err := range errs {
		e.cfg.Logger.Log("[warn] %v", err)
	}
	e.cfg.Logger.Log("source %s: %d lines, %d matches in %s", stats.Source, stats.Lines, stats.Matches, stats.Duration)

	if e.cfg.Progress != nil {
		e.cfg.Progress(stats)
	}
}
