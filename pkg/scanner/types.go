package scanner

import (
	"errors"

	"github.com/logsift/logsift/pkg/types"
)

// Result is the outcome of one scan.
type Result struct {
	// Matches in first-seen order: source list order, then line order, then
	// left to right within a line.
	Matches []*types.Match `json:"matches"`

	// Errors lists per-source failures in source list order. A failed source
	// still contributes the matches found before it failed.
	Errors []*types.SourceError `json:"-"`

	// Stats holds diagnostics. They never influence Matches.
	Stats types.ScanStats `json:"stats"`
}

// Err joins all source errors, or returns nil when every source succeeded.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// FailedSources returns the identifiers of sources with at least one error,
// in source list order, without repeats.
func (r *Result) FailedSources() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range r.Errors {
		if !seen[e.Source] {
			seen[e.Source] = true
			out = append(out, e.Source)
		}
	}
	return out
}

// DebugLogger receives verbose diagnostics
type DebugLogger interface {
	Log(format string, args ...interface{})
}

// NoopLogger is a no-op logger
type NoopLogger struct{}

func (NoopLogger) Log(format string, args ...interface{}) {}
