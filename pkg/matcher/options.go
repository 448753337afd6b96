package matcher

import "time"

// DefaultMatchTimeout bounds regex work on one line to guard against
// catastrophic backtracking in Perl-mode patterns.
const DefaultMatchTimeout = 5 * time.Second

// Options contains configuration for matcher behavior
type Options struct {
	// IgnoreCase matches letters case-insensitively.
	IgnoreCase bool

	// MatchTimeout bounds each regex search, and no new search starts on a
	// line that has already run past it, so one line takes at most about twice
	// this long. Zero selects DefaultMatchTimeout.
	MatchTimeout time.Duration
}

// DefaultOptions returns the default options for the matcher
func DefaultOptions() Options {
	return Options{
		MatchTimeout: DefaultMatchTimeout,
	}
}
