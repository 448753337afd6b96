package scanner

import (
	"fmt"
	"time"

	"github.com/logsift/logsift/pkg/types"
)

const (
	// DefaultBatchSize is the number of lines read before matching them.
	// It only tunes I/O amortization; it never changes results.
	DefaultBatchSize = 1000

	// DefaultMaxLineBytes is the longest line a source may contain.
	DefaultMaxLineBytes = 4 * 1024 * 1024
)

// Config describes one scan. It must not be modified once passed to New.
type Config struct {
	// Pattern is the regular expression to search for.
	Pattern string

	// UniqueGroup selects uniqueness mode keyed on this capture group.
	// nil keeps every match.
	UniqueGroup *int

	// UniqueGroupName selects uniqueness mode by named (or numeric) group.
	// It is resolved after the pattern compiles and cannot be combined with
	// UniqueGroup.
	UniqueGroupName string

	// BatchSize is the number of lines per batch (0 = DefaultBatchSize).
	BatchSize int

	// Workers is the number of sources read concurrently (0 or 1 = sequential).
	// Results are identical for any value.
	Workers int

	// AbortOnError stops the scan at the first source error and returns it
	// instead of a partial result.
	AbortOnError bool

	// Keywords enables the Aho-Corasick line prefilter. Every match of
	// Pattern must contain at least one keyword.
	Keywords []string

	// IgnoreCase matches case-insensitively (pattern and keywords).
	IgnoreCase bool

	// MatchTimeout bounds each regex search and the searches started on one line
	// (0 = matcher default).
	MatchTimeout time.Duration

	// MaxLineBytes is the longest accepted line (0 = DefaultMaxLineBytes).
	// A longer line fails its source.
	MaxLineBytes int

	// Progress is called after each source with its diagnostics, in source
	// list order, from the goroutine that called Scan.
	Progress func(types.SourceStats)

	// Logger receives verbose diagnostics (nil = NoopLogger).
	Logger DebugLogger
}

// withDefaults validates the settings that do not depend on the pattern and
// fills in defaults.
func (c Config) withDefaults() (Config, error) {
	if c.BatchSize < 0 {
		return c, &types.ConfigurationError{Field: "batch size", Reason: fmt.Sprintf("%d is negative", c.BatchSize)}
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}

	if c.Workers < 0 {
		return c, &types.ConfigurationError{Field: "workers", Reason: fmt.Sprintf("%d is negative", c.Workers)}
	}
	if c.Workers == 0 {
		c.Workers = 1
	}

	if c.MaxLineBytes < 0 {
		return c, &types.ConfigurationError{Field: "max line bytes", Reason: fmt.Sprintf("%d is negative", c.MaxLineBytes)}
	}
	if c.MaxLineBytes == 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}

	if c.UniqueGroup != nil && c.UniqueGroupName != "" {
		return c, &types.ConfigurationError{Field: "unique group", Reason: "set both by index and by name"}
	}
	if c.UniqueGroup != nil && *c.UniqueGroup < 0 {
		return c, &types.ConfigurationError{Field: "unique group", Reason: fmt.Sprintf("index %d is negative", *c.UniqueGroup)}
	}

	if c.Logger == nil {
		c.Logger = NoopLogger{}
	}

	return c, nil
}
