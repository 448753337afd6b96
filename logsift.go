// Package logsift extracts regular-expression matches from line-oriented text
// sources, optionally keeping only the first match for each distinct value of
// one capture group.
//
// # Basic Usage
//
// Collect every match of a pattern in a log file:
//
//	scanner, err := logsift.NewScanner(`ip=(\d+\.\d+\.\d+\.\d+)`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := scanner.ScanFiles(ctx, "/var/log/app.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, m := range result.Matches {
//	    fmt.Printf("%s:%d %s\n", m.Source, m.Location.Line, m.FullValue)
//	}
//
// # Unique Values
//
// Keep only the first match for each distinct address:
//
//	scanner, err := logsift.NewScanner(`ip=(\d+\.\d+\.\d+\.\d+)`, logsift.WithUniqueGroup(1))
//
// Sources that cannot be read do not stop the scan; they are reported in
// Result.Errors next to the matches found elsewhere.
package logsift

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/logsift/logsift/pkg/preset"
	"github.com/logsift/logsift/pkg/scanner"
	"github.com/logsift/logsift/pkg/source"
	"github.com/logsift/logsift/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/logsift/logsift" without subpackages.
type (
	// Match is a single occurrence of the pattern on one line.
	Match = types.Match

	// Group is one capture group value of a match.
	Group = types.Group

	// Location describes where a match was found within a source.
	Location = types.Location

	// Result holds the matches, source errors and diagnostics of a scan.
	Result = scanner.Result

	// Source is anything that can be read line by line.
	Source = source.Source

	// Preset is a named pattern with its default uniqueness group.
	Preset = types.Preset

	// SourceError reports a source that could not be opened or read.
	SourceError = types.SourceError

	// PatternError reports a pattern that failed to compile.
	PatternError = types.PatternError

	// ConfigurationError reports an invalid setting.
	ConfigurationError = types.ConfigurationError
)

// Scanner scans sources for one compiled pattern. It is safe for concurrent
// use; every scan starts from an empty result.
type Scanner struct {
	engine *scanner.Engine
	config scanner.Config
}

// Option configures a Scanner.
type Option func(*scanner.Config)

// WithUniqueGroup keeps only the first match for each distinct value of
// capture group n (0 is the whole match).
func WithUniqueGroup(n int) Option {
	return func(c *scanner.Config) {
		c.UniqueGroup = &n
		c.UniqueGroupName = ""
	}
}

// WithUniqueGroupName is WithUniqueGroup for a named capture group.
func WithUniqueGroupName(name string) Option {
	return func(c *scanner.Config) {
		c.UniqueGroup = nil
		c.UniqueGroupName = name
	}
}

// WithBatchSize sets how many lines are read before they are matched.
// Default is 1000. It does not change results.
func WithBatchSize(n int) Option {
	return func(c *scanner.Config) {
		c.BatchSize = n
	}
}

// WithWorkers reads up to n sources concurrently. Results are identical to a
// sequential scan.
func WithWorkers(n int) Option {
	return func(c *scanner.Config) {
		c.Workers = n
	}
}

// WithAbortOnError makes a scan fail at the first unreadable source instead of
// reporting it in Result.Errors.
func WithAbortOnError() Option {
	return func(c *scanner.Config) {
		c.AbortOnError = true
	}
}

// WithKeywords skips lines containing none of keywords without running the
// regex. Every match of the pattern must contain at least one keyword.
func WithKeywords(keywords ...string) Option {
	return func(c *scanner.Config) {
		c.Keywords = append(c.Keywords, keywords...)
	}
}

// WithIgnoreCase matches case-insensitively.
func WithIgnoreCase() Option {
	return func(c *scanner.Config) {
		c.IgnoreCase = true
	}
}

// WithMatchTimeout bounds the time spent matching a single line.
func WithMatchTimeout(d time.Duration) Option {
	return func(c *scanner.Config) {
		c.MatchTimeout = d
	}
}

// WithProgress calls fn after each source, in source order.
func WithProgress(fn func(types.SourceStats)) Option {
	return func(c *scanner.Config) {
		c.Progress = fn
	}
}

// WithLogger sends verbose diagnostics to logger.
func WithLogger(logger scanner.DebugLogger) Option {
	return func(c *scanner.Config) {
		c.Logger = logger
	}
}

// NewScanner compiles pattern and validates the options.
//
// Example:
//
//	// Every match
//	scanner, err := logsift.NewScanner(`ERROR (\w+)`)
//
//	// First match per error code
//	scanner, err := logsift.NewScanner(`ERROR (\w+)`, logsift.WithUniqueGroup(1))
func NewScanner(pattern string, opts ...Option) (*Scanner, error) {
	config := scanner.Config{Pattern: pattern}
	for _, opt := range opts {
		opt(&config)
	}

	engine, err := scanner.New(config)
	if err != nil {
		return nil, err
	}
	return &Scanner{engine: engine, config: config}, nil
}

// NewPresetScanner creates a scanner from a builtin preset. Options are
// applied after the preset's own settings and may override them.
func NewPresetScanner(id string, opts ...Option) (*Scanner, error) {
	presets, err := LoadBuiltinPresets()
	if err != nil {
		return nil, err
	}
	p, err := preset.Find(presets, id)
	if err != nil {
		return nil, err
	}

	base := []Option{WithKeywords(p.Keywords...)}
	if p.UniqueGroup != nil {
		base = append(base, WithUniqueGroup(*p.UniqueGroup))
	}
	return NewScanner(p.Pattern, append(base, opts...)...)
}

// Scan processes sources in order.
func (s *Scanner) Scan(ctx context.Context, sources ...Source) (*Result, error) {
	return s.engine.Scan(ctx, sources)
}

// ScanFiles scans files in the given order. "-" reads standard input.
// Compressed (gzip, zstd) and PDF files are decoded transparently.
func (s *Scanner) ScanFiles(ctx context.Context, paths ...string) (*Result, error) {
	return s.engine.Scan(ctx, source.Files(paths))
}

// ScanReader scans a single stream, identified by id in matches.
func (s *Scanner) ScanReader(ctx context.Context, id string, r io.Reader) (*Result, error) {
	return s.engine.Scan(ctx, []source.Source{source.Reader(id, r)})
}

// ScanString scans in-memory text and returns its matches.
//
// Example:
//
//	matches, err := scanner.ScanString("ip=10.0.0.1 ok\nip=10.0.0.1 dup\n")
func (s *Scanner) ScanString(content string) ([]*Match, error) {
	result, err := s.engine.Scan(context.Background(), []source.Source{source.Text("string", content)})
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return result.Matches, err
	}
	return result.Matches, nil
}

// Pattern returns the compiled pattern.
func (s *Scanner) Pattern() string {
	return s.config.Pattern
}

// UniqueGroup returns the resolved uniqueness group, or nil when every match
// is kept.
func (s *Scanner) UniqueGroup() *int {
	return s.engine.UniqueGroup()
}

// GroupCount returns the highest capture group number of the pattern.
func (s *Scanner) GroupCount() int {
	return s.engine.Matcher().GroupCount()
}

// LoadBuiltinPresets returns all builtin presets, sorted by ID.
func LoadBuiltinPresets() ([]*Preset, error) {
	presets, err := preset.NewLoader().LoadBuiltin()
	if err != nil {
		return nil, fmt.Errorf("loading builtin presets: %w", err)
	}
	return presets, nil
}

// LoadPresetsFromFile loads presets from a YAML file.
func LoadPresetsFromFile(path string) ([]*Preset, error) {
	return preset.NewLoader().LoadFile(path)
}
