package types

import "time"

// SourceStats holds diagnostics for one scanned source.
// None of these values influence the matches a scan returns.
type SourceStats struct {
	Source       string        `json:"source"`
	Lines        int64         `json:"lines"`
	SkippedLines int64         `json:"skipped_lines"` // lines rejected by the keyword prefilter
	Matches      int64         `json:"matches"`       // matches found, before de-duplication
	Bytes        int64         `json:"bytes"`
	Fingerprint  string        `json:"fingerprint"` // xxhash64 of the scanned text, hex
	Duration     time.Duration `json:"duration"`
	Failed       bool          `json:"failed"`
}

// ScanStats aggregates diagnostics for a whole scan.
type ScanStats struct {
	Sources   []SourceStats `json:"sources"`
	Lines     int64         `json:"lines"`
	Matches   int64         `json:"matches"`
	Retained  int           `json:"retained"`
	Discarded int64         `json:"discarded"` // duplicates dropped in uniqueness mode
	Duration  time.Duration `json:"duration"`
}

// ScanRecord is a finished scan as persisted by a store.
type ScanRecord struct {
	ID          int64          `json:"id"`
	Pattern     string         `json:"pattern"`
	UniqueGroup *int           `json:"unique_group,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	Stats       ScanStats      `json:"stats"`
	Matches     []*Match       `json:"matches,omitempty"`
	Errors      []*SourceError `json:"-"`
}
