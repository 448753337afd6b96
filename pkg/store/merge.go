package store

import (
	"fmt"
	"os"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	ScansMerged      int
	MatchesMerged    int
	SourcesProcessed int
}

// Merge copies every scan of the source databases into the destination.
// Scans get new IDs in the destination, in source database order.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	dest, err := NewSQLite(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer dest.Close()

	stats := &MergeStats{}

	for _, sourcePath := range cfg.SourcePaths {
		if err := mergeFrom(dest, sourcePath, stats); err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies all scans from one database into dest.
func mergeFrom(dest Store, sourcePath string, stats *MergeStats) error {
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("database not found: %w", err)
	}
	src, err := NewSQLite(sourcePath)
	if err != nil {
		return fmt.Errorf("opening source database: %w", err)
	}
	defer src.Close()

	scans, err := src.GetScans()
	if err != nil {
		return err
	}

	for _, rec := range scans {
		if rec.Matches, err = src.GetMatches(rec.ID); err != nil {
			return err
		}
		if rec.Errors, err = src.GetSourceErrors(rec.ID); err != nil {
			return err
		}
		if _, err := dest.AddScan(rec); err != nil {
			return err
		}
		stats.ScansMerged++
		stats.MatchesMerged += len(rec.Matches)
	}
	return nil
}
