// Package store persists finished scans so they can be reported on later.
package store

import (
	"errors"
	"fmt"

	"github.com/logsift/logsift/pkg/types"
)

// MemoryPath selects the in-memory store.
const MemoryPath = ":memory:"

// ErrNotFound is returned when a scan ID does not exist.
var ErrNotFound = errors.New("scan not found")

// Store provides persistence for scan results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends.
type Store interface {
	// AddScan stores a finished scan with its matches, per-source stats and
	// source errors, and returns the assigned scan ID.
	AddScan(rec *types.ScanRecord) (int64, error)

	// GetScans lists stored scans, oldest first, without their matches.
	GetScans() ([]*types.ScanRecord, error)

	// GetScan retrieves one scan without its matches.
	GetScan(id int64) (*types.ScanRecord, error)

	// GetMatches retrieves a scan's matches in their original order.
	GetMatches(scanID int64) ([]*types.Match, error)

	// GetSourceErrors retrieves a scan's source errors in source order.
	GetSourceErrors(scanID int64) ([]*types.SourceError, error)

	// Close closes the database connection.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a Store: MemoryStore for ":memory:", SQLite otherwise.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == MemoryPath {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}
