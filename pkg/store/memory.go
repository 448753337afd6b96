package store

import (
	"fmt"
	"sync"

	"github.com/logsift/logsift/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
// Records are copied on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	scans  map[int64]*types.ScanRecord
	order  []int64
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		scans:  make(map[int64]*types.ScanRecord),
	}
}

// AddScan stores a finished scan.
func (m *MemoryStore) AddScan(rec *types.ScanRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	stored := *rec
	stored.ID = id
	stored.Stats.Sources = append([]types.SourceStats(nil), rec.Stats.Sources...)
	stored.Matches = append([]*types.Match(nil), rec.Matches...)
	stored.Errors = append([]*types.SourceError(nil), rec.Errors...)
	if rec.UniqueGroup != nil {
		g := *rec.UniqueGroup
		stored.UniqueGroup = &g
	}

	m.scans[id] = &stored
	m.order = append(m.order, id)
	return id, nil
}

// GetScans lists stored scans, oldest first, without their matches.
func (m *MemoryStore) GetScans() ([]*types.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.ScanRecord, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, summary(m.scans[id]))
	}
	return result, nil
}

// GetScan retrieves one scan without its matches.
func (m *MemoryStore) GetScan(id int64) (*types.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.scans[id]
	if !ok {
		return nil, fmt.Errorf("scan %d: %w", id, ErrNotFound)
	}
	return summary(rec), nil
}

// GetMatches retrieves a scan's matches in their original order.
func (m *MemoryStore) GetMatches(scanID int64) ([]*types.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.scans[scanID]
	if !ok {
		return []*types.Match{}, nil
	}

	// Return a copy to avoid external modifications
	result := make([]*types.Match, len(rec.Matches))
	copy(result, rec.Matches)
	return result, nil
}

// GetSourceErrors retrieves a scan's source errors in source order.
func (m *MemoryStore) GetSourceErrors(scanID int64) ([]*types.SourceError, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.scans[scanID]
	if !ok {
		return nil, nil
	}
	return append([]*types.SourceError(nil), rec.Errors...), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// summary copies a record without matches or errors.
func summary(rec *types.ScanRecord) *types.ScanRecord {
	out := *rec
	out.Matches = nil
	out.Errors = nil
	out.Stats.Sources = append([]types.SourceStats(nil), rec.Stats.Sources...)
	return &out
}
