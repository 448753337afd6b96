package explore

import (
	"errors"
	"fmt"
	"os"

	"github.com/logsift/logsift/pkg/store"
	"github.com/logsift/logsift/pkg/types"
)

// exploreData holds the scan being browsed.
type exploreData struct {
	store store.Store
	scan  *types.ScanRecord
	group int // key group, -1 when the scan kept every match
	rows  []*valueRow
}

// loadData opens a scan database and loads one scan with its matches.
// scanID 0 selects the most recent scan.
func loadData(dbPath string, scanID int64) (*exploreData, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %s", dbPath)
	}

	s, err := store.New(store.Config{Path: dbPath})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	data, err := loadScan(s, scanID)
	if err != nil {
		s.Close()
		return nil, err
	}
	data.store = s
	return data, nil
}

func loadScan(s store.Store, scanID int64) (*exploreData, error) {
	if scanID == 0 {
		scans, err := s.GetScans()
		if err != nil {
			return nil, fmt.Errorf("listing scans: %w", err)
		}
		if len(scans) == 0 {
			return nil, errors.New("no scans stored")
		}
		scanID = scans[len(scans)-1].ID
	}

	scan, err := s.GetScan(scanID)
	if err != nil {
		return nil, fmt.Errorf("loading scan %d: %w", scanID, err)
	}
	if scan.Matches, err = s.GetMatches(scanID); err != nil {
		return nil, fmt.Errorf("loading matches: %w", err)
	}
	if scan.Errors, err = s.GetSourceErrors(scanID); err != nil {
		return nil, fmt.Errorf("loading source errors: %w", err)
	}

	group := -1
	if scan.UniqueGroup != nil {
		group = *scan.UniqueGroup
	}

	return &exploreData{
		scan:  scan,
		group: group,
		rows:  buildValueRows(scan.Matches, group),
	}, nil
}

// buildValueRows groups matches by key value in first-seen order. The key is
// the given capture group, or the full match when group is negative. Matches
// whose key group did not participate share one row.
func buildValueRows(matches []*types.Match, group int) []*valueRow {
	type rowKey struct {
		value   string
		matched bool
	}

	var rows []*valueRow
	index := make(map[rowKey]*valueRow)
	for i, m := range matches {
		value, matched := m.FullValue, true
		if group >= 0 {
			value, matched = m.Group(group)
		}

		k := rowKey{value: value, matched: matched}
		row, ok := index[k]
		if !ok {
			row = &valueRow{Value: value, Unmatched: !matched, First: i}
			index[k] = row
			rows = append(rows, row)
		}
		row.Matches = append(row.Matches, m)
		row.addSource(m.Source)
	}
	return rows
}

// close closes the underlying store.
func (d *exploreData) close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
