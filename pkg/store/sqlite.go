package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/logsift/logsift/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite through the pure-Go
// modernc.org/sqlite driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer; ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddScan stores a finished scan in a single transaction.
func (s *SQLiteStore) AddScan(rec *types.ScanRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var uniqueGroup sql.NullInt64
	if rec.UniqueGroup != nil {
		uniqueGroup = sql.NullInt64{Int64: int64(*rec.UniqueGroup), Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO scans (pattern, unique_group, started_at, duration_ns, lines, matches, retained, discarded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Pattern,
		uniqueGroup,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		int64(rec.Stats.Duration),
		rec.Stats.Lines,
		rec.Stats.Matches,
		rec.Stats.Retained,
		rec.Stats.Discarded,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading scan id: %w", err)
	}

	if err := insertSources(tx, id, rec.Stats.Sources); err != nil {
		return 0, err
	}
	if err := insertMatches(tx, id, rec.Matches); err != nil {
		return 0, err
	}
	if err := insertSourceErrors(tx, id, rec.Errors); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

func insertSources(tx *sql.Tx, scanID int64, sources []types.SourceStats) error {
	stmt, err := tx.Prepare(`
		INSERT INTO scan_sources (scan_id, seq, source, lines, skipped_lines, matches, bytes, fingerprint, duration_ns, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing source insert: %w", err)
	}
	defer stmt.Close()

	for i, src := range sources {
		_, err := stmt.Exec(scanID, i, src.Source, src.Lines, src.SkippedLines, src.Matches,
			src.Bytes, src.Fingerprint, int64(src.Duration), src.Failed)
		if err != nil {
			return fmt.Errorf("inserting source %s: %w", src.Source, err)
		}
	}
	return nil
}

func insertMatches(tx *sql.Tx, scanID int64, matches []*types.Match) error {
	stmt, err := tx.Prepare(`
		INSERT INTO matches (scan_id, seq, source, line, offset_start, offset_end, full_value, groups_json, named_groups_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing match insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range matches {
		// Serialize groups to JSON
		groupsJSON, err := json.Marshal(m.Groups)
		if err != nil {
			return fmt.Errorf("marshaling groups: %w", err)
		}
		var namedJSON sql.NullString
		if len(m.NamedGroups) > 0 {
			b, err := json.Marshal(m.NamedGroups)
			if err != nil {
				return fmt.Errorf("marshaling named groups: %w", err)
			}
			namedJSON = sql.NullString{String: string(b), Valid: true}
		}

		_, err = stmt.Exec(scanID, i, m.Source, m.Location.Line, m.Location.Offset.Start,
			m.Location.Offset.End, m.FullValue, string(groupsJSON), namedJSON)
		if err != nil {
			return fmt.Errorf("inserting match: %w", err)
		}
	}
	return nil
}

func insertSourceErrors(tx *sql.Tx, scanID int64, errs []*types.SourceError) error {
	for i, e := range errs {
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		_, err := tx.Exec(`
			INSERT INTO source_errors (scan_id, seq, source, line, message)
			VALUES (?, ?, ?, ?, ?)
		`, scanID, i, e.Source, e.Line, msg)
		if err != nil {
			return fmt.Errorf("inserting source error: %w", err)
		}
	}
	return nil
}

// GetScans lists stored scans, oldest first, without their matches.
func (s *SQLiteStore) GetScans() ([]*types.ScanRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, pattern, unique_group, started_at, duration_ns, lines, matches, retained, discarded
		FROM scans
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}

	var scans []*types.ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		scans = append(scans, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating scans: %w", err)
	}
	rows.Close()

	// One connection: per-source stats are read after the scan rows are closed.
	for _, rec := range scans {
		if rec.Stats.Sources, err = s.getSources(rec.ID); err != nil {
			return nil, err
		}
	}
	return scans, nil
}

// GetScan retrieves one scan without its matches.
func (s *SQLiteStore) GetScan(id int64) (*types.ScanRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, pattern, unique_group, started_at, duration_ns, lines, matches, retained, discarded
		FROM scans
		WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scan %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if rec.Stats.Sources, err = s.getSources(id); err != nil {
		return nil, err
	}
	return rec, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*types.ScanRecord, error) {
	var rec types.ScanRecord
	var uniqueGroup sql.NullInt64
	var startedAt string
	var duration int64

	err := row.Scan(&rec.ID, &rec.Pattern, &uniqueGroup, &startedAt, &duration,
		&rec.Stats.Lines, &rec.Stats.Matches, &rec.Stats.Retained, &rec.Stats.Discarded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning scan row: %w", err)
	}

	if uniqueGroup.Valid {
		g := int(uniqueGroup.Int64)
		rec.UniqueGroup = &g
	}
	rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	rec.Stats.Duration = time.Duration(duration)
	return &rec, nil
}

func (s *SQLiteStore) getSources(scanID int64) ([]types.SourceStats, error) {
	rows, err := s.db.Query(`
		SELECT source, lines, skipped_lines, matches, bytes, fingerprint, duration_ns, failed
		FROM scan_sources
		WHERE scan_id = ?
		ORDER BY seq
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []types.SourceStats
	for rows.Next() {
		var src types.SourceStats
		var fingerprint sql.NullString
		var duration int64
		err := rows.Scan(&src.Source, &src.Lines, &src.SkippedLines, &src.Matches,
			&src.Bytes, &fingerprint, &duration, &src.Failed)
		if err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		src.Fingerprint = fingerprint.String
		src.Duration = time.Duration(duration)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// GetMatches retrieves a scan's matches in their original order.
func (s *SQLiteStore) GetMatches(scanID int64) ([]*types.Match, error) {
	rows, err := s.db.Query(`
		SELECT source, line, offset_start, offset_end, full_value, groups_json, named_groups_json
		FROM matches
		WHERE scan_id = ?
		ORDER BY seq
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	matches := []*types.Match{}
	for rows.Next() {
		var m types.Match
		var groupsJSON string
		var namedJSON sql.NullString

		err := rows.Scan(
			&m.Source,
			&m.Location.Line,
			&m.Location.Offset.Start,
			&m.Location.Offset.End,
			&m.FullValue,
			&groupsJSON,
			&namedJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}

		// Unmarshal groups
		if err := json.Unmarshal([]byte(groupsJSON), &m.Groups); err != nil {
			return nil, fmt.Errorf("unmarshaling groups: %w", err)
		}
		if namedJSON.Valid {
			if err := json.Unmarshal([]byte(namedJSON.String), &m.NamedGroups); err != nil {
				return nil, fmt.Errorf("unmarshaling named groups: %w", err)
			}
		}

		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}

	return matches, nil
}

// GetSourceErrors retrieves a scan's source errors in source order.
func (s *SQLiteStore) GetSourceErrors(scanID int64) ([]*types.SourceError, error) {
	rows, err := s.db.Query(`
		SELECT source, line, message
		FROM source_errors
		WHERE scan_id = ?
		ORDER BY seq
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying source errors: %w", err)
	}
	defer rows.Close()

	var errs []*types.SourceError
	for rows.Next() {
		var e types.SourceError
		var msg string
		if err := rows.Scan(&e.Source, &e.Line, &msg); err != nil {
			return nil, fmt.Errorf("scanning source error: %w", err)
		}
		e.Err = errors.New(msg)
		errs = append(errs, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source errors: %w", err)
	}
	return errs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
