package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist and refuses
// databases written by a newer schema.
func CreateSchema(db *sql.DB) error {
	// Create schema_version table
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	// Create main tables
	if err := createScansTable(db); err != nil {
		return fmt.Errorf("creating scans table: %w", err)
	}

	if err := createSourcesTable(db); err != nil {
		return fmt.Errorf("creating scan_sources table: %w", err)
	}

	if err := createMatchesTable(db); err != nil {
		return fmt.Errorf("creating matches table: %w", err)
	}

	if err := createSourceErrorsTable(db); err != nil {
		return fmt.Errorf("creating source_errors table: %w", err)
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	return nil
}

func createScansTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pattern TEXT NOT NULL,
			unique_group INTEGER,
			started_at TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			lines INTEGER NOT NULL,
			matches INTEGER NOT NULL,
			retained INTEGER NOT NULL,
			discarded INTEGER NOT NULL
		)
	`)
	return err
}

func createSourcesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_sources (
			scan_id INTEGER NOT NULL REFERENCES scans(id),
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			lines INTEGER NOT NULL,
			skipped_lines INTEGER NOT NULL,
			matches INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			fingerprint TEXT,
			duration_ns INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			PRIMARY KEY (scan_id, seq)
		)
	`)
	return err
}

func createMatchesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS matches (
			scan_id INTEGER NOT NULL REFERENCES scans(id),
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			line INTEGER NOT NULL,
			offset_start INTEGER NOT NULL,
			offset_end INTEGER NOT NULL,
			full_value TEXT NOT NULL,
			groups_json TEXT NOT NULL,
			named_groups_json TEXT,
			PRIMARY KEY (scan_id, seq)
		)
	`)
	return err
}

func createSourceErrorsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS source_errors (
			scan_id INTEGER NOT NULL REFERENCES scans(id),
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			line INTEGER NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (scan_id, seq)
		)
	`)
	return err
}
