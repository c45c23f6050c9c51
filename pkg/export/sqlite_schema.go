// Package export renders and persists timeline views.
//
// This file implements the SQLite schema used by the exporter. The events
// table is shared with the datasource reader, so an exported database can be
// loaded back as a content source.
package export

import (
	"database/sql"
	"fmt"

	"github.com/vanderheijden86/chronarc/internal/datasource"
)

// Schema version for tracking migrations
const SchemaVersion = 1

// CreateSchema creates all tables and indexes in the database.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(datasource.Schema); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	if err := createViewTables(db); err != nil {
		return fmt.Errorf("create view tables: %w", err)
	}
	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

// createViewTables creates the tables describing one exported view.
func createViewTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS view_events (
			event_id TEXT PRIMARY KEY,
			t        REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS segments (
			id             TEXT PRIMARY KEY,
			ord            INTEGER NOT NULL,
			start_year     INTEGER NOT NULL,
			end_year       INTEGER NOT NULL,
			start_event_id TEXT NOT NULL,
			end_event_id   TEXT NOT NULL,
			is_clickable   INTEGER NOT NULL,
			color          TEXT NOT NULL,
			hidden_count   INTEGER NOT NULL,
			safe           INTEGER NOT NULL,
			threatened     INTEGER NOT NULL,
			attacked       INTEGER NOT NULL,
			defended       INTEGER NOT NULL,
			corrupted      INTEGER NOT NULL,
			total          INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS segment_hidden (
			segment_id TEXT NOT NULL,
			event_id   TEXT NOT NULL,
			PRIMARY KEY (segment_id, event_id)
		)`,
		`CREATE TABLE IF NOT EXISTS color_sections (
			segment_id TEXT NOT NULL,
			ord        INTEGER NOT NULL,
			start_year INTEGER NOT NULL,
			end_year   INTEGER NOT NULL,
			color      TEXT NOT NULL,
			event_id   TEXT NOT NULL,
			PRIMARY KEY (segment_id, ord)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_event ON color_sections(event_id)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// createMetaTable creates the export metadata table.
func createMetaTable(db *sql.DB) error {
	metaSQL := `
		CREATE TABLE IF NOT EXISTS export_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)
	`
	if _, err := db.Exec(metaSQL); err != nil {
		return fmt.Errorf("create export_meta table: %w", err)
	}
	return nil
}

// OptimizeDatabase compacts the file. Call this as the final step before
// closing the database.
func OptimizeDatabase(db *sql.DB, pageSize int) error {
	if pageSize <= 0 {
		pageSize = 4096
	}

	optimizations := []string{
		`PRAGMA journal_mode=DELETE`,
		fmt.Sprintf(`PRAGMA page_size=%d`, pageSize),
		`ANALYZE`,
		`PRAGMA optimize`,
	}
	for _, stmt := range optimizations {
		// Some pragmas may fail depending on state, continue
		_, _ = db.Exec(stmt)
	}

	// VACUUM must be last and outside transaction
	if _, err := db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// InsertMetaValue inserts or updates a metadata key-value pair.
func InsertMetaValue(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO export_meta (key, value) VALUES (?, ?)`, key, value)
	return err
}
