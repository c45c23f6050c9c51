package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/navigation"
	"github.com/vanderheijden86/chronarc/pkg/position"
	"github.com/vanderheijden86/chronarc/pkg/segment"
	"github.com/vanderheijden86/chronarc/pkg/version"
)

// SQLiteExporter writes every event plus one view (its positions,
// segments and color sections) to a SQLite database.
type SQLiteExporter struct {
	Events   []model.Event
	View     navigation.ViewState
	Segments []segment.DynamicSegment
	Config   SQLiteExportConfig
}

// NewSQLiteExporter creates a new exporter with the given data.
func NewSQLiteExporter(events []model.Event, view navigation.ViewState, segments []segment.DynamicSegment) *SQLiteExporter {
	return &SQLiteExporter{
		Events:   events,
		View:     view,
		Segments: segments,
		Config:   DefaultSQLiteExportConfig(),
	}
}

// Export writes the database to dbPath, replacing any existing file.
func (e *SQLiteExporter) Export(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.insertEvents(tx); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	if err := e.insertPositions(tx); err != nil {
		return fmt.Errorf("insert positions: %w", err)
	}
	if err := e.insertSegments(tx); err != nil {
		return fmt.Errorf("insert segments: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if err := e.insertMeta(db); err != nil {
		return err
	}

	if e.Config.Optimize {
		if err := OptimizeDatabase(db, e.Config.PageSize); err != nil {
			debug.Warn("optimize %s: %v", dbPath, err)
		}
	}
	debug.Log("exported %d events and %d segments to %s", len(e.Events), len(e.Segments), dbPath)
	return nil
}

func (e *SQLiteExporter) insertEvents(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`
		INSERT INTO events (id, title, description, year, era, tags, difficulty, hierarchy_level,
			parent_event_id, is_key_event, weight, state, story, fun_facts, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, ev := range e.Events {
		tags, err := jsonArray(ev.Tags)
		if err != nil {
			return err
		}
		facts, err := jsonArray(ev.Content.FunFacts)
		if err != nil {
			return err
		}
		var parent any
		if ev.HasParent() {
			parent = ev.ParentEventID
		}
		_, err = stmt.Exec(
			ev.ID, ev.Title, ev.Description, ev.Year, string(ev.Era), tags, ev.Difficulty,
			ev.HierarchyLevel, parent, ev.IsKeyEvent, ev.Weight, string(ev.State),
			ev.Content.Story, facts, now,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", ev.ID, err)
		}
	}
	return nil
}

func (e *SQLiteExporter) insertPositions(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`INSERT INTO view_events (event_id, t) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	positions := e.positions()
	for _, id := range e.View.IDs() {
		t, ok := positions[id]
		if !ok {
			continue
		}
		if _, err := stmt.Exec(id, t); err != nil {
			return fmt.Errorf("insert position %s: %w", id, err)
		}
	}
	return nil
}

func (e *SQLiteExporter) insertSegments(tx *sql.Tx) error {
	segStmt, err := tx.Prepare(`
		INSERT INTO segments (id, ord, start_year, end_year, start_event_id, end_event_id, is_clickable,
			color, hidden_count, safe, threatened, attacked, defended, corrupted, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer segStmt.Close()

	hiddenStmt, err := tx.Prepare(`INSERT INTO segment_hidden (segment_id, event_id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer hiddenStmt.Close()

	secStmt, err := tx.Prepare(`
		INSERT INTO color_sections (segment_id, ord, start_year, end_year, color, event_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer secStmt.Close()

	for i, s := range e.Segments {
		c := s.StateCounts
		_, err := segStmt.Exec(s.ID, i, s.StartYear, s.EndYear, s.StartEventID, s.EndEventID, s.IsClickable,
			s.Color, len(s.HiddenEvents), c.Safe, c.Threatened, c.Attacked, c.Defended, c.Corrupted, c.Total)
		if err != nil {
			return fmt.Errorf("insert segment %s: %w", s.ID, err)
		}
		for _, h := range s.HiddenEvents {
			if _, err := hiddenStmt.Exec(s.ID, h.ID); err != nil {
				return fmt.Errorf("insert hidden %s/%s: %w", s.ID, h.ID, err)
			}
		}
		for j, sec := range s.ColorSections {
			if _, err := secStmt.Exec(s.ID, j, sec.StartYear, sec.EndYear, sec.Color, sec.EventID); err != nil {
				return fmt.Errorf("insert section %s/%d: %w", s.ID, j, err)
			}
		}
	}
	return nil
}

// insertMeta inserts export metadata.
func (e *SQLiteExporter) insertMeta(db *sql.DB) error {
	meta := map[string]string{
		"version":        version.Version,
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
		"event_count":    strconv.Itoa(len(e.Events)),
		"segment_count":  strconv.Itoa(len(e.Segments)),
		"schema_version": strconv.Itoa(SchemaVersion),
		"min_year":       strconv.Itoa(e.View.MinYear),
		"max_year":       strconv.Itoa(e.View.MaxYear),
	}
	if e.Config.Title != "" {
		meta["title"] = e.Config.Title
	}
	for key, value := range meta {
		if err := InsertMetaValue(db, key, value); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}
	return nil
}

// positions computes weighted t for the visible events.
func (e *SQLiteExporter) positions() map[string]float64 {
	var visible []model.Event
	for _, ev := range e.Events {
		if e.View.Visible(ev.ID) {
			visible = append(visible, ev)
		}
	}
	return position.ComputeWeightedPositions(visible)
}

// ExportView returns the JSON form of the exported view.
func (e *SQLiteExporter) ExportView() ExportView {
	return ExportView{
		Meta: ExportMeta{
			Version:      version.Version,
			GeneratedAt:  time.Now().UTC(),
			EventCount:   len(e.Events),
			SegmentCount: len(e.Segments),
			Title:        e.Config.Title,
		},
		MinYear:   e.View.MinYear,
		MaxYear:   e.View.MaxYear,
		Positions: e.positions(),
		Segments:  e.Segments,
	}
}

// ExportToJSON writes the view as indented JSON.
func (e *SQLiteExporter) ExportToJSON(path string) error {
	return writeJSON(path, e.ExportView())
}

// writeJSON writes data as JSON to a file.
func writeJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func jsonArray(items []string) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
