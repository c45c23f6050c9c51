package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

// Schema is the events table layout shared by the reader and the exporter.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	description     TEXT,
	year            INTEGER NOT NULL,
	era             TEXT,
	tags            TEXT,
	difficulty      INTEGER,
	hierarchy_level INTEGER NOT NULL DEFAULT 0,
	parent_event_id TEXT,
	is_key_event    INTEGER NOT NULL DEFAULT 0,
	weight          REAL,
	state           TEXT,
	story           TEXT,
	fun_facts       TEXT,
	updated_at      TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_events_parent ON events(parent_event_id);
`

// SQLiteReader provides read access to an events database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// Read performance only; a failure here is not fatal.
	for _, pragma := range []string{"PRAGMA cache_size = -16000", "PRAGMA temp_store = MEMORY"} {
		_, _ = db.Exec(pragma)
	}
	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadEvents reads all events from the database
func (r *SQLiteReader) LoadEvents(ctx context.Context) ([]model.Event, error) {
	return r.LoadEventsFiltered(ctx, nil)
}

// LoadEventsFiltered reads events matching filter. Rows that fail to scan or
// validate are skipped.
func (r *SQLiteReader) LoadEventsFiltered(ctx context.Context, filter func(*model.Event) bool) ([]model.Event, error) {
	const query = `
		SELECT id, title, description, year, era, tags, difficulty,
		       hierarchy_level, parent_event_id, is_key_event, weight, state,
		       story, fun_facts
		FROM events
		ORDER BY year, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var description, era, tags, parent, state, story, funFacts sql.NullString
		var difficulty sql.NullInt64
		var weight sql.NullFloat64
		var isKey int

		if err := rows.Scan(
			&e.ID, &e.Title, &description, &e.Year, &era, &tags, &difficulty,
			&e.HierarchyLevel, &parent, &isKey, &weight, &state,
			&story, &funFacts,
		); err != nil {
			continue
		}

		e.Description = description.String
		e.Era = model.Era(era.String)
		e.Tags = parseJSONStringArray(tags.String)
		e.Difficulty = int(difficulty.Int64)
		e.ParentEventID = parent.String
		e.IsKeyEvent = isKey != 0
		e.Weight = weight.Float64
		e.State = model.EventState(state.String)
		e.Content.Story = story.String
		e.Content.FunFacts = parseJSONStringArray(funFacts.String)

		e.Normalize()
		if e.Validate() != nil {
			continue
		}
		if filter != nil && !filter(&e) {
			continue
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of rows in the events table
func (r *SQLiteReader) CountEvents() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetEventByID retrieves a single event by ID
func (r *SQLiteReader) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	events, err := r.LoadEventsFiltered(ctx, func(e *model.Event) bool {
		return e.ID == id
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event not found: %s", id)
	}
	return &events[0], nil
}

// GetLastModified returns the most recent updated_at, or the zero time when
// no row carries one.
func (r *SQLiteReader) GetLastModified() (time.Time, error) {
	var updatedAt sql.NullString
	if err := r.db.QueryRow("SELECT MAX(updated_at) FROM events").Scan(&updatedAt); err != nil {
		return time.Time{}, err
	}
	if !updatedAt.Valid || updatedAt.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, updatedAt.String)
}

// parseJSONStringArray parses a JSON array of strings
func parseJSONStringArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "[]" {
		return nil
	}

	var result []string
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		// Fallback to simple parser for malformed JSON
		s = strings.TrimPrefix(s, "[")
		s = strings.TrimSuffix(s, "]")
		if s == "" {
			return nil
		}
		for _, item := range strings.Split(s, ",") {
			item = strings.TrimSpace(item)
			item = strings.Trim(item, `"`)
			if item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}
