package export

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/chronarc/internal/datasource"
	"github.com/vanderheijden86/chronarc/pkg/content"
	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/navigation"
	"github.com/vanderheijden86/chronarc/pkg/testutil"
)

func sampleExporter(t *testing.T) *SQLiteExporter {
	t.Helper()
	store := eventstore.MustNew(content.MustSample())
	nav := navigation.NewNavigator(store, nil)
	exp := NewSQLiteExporter(store.All(), nav.Current(), nav.Segments())
	exp.Config.Title = "Sample"
	return exp
}

func TestSQLiteExportRoundTrip(t *testing.T) {
	exp := sampleExporter(t)
	dbPath := filepath.Join(t.TempDir(), "nested", datasource.DatabaseName)

	if err := exp.Export(dbPath); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	reader, err := datasource.NewSQLiteReader(datasource.DataSource{Type: datasource.SourceTypeSQLite, Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	events, err := reader.LoadEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEventCount(t, events, len(exp.Events))
	testutil.AssertWellFormed(t, events)

	byID := testutil.BuildEventMap(events)
	for _, want := range exp.Events {
		got := byID[want.ID]
		if got.Year != want.Year || got.ParentEventID != want.ParentEventID || got.Weight != want.Weight {
			t.Fatalf("event %s changed: %+v vs %+v", want.ID, got, want)
		}
		if len(got.Content.FunFacts) != len(want.Content.FunFacts) {
			t.Fatalf("event %s lost fun facts", want.ID)
		}
	}
}

func TestSQLiteExportViewTables(t *testing.T) {
	exp := sampleExporter(t)
	dbPath := filepath.Join(t.TempDir(), "view.db")
	exp.Config.Optimize = false
	if err := exp.Export(dbPath); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	count := func(query string, args ...any) int {
		t.Helper()
		var n int
		if err := db.QueryRow(query, args...).Scan(&n); err != nil {
			t.Fatalf("%s: %v", query, err)
		}
		return n
	}

	if n := count(`SELECT COUNT(*) FROM segments`); n != len(exp.Segments) {
		t.Errorf("expected %d segments, got %d", len(exp.Segments), n)
	}
	if n := count(`SELECT COUNT(*) FROM view_events`); n != exp.View.Len() {
		t.Errorf("expected %d positions, got %d", exp.View.Len(), n)
	}
	sections := 0
	hidden := 0
	for _, s := range exp.Segments {
		sections += len(s.ColorSections)
		hidden += len(s.HiddenEvents)
	}
	if n := count(`SELECT COUNT(*) FROM color_sections`); n != sections {
		t.Errorf("expected %d sections, got %d", sections, n)
	}
	if n := count(`SELECT COUNT(*) FROM segment_hidden`); n != hidden {
		t.Errorf("expected %d hidden rows, got %d", hidden, n)
	}
	if n := count(`SELECT COUNT(*) FROM view_events WHERE t < 0 OR t > 1`); n != 0 {
		t.Errorf("%d positions outside [0,1]", n)
	}

	var title string
	if err := db.QueryRow(`SELECT value FROM export_meta WHERE key = 'title'`).Scan(&title); err != nil || title != "Sample" {
		t.Errorf("title meta = %q, %v", title, err)
	}
}

func TestSQLiteExportReplacesExisting(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")
	os.WriteFile(dbPath, []byte("stale"), 0o644)

	exp := sampleExporter(t)
	if err := exp.Export(dbPath); err != nil {
		t.Fatalf("Export over stale file failed: %v", err)
	}
}

func TestExportToJSON(t *testing.T) {
	exp := sampleExporter(t)
	path := filepath.Join(t.TempDir(), "view.json")
	if err := exp.ExportToJSON(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var view ExportView
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Meta.Title != "Sample" || len(view.Segments) != len(exp.Segments) {
		t.Errorf("unexpected view %+v", view.Meta)
	}
	if len(view.Positions) != exp.View.Len() {
		t.Errorf("expected %d positions, got %d", exp.View.Len(), len(view.Positions))
	}
}

func TestGenerateViewMarkdown(t *testing.T) {
	visible, segs := scenarioView()
	md := GenerateViewMarkdown("Scenario", visible, segs)

	for _, want := range []string{"# Scenario", "3500 BCE to 1969 CE", "### seg-a-b", "**1 hidden**", "Gunpowder", "🔴"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "### seg-a-c") {
		t.Error("seg-a-c is not part of this view")
	}
}

func TestEventMarkdown(t *testing.T) {
	for _, e := range content.MustSample() {
		if e.Content.Story == "" || len(e.Content.FunFacts) == 0 {
			continue
		}
		md := EventMarkdown(e)
		if !strings.Contains(md, e.Title) || !strings.Contains(md, "**Fun facts**") {
			t.Errorf("event markdown incomplete:\n%s", md)
		}
		return
	}
	t.Skip("sample has no event with a story and fun facts")
}
