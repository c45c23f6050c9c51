package testutil

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

// AssertEventCount verifies the expected number of events.
func AssertEventCount(t *testing.T, events []model.Event, expected int) {
	t.Helper()
	if len(events) != expected {
		t.Errorf("expected %d events, got %d", expected, len(events))
	}
}

// AssertNoDuplicateIDs verifies all event ids are unique.
func AssertNoDuplicateIDs(t *testing.T, events []model.Event) {
	t.Helper()
	seen := make(map[string]bool)
	for _, e := range events {
		if seen[e.ID] {
			t.Errorf("duplicate event ID: %s", e.ID)
		}
		seen[e.ID] = true
	}
}

// AssertWellFormed verifies every parent exists and sits one level above
// its children.
func AssertWellFormed(t *testing.T, events []model.Event) {
	t.Helper()
	byID := BuildEventMap(events)
	for _, e := range events {
		if !e.HasParent() {
			if e.HierarchyLevel != 0 {
				t.Errorf("%s: level %d without parent", e.ID, e.HierarchyLevel)
			}
			continue
		}
		p, ok := byID[e.ParentEventID]
		if !ok {
			t.Errorf("%s: parent %s missing", e.ID, e.ParentEventID)
			continue
		}
		if p.HierarchyLevel+1 != e.HierarchyLevel {
			t.Errorf("%s: level %d under parent level %d", e.ID, e.HierarchyLevel, p.HierarchyLevel)
		}
	}
}

// AssertSameLevel verifies the ids all resolve to one hierarchy level.
func AssertSameLevel(t *testing.T, events []model.Event, ids map[string]bool) {
	t.Helper()
	level := -1
	for _, e := range events {
		if !ids[e.ID] {
			continue
		}
		if level == -1 {
			level = e.HierarchyLevel
			continue
		}
		if e.HierarchyLevel != level {
			t.Errorf("%s at level %d, expected %d", e.ID, e.HierarchyLevel, level)
		}
	}
}

// AssertIDs verifies a set holds exactly the given ids.
func AssertIDs(t *testing.T, got map[string]bool, want ...string) {
	t.Helper()
	if !reflect.DeepEqual(got, model.IDSet(want...)) {
		t.Errorf("expected ids %v, got %v", want, SortedKeys(got))
	}
}

// AssertJSONEqual compares two values via their JSON encodings.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()
	e, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("marshal expected: %v", err)
	}
	a, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("marshal actual: %v", err)
	}
	if string(e) != string(a) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", e, a)
	}
}

// WriteEventsFile writes events as JSONL to path.
func WriteEventsFile(t *testing.T, path string, events []model.Event) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(ToJSONL(events)), 0o644); err != nil {
		t.Fatalf("write events: %v", err)
	}
}

// BuildEventMap indexes events by id.
func BuildEventMap(events []model.Event) map[string]model.Event {
	m := make(map[string]model.Event, len(events))
	for _, e := range events {
		m[e.ID] = e
	}
	return m
}

// FindEvent returns the event with id or nil.
func FindEvent(events []model.Event, id string) *model.Event {
	for i := range events {
		if events[i].ID == id {
			return &events[i]
		}
	}
	return nil
}

// GetIDs returns ids in slice order.
func GetIDs(events []model.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

// SortedKeys returns the true keys of a set in sorted order.
func SortedKeys(set map[string]bool) []string {
	var keys []string
	for k, v := range set {
		if v {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// TB is the subset of testing.TB the span assertions need. Both *testing.T
// and *rapid.T satisfy it.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
}

// Span is a half-open [Start, End) year range.
type Span struct {
	Start, End int
}

// AssertPartition verifies spans tile [start, end) in order with no gaps or
// overlaps.
func AssertPartition(t TB, start, end int, spans []Span) {
	t.Helper()
	if len(spans) == 0 {
		t.Errorf("no spans to partition [%d, %d)", start, end)
		return
	}
	cursor := start
	for i, s := range spans {
		if s.Start != cursor {
			t.Errorf("span %d starts at %d, expected %d", i, s.Start, cursor)
		}
		if s.End < s.Start {
			t.Errorf("span %d is inverted: [%d, %d)", i, s.Start, s.End)
		}
		cursor = s.End
	}
	if cursor != end {
		t.Errorf("spans end at %d, expected %d", cursor, end)
	}
}
