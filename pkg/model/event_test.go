package model

import (
	"errors"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	e := Event{ID: " evt-1 ", State: " Attacked "}
	e.Normalize()

	if e.ID != "evt-1" {
		t.Errorf("expected trimmed id, got %q", e.ID)
	}
	if e.Weight != DefaultWeight {
		t.Errorf("expected default weight %v, got %v", DefaultWeight, e.Weight)
	}
	if e.State != StateAttacked {
		t.Errorf("expected state attacked, got %q", e.State)
	}

	blank := Event{ID: "x"}
	blank.Normalize()
	if blank.State != StateSafe {
		t.Errorf("expected empty state to default to safe, got %q", blank.State)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want error
	}{
		{"ok root", Event{ID: "a", Weight: 1, State: StateSafe}, nil},
		{"ok child", Event{ID: "b", HierarchyLevel: 1, ParentEventID: "a", Weight: 0.5, State: StateDefended}, nil},
		{"missing id", Event{Weight: 1, State: StateSafe}, ErrMissingID},
		{"negative level", Event{ID: "a", HierarchyLevel: -1, Weight: 1, State: StateSafe}, ErrNegativeLevel},
		{"zero weight", Event{ID: "a", State: StateSafe}, ErrBadWeight},
		{"bad state", Event{ID: "a", Weight: 1, State: "doomed"}, ErrUnknownState},
		{"orphan child", Event{ID: "a", HierarchyLevel: 2, Weight: 1, State: StateSafe}, ErrMissingParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestStateColor(t *testing.T) {
	cases := map[EventState]string{
		StateSafe:       "#4A90E2",
		StateDefended:   "#22C55E",
		StateThreatened: "#F5A623",
		StateAttacked:   "#D0021B",
		StateCorrupted:  "#6B7280",
		"":              "#9ca3af",
		"bogus":         "#9ca3af",
	}
	for state, want := range cases {
		if got := StateColor(state); got != want {
			t.Errorf("StateColor(%q) = %s, want %s", state, got, want)
		}
	}
}

func TestSortByYearStable(t *testing.T) {
	events := []Event{{ID: "c", Year: 10}, {ID: "a", Year: -5}, {ID: "b1", Year: 10}, {ID: "b0", Year: 0}}
	sorted := SortedByYear(events)

	want := []string{"a", "b0", "c", "b1"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, sorted[i].ID)
		}
	}
	if events[0].ID != "c" {
		t.Error("SortedByYear must not modify its input")
	}

	SortByYear(events)
	for i, id := range want {
		if events[i].ID != id {
			t.Fatalf("in place, position %d: expected %s, got %s", i, id, events[i].ID)
		}
	}
	if got := SortedByYear(nil); got == nil || len(got) != 0 {
		t.Errorf("expected an empty non-nil slice, got %#v", got)
	}
}

func TestFormatYear(t *testing.T) {
	for year, want := range map[int]string{-3500: "3500 BCE", 0: "0 CE", 1969: "1969 CE"} {
		if got := FormatYear(year); got != want {
			t.Errorf("FormatYear(%d) = %q, want %q", year, got, want)
		}
	}
}
