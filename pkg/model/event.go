// Package model defines the timeline event types shared by every chronarc package.
package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// EventState is the game state of an event. It is owned by the game-state
// collaborator and only read by the segmentation engine.
type EventState string

const (
	StateSafe       EventState = "safe"
	StateThreatened EventState = "threatened"
	StateAttacked   EventState = "attacked"
	StateDefended   EventState = "defended"
	StateCorrupted  EventState = "corrupted"
)

// AllStates lists the states in palette order.
var AllStates = []EventState{StateSafe, StateDefended, StateThreatened, StateAttacked, StateCorrupted}

// IsValid reports whether s is one of the five known states.
func (s EventState) IsValid() bool {
	switch s {
	case StateSafe, StateThreatened, StateAttacked, StateDefended, StateCorrupted:
		return true
	}
	return false
}

// Color returns the palette color for the state.
func (s EventState) Color() string {
	return StateColor(s)
}

// Era groups events into broad historical periods.
type Era string

const (
	EraPrehistory  Era = "prehistory"
	EraAncient     Era = "ancient"
	EraMedieval    Era = "medieval"
	EraRenaissance Era = "renaissance"
	EraIndustrial  Era = "industrial"
	EraModern      Era = "modern"
	EraDigital     Era = "digital"
)

// DefaultWeight is applied when an event carries no weight.
const DefaultWeight = 1.0

// EventContent is display material consumed by panels outside the core.
type EventContent struct {
	Story    string   `json:"story,omitempty" yaml:"story,omitempty"`
	FunFacts []string `json:"fun_facts,omitempty" yaml:"fun_facts,omitempty"`
}

// Event is a single dated entry in the hierarchy.
type Event struct {
	ID             string       `json:"id" yaml:"id"`
	Title          string       `json:"title" yaml:"title"`
	Description    string       `json:"description,omitempty" yaml:"description,omitempty"`
	Year           int          `json:"year" yaml:"year"` // negative = BCE
	Era            Era          `json:"era,omitempty" yaml:"era,omitempty"`
	Tags           []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	Difficulty     int          `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	HierarchyLevel int          `json:"hierarchy_level" yaml:"hierarchy_level"`
	ParentEventID  string       `json:"parent_event_id,omitempty" yaml:"parent_event_id,omitempty"` // "" for level 0
	IsKeyEvent     bool         `json:"is_key_event,omitempty" yaml:"is_key_event,omitempty"`
	Weight         float64      `json:"weight,omitempty" yaml:"weight,omitempty"` // space reserved after this event
	State          EventState   `json:"state,omitempty" yaml:"state,omitempty"`
	Content        EventContent `json:"content,omitempty" yaml:"content,omitempty"`
}

// Validation errors.
var (
	ErrMissingID     = errors.New("event id is required")
	ErrNegativeLevel = errors.New("hierarchy level must be non-negative")
	ErrBadWeight     = errors.New("weight must be positive")
	ErrUnknownState  = errors.New("unknown event state")
	ErrMissingParent = errors.New("events below level 0 need a parent")
)

// HasParent reports whether the event is owned by another event.
func (e *Event) HasParent() bool {
	return e.ParentEventID != ""
}

// Normalize fills defaults: weight 1 when unset and safe when no state is given.
func (e *Event) Normalize() {
	e.ID = strings.TrimSpace(e.ID)
	e.ParentEventID = strings.TrimSpace(e.ParentEventID)
	if e.Weight == 0 {
		e.Weight = DefaultWeight
	}
	st := EventState(strings.ToLower(strings.TrimSpace(string(e.State))))
	if st == "" {
		st = StateSafe
	}
	e.State = st
}

// Validate checks the per-event invariants. Tree-wide invariants (parent
// exists, parent level + 1) are the store's concern.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if e.HierarchyLevel < 0 {
		return fmt.Errorf("%w: %s has level %d", ErrNegativeLevel, e.ID, e.HierarchyLevel)
	}
	if e.Weight <= 0 {
		return fmt.Errorf("%w: %s has weight %g", ErrBadWeight, e.ID, e.Weight)
	}
	if !e.State.IsValid() {
		return fmt.Errorf("%w: %s has state %q", ErrUnknownState, e.ID, e.State)
	}
	if e.HierarchyLevel > 0 && !e.HasParent() {
		return fmt.Errorf("%w: %s is at level %d", ErrMissingParent, e.ID, e.HierarchyLevel)
	}
	return nil
}

// SortByYear sorts events chronologically in place. Ties keep their input
// order so repeated calls over the same data agree.
func SortByYear(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Compare(a.Year, b.Year)
	})
}

// SortedByYear returns a chronologically sorted copy.
func SortedByYear(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	SortByYear(out)
	return out
}

// IDSet builds a lookup set from ids.
func IDSet(ids ...string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// FormatYear renders a year for display: 3500 BCE, 1969 CE.
func FormatYear(year int) string {
	if year < 0 {
		return fmt.Sprintf("%d BCE", -year)
	}
	return fmt.Sprintf("%d CE", year)
}
