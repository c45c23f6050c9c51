// Package eventstore holds the immutable flat event collection and the
// parent -> children index built from it.
package eventstore

import (
	"errors"
	"fmt"
	"math"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

// ErrDuplicateEvent is returned when two events share an id.
var ErrDuplicateEvent = errors.New("duplicate event id")

// ErrEventNotFound is returned for lookups of unknown ids.
var ErrEventNotFound = errors.New("event not found")

// Store is the read-only event collection. Hierarchy well-formedness is not
// checked here: a cycle or level mismatch silently produces odd segments.
type Store struct {
	events     []model.Event       // input order
	byID       map[string]int      // id -> index into events
	childrenOf map[string][]string // parent id -> child ids, year-sorted
	levels     map[int][]string    // level -> ids, year-sorted
}

// New copies events into a Store, applying defaults and building indexes.
func New(events []model.Event) (*Store, error) {
	s := &Store{
		events:     make([]model.Event, len(events)),
		byID:       make(map[string]int, len(events)),
		childrenOf: make(map[string][]string),
		levels:     make(map[int][]string),
	}
	copy(s.events, events)

	for i := range s.events {
		s.events[i].Normalize()
		id := s.events[i].ID
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEvent, id)
		}
		s.byID[id] = i
	}

	// Index in chronological order so every child list comes out sorted.
	for _, e := range model.SortedByYear(s.events) {
		if e.HasParent() {
			s.childrenOf[e.ParentEventID] = append(s.childrenOf[e.ParentEventID], e.ID)
		}
		s.levels[e.HierarchyLevel] = append(s.levels[e.HierarchyLevel], e.ID)
	}
	return s, nil
}

// MustNew is New for fixed content known to be valid.
func MustNew(events []model.Event) *Store {
	s, err := New(events)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of events.
func (s *Store) Len() int {
	return len(s.events)
}

// All returns a copy of every event in input order.
func (s *Store) All() []model.Event {
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Get returns the event with the given id.
func (s *Store) Get(id string) (model.Event, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Event{}, false
	}
	return s.events[i], true
}

// Has reports whether id is known.
func (s *Store) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Children returns the direct children of parentID in year order.
func (s *Store) Children(parentID string) []model.Event {
	return s.Resolve(s.childrenOf[parentID])
}

// ChildIDs returns the year-ordered child ids of parentID.
func (s *Store) ChildIDs(parentID string) []string {
	ids := s.childrenOf[parentID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// ByLevel returns every event at the given hierarchy level in year order.
func (s *Store) ByLevel(level int) []model.Event {
	return s.Resolve(s.levels[level])
}

// TopLevel returns the level 0 events.
func (s *Store) TopLevel() []model.Event {
	return s.ByLevel(0)
}

// Resolve maps ids to events, skipping unknown ids.
func (s *Store) Resolve(ids []string) []model.Event {
	out := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.byID[id]; ok {
			out = append(out, s.events[i])
		}
	}
	return out
}

// YearBounds returns the smallest and largest year over all events.
// ok is false for an empty store.
func (s *Store) YearBounds() (minYear, maxYear int, ok bool) {
	if len(s.events) == 0 {
		return 0, 0, false
	}
	minYear, maxYear = math.MaxInt, math.MinInt
	for _, e := range s.events {
		minYear = min(minYear, e.Year)
		maxYear = max(maxYear, e.Year)
	}
	return minYear, maxYear, true
}

// Snapshot returns all events with State resolved through lookup. Events the
// lookup does not know keep their stored state.
func (s *Store) Snapshot(lookup StateLookup) []model.Event {
	out := s.All()
	if lookup == nil {
		return out
	}
	for i := range out {
		if st, ok := lookup.State(out[i].ID); ok {
			out[i].State = st
		}
	}
	return out
}

// Depth returns the number of distinct hierarchy levels.
func (s *Store) Depth() int {
	return len(s.levels)
}

// ErrBrokenHierarchy marks a parent link that does not resolve to an event
// exactly one level up, or a child that no segment can ever reveal.
var ErrBrokenHierarchy = errors.New("broken hierarchy")

// ErrOutsideParentGap marks a child whose year is not strictly after its
// parent and before the parent's next sibling. It always comes wrapped
// together with ErrBrokenHierarchy.
var ErrOutsideParentGap = errors.New("outside parent gap")

// Verify lists parent links that point at unknown events or skip a level,
// and children lying outside the gap their parent starts. Segmentation does
// not depend on it; loaders surface the result as warnings.
func (s *Store) Verify() []error {
	var problems []error
	for _, e := range s.events {
		if !e.HasParent() {
			if e.HierarchyLevel != 0 {
				problems = append(problems, fmt.Errorf("%w: %s is at level %d without a parent", ErrBrokenHierarchy, e.ID, e.HierarchyLevel))
			}
			continue
		}
		p, ok := s.Get(e.ParentEventID)
		switch {
		case !ok:
			problems = append(problems, fmt.Errorf("%w: %s names unknown parent %s", ErrBrokenHierarchy, e.ID, e.ParentEventID))
		case p.HierarchyLevel+1 != e.HierarchyLevel:
			problems = append(problems, fmt.Errorf("%w: %s at level %d under %s at level %d", ErrBrokenHierarchy, e.ID, e.HierarchyLevel, p.ID, p.HierarchyLevel))
		default:
			lo, hi, bounded := s.gap(p)
			if e.Year <= lo || (bounded && e.Year >= hi) {
				problems = append(problems, fmt.Errorf("%w: %w: %s (%d) under %s %s", ErrBrokenHierarchy, ErrOutsideParentGap, e.ID, e.Year, p.ID, formatGap(lo, hi, bounded)))
			}
		}
	}
	return problems
}

// gap returns the years bounding the segment p starts: p's own year and the
// year of its next sibling. The last sibling's gap is unbounded above.
func (s *Store) gap(p model.Event) (lo, hi int, bounded bool) {
	siblings := s.levels[p.HierarchyLevel]
	if p.HasParent() {
		siblings = s.childrenOf[p.ParentEventID]
	}
	for i, id := range siblings {
		if id != p.ID {
			continue
		}
		for _, next := range siblings[i+1:] {
			n, _ := s.Get(next)
			if n.HasParent() == p.HasParent() {
				return p.Year, n.Year, true
			}
		}
		break
	}
	return p.Year, 0, false
}

func formatGap(lo, hi int, bounded bool) string {
	if !bounded {
		return fmt.Sprintf("(%d, ...)", lo)
	}
	return fmt.Sprintf("(%d, %d)", lo, hi)
}
