package navigation

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/metrics"
	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/position"
	"github.com/vanderheijden86/chronarc/pkg/segment"
)

var (
	// ErrSegmentNotFound is returned when a drill targets an unknown segment id.
	ErrSegmentNotFound = errors.New("segment not found")
	// ErrNotClickable is returned when a drill targets a segment with no hidden events.
	ErrNotClickable = errors.New("segment has no hidden events")
	// ErrNoHistory is returned by Back at the outermost view.
	ErrNoHistory = errors.New("no view to go back to")
	// ErrNoSibling is returned when sibling navigation has nowhere to go.
	ErrNoSibling = errors.New("no sibling in that direction")
)

// Navigator owns the current view and its history, and applies the pure
// transitions on behalf of a UI. It is not safe for concurrent use.
type Navigator struct {
	engine  *segment.Engine
	current ViewState
	history History
}

// NewNavigator starts at the initial view of store. lookup may be nil.
func NewNavigator(store *eventstore.Store, lookup eventstore.StateLookup) *Navigator {
	n := &Navigator{engine: segment.NewEngine(store, lookup)}
	n.current = InitialViewState(store.All())
	return n
}

// Reset returns to the initial view and clears history.
func (n *Navigator) Reset() {
	n.current = InitialViewState(n.engine.Store().All())
	n.history.Clear()
}

// Current returns a copy of the current view.
func (n *Navigator) Current() ViewState {
	return n.current.Clone()
}

// Depth is the number of views that Back can return to.
func (n *Navigator) Depth() int {
	return n.history.Len()
}

// CanNavigateBack reports whether Back would succeed.
func (n *Navigator) CanNavigateBack() bool {
	return n.history.CanNavigateBack()
}

// Events returns every event with current states applied.
func (n *Navigator) Events() []model.Event {
	return n.engine.Events()
}

// VisibleEvents returns the events of the current view in year order.
func (n *Navigator) VisibleEvents() []model.Event {
	var out []model.Event
	for _, e := range n.engine.Events() {
		if n.current.Visible(e.ID) {
			out = append(out, e)
		}
	}
	model.SortByYear(out)
	return out
}

// Segments recomputes the segments of the current view.
func (n *Navigator) Segments() []segment.DynamicSegment {
	return n.engine.Calculate(n.current.VisibleEventIDs)
}

// Mapper computes curve positions for the current view.
func (n *Navigator) Mapper() *position.Mapper {
	return position.NewMapper(n.VisibleEvents())
}

// Drill pushes the current view and shows the hidden events of segmentID.
func (n *Navigator) Drill(segmentID string) error {
	defer metrics.Timer(metrics.Navigation)()

	seg, ok := segment.Find(n.Segments(), segmentID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSegmentNotFound, segmentID)
	}
	if !seg.IsClickable {
		return fmt.Errorf("%w: %s", ErrNotClickable, segmentID)
	}
	n.history.Push(n.current)
	n.current = DrillDown(seg)
	debug.Log("drill %s: %d events visible, depth %d", segmentID, n.current.Len(), n.history.Len())
	return nil
}

// Back restores the previous view.
func (n *Navigator) Back() error {
	defer metrics.Timer(metrics.Navigation)()

	prev, ok := n.history.Pop()
	if !ok {
		return ErrNoHistory
	}
	n.current = prev
	debug.Log("back: depth %d", n.history.Len())
	return nil
}

// Next moves to the following sibling. History is untouched.
func (n *Navigator) Next() error {
	return n.sibling("next", NextSibling)
}

// Prev moves to the preceding sibling. History is untouched.
func (n *Navigator) Prev() error {
	return n.sibling("prev", PrevSibling)
}

func (n *Navigator) sibling(dir string, move func([]model.Event, ViewState) (ViewState, bool)) error {
	defer metrics.Timer(metrics.Navigation)()

	v, ok := move(n.engine.Events(), n.current)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSibling, dir)
	}
	n.current = v
	debug.Log("%s sibling: %v", dir, v.IDs())
	return nil
}
