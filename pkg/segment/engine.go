package segment

import (
	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/metrics"
	"github.com/vanderheijden86/chronarc/pkg/model"
)

// Engine segments over a Store, using its parent index instead of scanning
// the flat list for every boundary. Output is identical to CalculateSegments
// over the same events.
type Engine struct {
	store  *eventstore.Store
	lookup eventstore.StateLookup
}

// NewEngine builds an engine. lookup may be nil to use stored states.
func NewEngine(store *eventstore.Store, lookup eventstore.StateLookup) *Engine {
	return &Engine{store: store, lookup: lookup}
}

// Store returns the backing store.
func (e *Engine) Store() *eventstore.Store {
	return e.store
}

// Events returns the store contents with current states applied.
func (e *Engine) Events() []model.Event {
	return e.store.Snapshot(e.lookup)
}

// Calculate segments the given visible set.
func (e *Engine) Calculate(visible map[string]bool) []DynamicSegment {
	defer metrics.Timer(metrics.Segmentation)()

	var shown []model.Event
	for _, ev := range e.Events() {
		if visible[ev.ID] {
			shown = append(shown, ev)
		}
	}
	model.SortByYear(shown)
	if len(shown) < 2 {
		return nil
	}
	return build(shown, visible, func(start model.Event) []model.Event {
		return e.resolveStates(e.store.Children(start.ID))
	})
}

func (e *Engine) resolveStates(events []model.Event) []model.Event {
	if e.lookup == nil {
		return events
	}
	for i := range events {
		if st, ok := e.lookup.State(events[i].ID); ok {
			events[i].State = st
		}
	}
	return events
}
