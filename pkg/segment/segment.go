// Package segment computes the clickable gaps between consecutive visible
// events.
//
// Visible events act as splitters. Each pair of neighbours bounds one
// DynamicSegment holding the hidden children of its left boundary, a tally
// of their states, one dominant color and a chronological color partition.
// Segments are derived data: recompute them whenever the view or any event
// state changes.
package segment

import (
	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/metrics"
	"github.com/vanderheijden86/chronarc/pkg/model"
)

// StateCounts tallies event states over a segment (start event included,
// end event excluded).
type StateCounts struct {
	Safe       int `json:"safe"`
	Threatened int `json:"threatened"`
	Attacked   int `json:"attacked"`
	Defended   int `json:"defended"`
	Corrupted  int `json:"corrupted"`
	Total      int `json:"total"`
}

// Add counts one state. Unknown states only raise Total.
func (c *StateCounts) Add(s model.EventState) {
	switch s {
	case model.StateSafe:
		c.Safe++
	case model.StateThreatened:
		c.Threatened++
	case model.StateAttacked:
		c.Attacked++
	case model.StateDefended:
		c.Defended++
	case model.StateCorrupted:
		c.Corrupted++
	}
	c.Total++
}

// Of returns the bucket for one state.
func (c StateCounts) Of(s model.EventState) int {
	switch s {
	case model.StateSafe:
		return c.Safe
	case model.StateThreatened:
		return c.Threatened
	case model.StateAttacked:
		return c.Attacked
	case model.StateDefended:
		return c.Defended
	case model.StateCorrupted:
		return c.Corrupted
	}
	return 0
}

// ColorSection is the slice of a segment colored by one event, from its year
// up to the next event's year (or the segment end).
type ColorSection struct {
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
	Color     string `json:"color"`
	EventID   string `json:"event_id"`
}

// DynamicSegment is the gap between two consecutive visible events.
type DynamicSegment struct {
	ID            string         `json:"id"`
	StartYear     int            `json:"start_year"`
	EndYear       int            `json:"end_year"`
	StartEventID  string         `json:"start_event_id"`
	EndEventID    string         `json:"end_event_id"`
	HiddenEvents  []model.Event  `json:"hidden_events"`
	IsClickable   bool           `json:"is_clickable"`
	StateCounts   StateCounts    `json:"state_counts"`
	Color         string         `json:"color"`
	ColorSections []ColorSection `json:"color_sections"`
}

// HiddenIDs returns the ids of the hidden events in year order.
func (s DynamicSegment) HiddenIDs() []string {
	ids := make([]string, len(s.HiddenEvents))
	for i, e := range s.HiddenEvents {
		ids[i] = e.ID
	}
	return ids
}

// SegmentID builds the deterministic id for a boundary pair.
func SegmentID(startID, endID string) string {
	return "seg-" + startID + "-" + endID
}

// CalculateSegments returns the segments between consecutive visible events
// in chronological order. Fewer than two visible events yields nil.
//
// All visible events are assumed to share one hierarchy level. Hidden events
// are the next level's children of the left boundary whose year lies strictly
// inside the gap; children of the right boundary never appear.
func CalculateSegments(all []model.Event, visible map[string]bool) []DynamicSegment {
	defer metrics.Timer(metrics.Segmentation)()

	var shown []model.Event
	for _, e := range all {
		if visible[e.ID] {
			shown = append(shown, e)
		}
	}
	model.SortByYear(shown)
	if len(shown) < 2 {
		return nil
	}

	return build(shown, visible, func(start model.Event) []model.Event {
		return eventstore.ChildEvents(all, start.ID)
	})
}

// CalculateSegmentsWithState resolves each event's state through lookup
// before segmenting.
func CalculateSegmentsWithState(all []model.Event, visible map[string]bool, lookup eventstore.StateLookup) []DynamicSegment {
	if lookup == nil {
		return CalculateSegments(all, visible)
	}
	resolved := make([]model.Event, len(all))
	copy(resolved, all)
	for i := range resolved {
		if st, ok := lookup.State(resolved[i].ID); ok {
			resolved[i].State = st
		}
	}
	return CalculateSegments(resolved, visible)
}

// childrenFunc returns candidate hidden events for a left boundary.
type childrenFunc func(start model.Event) []model.Event

func build(shown []model.Event, visible map[string]bool, children childrenFunc) []DynamicSegment {
	level := shown[0].HierarchyLevel
	segments := make([]DynamicSegment, 0, len(shown)-1)

	for i := 0; i < len(shown)-1; i++ {
		start, end := shown[i], shown[i+1]

		var hidden []model.Event
		for _, e := range children(start) {
			if visible[e.ID] || e.HierarchyLevel != level+1 || e.ParentEventID != start.ID {
				continue
			}
			if e.Year > start.Year && e.Year < end.Year {
				hidden = append(hidden, e)
			}
		}
		model.SortByYear(hidden)

		inSegment := make([]model.Event, 0, len(hidden)+1)
		inSegment = append(inSegment, start)
		inSegment = append(inSegment, hidden...)
		model.SortByYear(inSegment)

		var counts StateCounts
		for _, e := range inSegment {
			counts.Add(e.State)
		}

		sections := make([]ColorSection, len(inSegment))
		for idx, e := range inSegment {
			endYear := end.Year
			if idx+1 < len(inSegment) {
				endYear = inSegment[idx+1].Year
			}
			sections[idx] = ColorSection{
				StartYear: e.Year,
				EndYear:   endYear,
				Color:     model.StateColor(e.State),
				EventID:   e.ID,
			}
		}

		segments = append(segments, DynamicSegment{
			ID:            SegmentID(start.ID, end.ID),
			StartYear:     start.Year,
			EndYear:       end.Year,
			StartEventID:  start.ID,
			EndEventID:    end.ID,
			HiddenEvents:  hidden,
			IsClickable:   len(hidden) > 0,
			StateCounts:   counts,
			Color:         SegmentColor(counts),
			ColorSections: sections,
		})
	}

	debug.Log("segmented %d visible events at level %d into %d segments", len(shown), level, len(segments))
	return segments
}

// Find returns the segment with the given id.
func Find(segments []DynamicSegment, id string) (DynamicSegment, bool) {
	for _, s := range segments {
		if s.ID == id {
			return s, true
		}
	}
	return DynamicSegment{}, false
}
