// Package navigation holds the drill-down view state machine: the current
// ViewState, a LIFO history of prior views, and the pure transitions between
// them.
package navigation

import (
	"maps"
	"slices"
)

// ViewState is the set of visible event ids and the year range framing them.
type ViewState struct {
	VisibleEventIDs map[string]bool `json:"visible_event_ids"`
	MinYear         int             `json:"min_year"`
	MaxYear         int             `json:"max_year"`
}

// NewViewState builds a view showing ids over [minYear, maxYear].
func NewViewState(minYear, maxYear int, ids ...string) ViewState {
	v := ViewState{VisibleEventIDs: make(map[string]bool, len(ids)), MinYear: minYear, MaxYear: maxYear}
	for _, id := range ids {
		v.VisibleEventIDs[id] = true
	}
	return v
}

// Visible reports whether id is shown.
func (v ViewState) Visible(id string) bool {
	return v.VisibleEventIDs[id]
}

// Len returns the number of visible events.
func (v ViewState) Len() int {
	return len(v.VisibleEventIDs)
}

// IDs returns the visible ids in sorted order.
func (v ViewState) IDs() []string {
	ids := make([]string, 0, len(v.VisibleEventIDs))
	for id, on := range v.VisibleEventIDs {
		if on {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Clone returns a copy that shares no map with v.
func (v ViewState) Clone() ViewState {
	out := v
	out.VisibleEventIDs = maps.Clone(v.VisibleEventIDs)
	if out.VisibleEventIDs == nil {
		out.VisibleEventIDs = map[string]bool{}
	}
	return out
}

// Equal compares bounds and visible sets.
func (v ViewState) Equal(o ViewState) bool {
	return v.MinYear == o.MinYear && v.MaxYear == o.MaxYear && slices.Equal(v.IDs(), o.IDs())
}
