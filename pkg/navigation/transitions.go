package navigation

import (
	"math"

	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/segment"
)

// OpenEndedSpan is the year range given to a sibling view that has no
// following sibling to close it.
const OpenEndedSpan = 100

// InitialViewState shows every level 0 event over the year range of all
// events, deeper levels included.
func InitialViewState(all []model.Event) ViewState {
	v := ViewState{VisibleEventIDs: make(map[string]bool)}
	if len(all) == 0 {
		return v
	}
	v.MinYear, v.MaxYear = math.MaxInt, math.MinInt
	for _, e := range all {
		if e.HierarchyLevel == 0 {
			v.VisibleEventIDs[e.ID] = true
		}
		v.MinYear = min(v.MinYear, e.Year)
		v.MaxYear = max(v.MaxYear, e.Year)
	}
	return v
}

// DrillDown replaces the view with a segment's hidden events, framed by their
// own year span. The boundary events drop out. A segment without hidden
// events yields its own bounds and an empty view; callers gate on
// IsClickable.
func DrillDown(seg segment.DynamicSegment) ViewState {
	if len(seg.HiddenEvents) == 0 {
		return NewViewState(seg.StartYear, seg.EndYear)
	}
	v := ViewState{
		VisibleEventIDs: make(map[string]bool, len(seg.HiddenEvents)),
		MinYear:         seg.HiddenEvents[0].Year,
		MaxYear:         seg.HiddenEvents[0].Year,
	}
	for _, e := range seg.HiddenEvents {
		v.VisibleEventIDs[e.ID] = true
		v.MinYear = min(v.MinYear, e.Year)
		v.MaxYear = max(v.MaxYear, e.Year)
	}
	return v
}

// NextSibling moves the view one sibling later under the same parent.
// ok is false at level 0 or when the view already starts at the last sibling.
func NextSibling(all []model.Event, current ViewState) (ViewState, bool) {
	siblings, idx, ok := locate(all, current)
	if !ok || idx+1 >= len(siblings) {
		return ViewState{}, false
	}
	var end *model.Event
	if idx+2 < len(siblings) {
		end = &siblings[idx+2]
	}
	return siblingView(all, siblings[idx+1], end), true
}

// PrevSibling moves the view one sibling earlier. The sibling that started
// the current view closes the new one.
func PrevSibling(all []model.Event, current ViewState) (ViewState, bool) {
	siblings, idx, ok := locate(all, current)
	if !ok || idx == 0 {
		return ViewState{}, false
	}
	return siblingView(all, siblings[idx-1], &siblings[idx]), true
}

// locate finds the year-ordered siblings of the current view and the index
// of the first visible one among them. The parent comes from the earliest
// visible event; level 0 views have no parent and never locate.
func locate(all []model.Event, current ViewState) ([]model.Event, int, bool) {
	var first *model.Event
	for i := range all {
		e := &all[i]
		if !current.Visible(e.ID) {
			continue
		}
		if first == nil || e.Year < first.Year {
			first = e
		}
	}
	if first == nil || !first.HasParent() {
		return nil, 0, false
	}

	var siblings []model.Event
	for _, e := range all {
		if e.ParentEventID == first.ParentEventID {
			siblings = append(siblings, e)
		}
	}
	model.SortByYear(siblings)

	for i, s := range siblings {
		if current.Visible(s.ID) {
			return siblings, i, true
		}
	}
	return nil, 0, false
}

// siblingView shows start, end and every event of start's hierarchy level
// strictly between them. A missing end is open-ended for membership and
// closes the frame OpenEndedSpan years after start.
func siblingView(all []model.Event, start model.Event, end *model.Event) ViewState {
	v := NewViewState(start.Year, start.Year+OpenEndedSpan, start.ID)
	upper := math.MaxInt
	if end != nil {
		v.VisibleEventIDs[end.ID] = true
		v.MaxYear = end.Year
		upper = end.Year
	}
	for _, e := range all {
		if e.HierarchyLevel != start.HierarchyLevel {
			continue
		}
		if e.Year > start.Year && e.Year < upper {
			v.VisibleEventIDs[e.ID] = true
		}
	}
	return v
}
