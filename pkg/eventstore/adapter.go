package eventstore

import "github.com/vanderheijden86/chronarc/pkg/model"

// ArcPosition places an event linearly on a 0..100 scale spanning the years
// of all. A zero-width range puts everything at 50.
func ArcPosition(e model.Event, all []model.Event) float64 {
	if len(all) == 0 {
		return 50
	}
	minYear, maxYear := all[0].Year, all[0].Year
	for _, o := range all[1:] {
		minYear = min(minYear, o.Year)
		maxYear = max(maxYear, o.Year)
	}
	span := maxYear - minYear
	if span <= 0 {
		return 50
	}
	return float64(e.Year-minYear) / float64(span) * 100
}

// EventsByLevel filters a flat slice down to one hierarchy level.
func EventsByLevel(all []model.Event, level int) []model.Event {
	var out []model.Event
	for _, e := range all {
		if e.HierarchyLevel == level {
			out = append(out, e)
		}
	}
	return out
}

// ChildEvents filters a flat slice down to the children of parentID.
func ChildEvents(all []model.Event, parentID string) []model.Event {
	var out []model.Event
	for _, e := range all {
		if e.ParentEventID == parentID {
			out = append(out, e)
		}
	}
	return out
}
