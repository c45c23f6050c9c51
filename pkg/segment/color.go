package segment

import "github.com/vanderheijden86/chronarc/pkg/model"

// alarmOrder is the tie-break for mixed segments: the worst state present wins.
var alarmOrder = []model.EventState{
	model.StateAttacked,
	model.StateCorrupted,
	model.StateThreatened,
	model.StateDefended,
	model.StateSafe,
}

// SegmentColor picks the single color for a tally. An empty tally is neutral;
// a uniform tally takes its state's color; anything else resolves by
// attacked > corrupted > threatened > defended > safe.
func SegmentColor(c StateCounts) string {
	if c.Total == 0 {
		return model.ColorNeutral
	}
	for _, st := range model.AllStates {
		if c.Of(st) == c.Total {
			return model.StateColor(st)
		}
	}
	for _, st := range alarmOrder {
		if c.Of(st) > 0 {
			return model.StateColor(st)
		}
	}
	return model.ColorSafe
}

// ColorStop is one band of a proportional gradient.
type ColorStop struct {
	Color      string  `json:"color"`
	Proportion float64 `json:"proportion"`
}

// ColorStops splits a tally into proportional bands ordered safe, defended,
// threatened, attacked, corrupted. An empty tally is one neutral band.
func ColorStops(c StateCounts) []ColorStop {
	if c.Total == 0 {
		return []ColorStop{{Color: model.ColorNeutral, Proportion: 1}}
	}
	var stops []ColorStop
	for _, st := range model.AllStates {
		if n := c.Of(st); n > 0 {
			stops = append(stops, ColorStop{
				Color:      model.StateColor(st),
				Proportion: float64(n) / float64(c.Total),
			})
		}
	}
	return stops
}
