// Package position maps events onto the curve parameter t in [0,1].
//
// Each event reserves curve space after itself in proportion to its weight,
// so dense eras can be given more room than sparse ones. The last event in
// year order never reserves space and always sits at t = 1.
package position

import (
	"gonum.org/v1/gonum/floats"

	"github.com/vanderheijden86/chronarc/pkg/metrics"
	"github.com/vanderheijden86/chronarc/pkg/model"
)

// ComputeWeightedPositions assigns every event a t in [0,1].
//
// An empty input yields an empty map and a single event sits at 0. When all
// weights before the last event are zero, those events collapse onto 0.
// Negative weights count as zero.
func ComputeWeightedPositions(events []model.Event) map[string]float64 {
	defer metrics.Timer(metrics.PositionMapping)()

	sorted := model.SortedByYear(events)
	return weightedPositions(sorted)
}

// weightedPositions expects events already sorted by year.
func weightedPositions(sorted []model.Event) map[string]float64 {
	n := len(sorted)
	positions := make(map[string]float64, n)
	switch n {
	case 0:
		return positions
	case 1:
		positions[sorted[0].ID] = 0
		return positions
	}

	weights := make([]float64, n-1)
	for i, e := range sorted[:n-1] {
		weights[i] = max(e.Weight, 0)
	}
	total := floats.Sum(weights)
	cumulative := floats.CumSum(make([]float64, n-1), weights)

	positions[sorted[0].ID] = 0
	for i := 1; i < n-1; i++ {
		if total == 0 {
			positions[sorted[i].ID] = 0
			continue
		}
		positions[sorted[i].ID] = cumulative[i-1] / total
	}
	positions[sorted[n-1].ID] = 1
	return positions
}

// YearToT converts any year to t by interpolating between the two events
// that bracket it. Years outside the event range clamp to the nearest end.
// With no events the result is 0.
//
// When several events share a year, that year maps to the t of the first of
// them in year order (input order among ties), so the later tied events sit
// to its right with no year of their own. The one exception is the last year
// of the range, which clamps to the final event and so to t = 1.
func YearToT(year int, events []model.Event, positions map[string]float64) float64 {
	return yearToT(year, model.SortedByYear(events), positions)
}

func yearToT(year int, sorted []model.Event, positions map[string]float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	first, last := sorted[0], sorted[n-1]
	if year <= first.Year {
		return positions[first.ID]
	}
	if year >= last.Year {
		return positions[last.ID]
	}

	before, after := first, last
	for i := 0; i < n-1; i++ {
		if sorted[i].Year <= year && year <= sorted[i+1].Year {
			before, after = sorted[i], sorted[i+1]
			break
		}
	}

	tBefore := positions[before.ID]
	if after.Year == before.Year {
		return tBefore
	}
	tAfter := positions[after.ID]
	ratio := float64(year-before.Year) / float64(after.Year-before.Year)
	return tBefore + ratio*(tAfter-tBefore)
}

// Mapper caches the sorted events and their positions so repeated year
// lookups for one visible set skip the sort.
type Mapper struct {
	sorted    []model.Event
	positions map[string]float64
}

// NewMapper computes positions for events once.
func NewMapper(events []model.Event) *Mapper {
	defer metrics.Timer(metrics.PositionMapping)()

	sorted := model.SortedByYear(events)
	return &Mapper{
		sorted:    sorted,
		positions: weightedPositions(sorted),
	}
}

// T returns the position of an event id and whether it is mapped.
func (m *Mapper) T(id string) (float64, bool) {
	t, ok := m.positions[id]
	return t, ok
}

// YearToT interpolates an arbitrary year. Shared years resolve as in the
// package-level YearToT.
func (m *Mapper) YearToT(year int) float64 {
	return yearToT(year, m.sorted, m.positions)
}

// Positions returns a copy of the id -> t map.
func (m *Mapper) Positions() map[string]float64 {
	out := make(map[string]float64, len(m.positions))
	for k, v := range m.positions {
		out[k] = v
	}
	return out
}

// Events returns the mapped events in year order.
func (m *Mapper) Events() []model.Event {
	out := make([]model.Event, len(m.sorted))
	copy(out, m.sorted)
	return out
}

// Span returns the t range covered by the years [startYear, endYear].
func (m *Mapper) Span(startYear, endYear int) (t0, t1 float64) {
	return m.YearToT(startYear), m.YearToT(endYear)
}
