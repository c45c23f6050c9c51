package position

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func scenarioEvents() []model.Event {
	return []model.Event{
		{ID: "c", Year: 1969, Weight: 0.3},
		{ID: "a", Year: -3500, Weight: 4},
		{ID: "b", Year: 1450, Weight: 2},
	}
}

func TestComputeWeightedPositionsScenario(t *testing.T) {
	pos := ComputeWeightedPositions(scenarioEvents())

	if !approx(pos["a"], 0) {
		t.Errorf("t(a) = %v, want 0", pos["a"])
	}
	if !approx(pos["b"], 4.0/6.0) {
		t.Errorf("t(b) = %v, want %v", pos["b"], 4.0/6.0)
	}
	if !approx(pos["c"], 1) {
		t.Errorf("t(c) = %v, want 1", pos["c"])
	}
}

func TestComputeWeightedPositionsDegenerate(t *testing.T) {
	if got := ComputeWeightedPositions(nil); len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}

	single := ComputeWeightedPositions([]model.Event{{ID: "solo", Year: 100, Weight: 5}})
	if len(single) != 1 || single["solo"] != 0 {
		t.Errorf("expected lone event at 0, got %v", single)
	}

	zero := ComputeWeightedPositions([]model.Event{
		{ID: "a", Year: 1, Weight: 0},
		{ID: "b", Year: 2, Weight: 0},
		{ID: "c", Year: 3, Weight: 9}, // last weight is ignored
	})
	if zero["a"] != 0 || zero["b"] != 0 || zero["c"] != 1 {
		t.Errorf("zero total weight: got %v", zero)
	}
}

func TestLastWeightIgnored(t *testing.T) {
	base := scenarioEvents()
	heavy := scenarioEvents()
	heavy[0].Weight = 1000 // "c" is last

	p1 := ComputeWeightedPositions(base)
	p2 := ComputeWeightedPositions(heavy)
	for id := range p1 {
		if !approx(p1[id], p2[id]) {
			t.Errorf("%s moved when last weight changed: %v -> %v", id, p1[id], p2[id])
		}
	}
}

func TestYearToT(t *testing.T) {
	events := scenarioEvents()
	pos := ComputeWeightedPositions(events)

	tests := []struct {
		name string
		year int
		want float64
	}{
		{"before range clamps", -9999, 0},
		{"after range clamps", 3000, 1},
		{"exact event", 1450, 4.0 / 6.0},
		{"midpoint first gap", (-3500 + 1450) / 2, (4.0 / 6.0) / 2},
		{"inside last gap", 1450 + (1969-1450)/2, 4.0/6.0 + (float64((1969-1450)/2)/float64(1969-1450))*(1-4.0/6.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearToT(tt.year, events, pos)
			if !approx(got, tt.want) {
				t.Errorf("YearToT(%d) = %v, want %v", tt.year, got, tt.want)
			}
		})
	}

	if got := YearToT(5, nil, nil); got != 0 {
		t.Errorf("empty events: expected 0, got %v", got)
	}
}

func TestYearToTSharedYear(t *testing.T) {
	events := []model.Event{
		{ID: "a", Year: 100, Weight: 1},
		{ID: "b", Year: 100, Weight: 1},
		{ID: "c", Year: 200, Weight: 1},
	}
	pos := ComputeWeightedPositions(events)
	// The (a, b) bracket shares a year, so the earlier event's t is used.
	if got := YearToT(100, events, pos); got != pos["a"] {
		t.Errorf("expected t(a)=%v for shared year, got %v", pos["a"], got)
	}
}

func TestYearToTInteriorTie(t *testing.T) {
	events := []model.Event{
		{ID: "x", Year: 0, Weight: 1},
		{ID: "b", Year: 100, Weight: 1},
		{ID: "a", Year: 100, Weight: 1},
		{ID: "y", Year: 200, Weight: 1},
		{ID: "z", Year: 200, Weight: 1},
	}
	m := NewMapper(events)
	pos := m.Positions()
	if pos["b"] >= pos["a"] {
		t.Fatalf("tied events should keep input order, got b=%v a=%v", pos["b"], pos["a"])
	}
	if got := m.YearToT(100); got != pos["b"] {
		t.Errorf("shared year should map to the first tied event b=%v, got %v", pos["b"], got)
	}
	// Past the tie, interpolation starts from the last tied event.
	if got, want := m.YearToT(150), (pos["a"]+pos["y"])/2; !approx(got, want) {
		t.Errorf("YearToT(150) = %v, want %v", got, want)
	}
	if got := m.YearToT(200); got != 1 || pos["z"] != 1 {
		t.Errorf("last year should clamp to the final event, got %v", got)
	}
}

func TestMapperMatchesFunctions(t *testing.T) {
	events := scenarioEvents()
	m := NewMapper(events)
	pos := ComputeWeightedPositions(events)

	for id, want := range pos {
		got, ok := m.T(id)
		if !ok || !approx(got, want) {
			t.Errorf("Mapper.T(%s) = %v,%v want %v", id, got, ok, want)
		}
	}
	for _, y := range []int{-4000, -1000, 1450, 1700, 2100} {
		if !approx(m.YearToT(y), YearToT(y, events, pos)) {
			t.Errorf("Mapper.YearToT(%d) disagrees with YearToT", y)
		}
	}
	if _, ok := m.T("missing"); ok {
		t.Error("expected unknown id to be unmapped")
	}
}

// distinctYearEvents draws events with unique years and positive weights.
func distinctYearEvents(t *rapid.T) []model.Event {
	years := rapid.SliceOfNDistinct(rapid.IntRange(-5000, 2100), 2, 40, rapid.ID[int]).Draw(t, "years")
	events := make([]model.Event, len(years))
	for i, y := range years {
		events[i] = model.Event{
			ID:     fmt.Sprintf("e%d", i),
			Year:   y,
			Weight: rapid.Float64Range(0.1, 10).Draw(t, "weight"),
		}
	}
	return events
}

func TestPropertyDeltasProportionalToWeight(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events := distinctYearEvents(t)
		pos := ComputeWeightedPositions(events)

		sorted := model.SortedByYear(events)
		total := 0.0
		for _, e := range sorted[:len(sorted)-1] {
			total += e.Weight
		}
		for i := 0; i < len(sorted)-1; i++ {
			delta := pos[sorted[i+1].ID] - pos[sorted[i].ID]
			want := sorted[i].Weight / total
			if math.Abs(delta-want) > 1e-9 {
				t.Fatalf("delta after %s = %v, want %v", sorted[i].ID, delta, want)
			}
		}
	})
}

func TestPropertyYearToTAgreesWithPositions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events := distinctYearEvents(t)
		pos := ComputeWeightedPositions(events)
		for _, e := range events {
			if got := YearToT(e.Year, events, pos); math.Abs(got-pos[e.ID]) > 1e-9 {
				t.Fatalf("YearToT(%d) = %v, want t(%s) = %v", e.Year, got, e.ID, pos[e.ID])
			}
		}
	})
}

func TestPropertyYearToTMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events := distinctYearEvents(t)
		m := NewMapper(events)
		years := rapid.SliceOfN(rapid.IntRange(-6000, 2200), 2, 20).Draw(t, "years")
		slices.Sort(years)
		prev := -1.0
		for _, y := range years {
			tt := m.YearToT(y)
			if tt < prev-1e-12 || tt < 0 || tt > 1 {
				t.Fatalf("YearToT(%d) = %v not monotonic in [0,1] (prev %v)", y, tt, prev)
			}
			prev = tt
		}
	})
}
