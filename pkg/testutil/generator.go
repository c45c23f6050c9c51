// Package testutil provides deterministic event hierarchies for tests.
// All generators produce the same output for the same seed.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

// GeneratorConfig controls hierarchy generation.
type GeneratorConfig struct {
	Seed      int64              // Random seed (0 = 42)
	IDPrefix  string             // Prefix for event ids (default "EVT")
	StartYear int                // First top-level year
	EndYear   int                // Upper bound for top-level years
	TopLevel  int                // Number of level 0 events
	Children  int                // Children per event on each lower level
	Depth     int                // Number of levels below the top
	StateMix  []model.EventState // States to draw from (nil = all safe)
	MinWeight float64            // Weight range; equal bounds give a fixed weight
	MaxWeight float64
}

// DefaultConfig returns a config suitable for most tests: six milestones
// from 3500 BCE to 2000 CE with two levels of five children.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		IDPrefix:  "EVT",
		StartYear: -3500,
		EndYear:   2000,
		TopLevel:  6,
		Children:  5,
		Depth:     2,
		StateMix:  []model.EventState{model.StateSafe},
		MinWeight: 1,
		MaxWeight: 1,
	}
}

// Generator creates event hierarchies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config, filling unset fields from
// DefaultConfig.
func New(cfg GeneratorConfig) *Generator {
	def := DefaultConfig()
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = def.IDPrefix
	}
	if cfg.StartYear == 0 && cfg.EndYear == 0 {
		cfg.StartYear, cfg.EndYear = def.StartYear, def.EndYear
	}
	if cfg.TopLevel <= 0 {
		cfg.TopLevel = def.TopLevel
	}
	if len(cfg.StateMix) == 0 {
		cfg.StateMix = def.StateMix
	}
	if cfg.MinWeight <= 0 {
		cfg.MinWeight = def.MinWeight
	}
	if cfg.MaxWeight < cfg.MinWeight {
		cfg.MaxWeight = cfg.MinWeight
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Hierarchy builds a well-formed tree. Every child lies strictly between its
// parent's year and the parent's next sibling, so each child is hidden in the
// segment its parent starts. The last sibling's children extend past it.
func (g *Generator) Hierarchy() []model.Event {
	span := g.cfg.EndYear - g.cfg.StartYear
	step := max(span/g.cfg.TopLevel, 1)

	var events []model.Event
	tops := make([]model.Event, g.cfg.TopLevel)
	for i := range tops {
		tops[i] = g.event(fmt.Sprintf("%s-%d", g.cfg.IDPrefix, i), g.cfg.StartYear+i*step, 0, "")
	}
	events = append(events, tops...)
	g.addChildren(&events, tops, step, 1)
	return events
}

func (g *Generator) addChildren(out *[]model.Event, parents []model.Event, step, level int) {
	if level > g.cfg.Depth || g.cfg.Children <= 0 {
		return
	}
	for i, p := range parents {
		hi := p.Year + step
		if i+1 < len(parents) {
			hi = parents[i+1].Year
		}
		years := g.distinctBetween(p.Year, hi, g.cfg.Children)
		kids := make([]model.Event, len(years))
		for j, y := range years {
			kids[j] = g.event(fmt.Sprintf("%s.%d", p.ID, j), y, level, p.ID)
		}
		*out = append(*out, kids...)

		childStep := max((hi-p.Year)/(len(kids)+1), 1)
		g.addChildren(out, kids, childStep, level+1)
	}
}

// distinctBetween spreads up to k increasing years strictly inside (lo, hi),
// jittering each by less than a quarter of the gap so neighbours keep room
// for their own children.
func (g *Generator) distinctBetween(lo, hi, k int) []int {
	room := hi - lo - 1
	if room <= 0 {
		return nil
	}
	k = min(k, room)
	gap := (hi - lo) / (k + 1)
	years := make([]int, k)
	for i := range years {
		y := lo + (i+1)*gap
		if gap >= 4 {
			y += g.rng.Intn(gap / 4)
		}
		years[i] = y
	}
	return years
}

func (g *Generator) event(id string, year, level int, parent string) model.Event {
	w := g.cfg.MinWeight
	if g.cfg.MaxWeight > g.cfg.MinWeight {
		w += g.rng.Float64() * (g.cfg.MaxWeight - g.cfg.MinWeight)
	}
	return model.Event{
		ID:             id,
		Title:          strings.ReplaceAll(id, "-", " "),
		Year:           year,
		HierarchyLevel: level,
		ParentEventID:  parent,
		IsKeyEvent:     level == 0,
		Weight:         w,
		State:          g.cfg.StateMix[g.rng.Intn(len(g.cfg.StateMix))],
	}
}

// ToJSONL serializes events one per line.
func ToJSONL(events []model.Event) string {
	var sb strings.Builder
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Scenario returns the three milestones used throughout the docs:
// a (-3500, w4), b (1450, w2), c (1969, w0.3), plus one level 1 child of a
// in year 1000.
func Scenario() []model.Event {
	return []model.Event{
		{ID: "a", Title: "The Wheel", Year: -3500, Weight: 4, State: model.StateSafe, IsKeyEvent: true},
		{ID: "b", Title: "The Printing Press", Year: 1450, Weight: 2, State: model.StateSafe, IsKeyEvent: true},
		{ID: "c", Title: "Moon Landing", Year: 1969, Weight: 0.3, State: model.StateSafe, IsKeyEvent: true},
		{ID: "a1", Title: "Gunpowder", Year: 1000, Weight: 1, State: model.StateAttacked, HierarchyLevel: 1, ParentEventID: "a"},
	}
}

// QuickHierarchy builds a default hierarchy with the given shape.
func QuickHierarchy(top, children, depth int) []model.Event {
	cfg := DefaultConfig()
	cfg.TopLevel, cfg.Children, cfg.Depth = top, children, depth
	return New(cfg).Hierarchy()
}
