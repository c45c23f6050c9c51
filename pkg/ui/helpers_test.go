package ui

import (
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/segment"
)

func TestTruncateRunesHelper(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		max    int
		suffix string
		want   string
	}{
		{"fits", "Wheel", 10, "…", "Wheel"},
		{"exact", "Wheel", 5, "…", "Wheel"},
		{"cut", "Printing Press", 6, "…", "Print…"},
		{"zero", "Wheel", 0, "…", ""},
		{"suffix too wide", "Wheel", 1, "...", "."},
		{"wide runes", "日本語テキスト", 5, "…", "日本…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunesHelper(tt.in, tt.max, tt.suffix)
			if got != tt.want {
				t.Errorf("truncateRunesHelper(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if runewidth.StringWidth(got) > tt.max {
				t.Errorf("result %q wider than %d", got, tt.max)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not cut, got %q", got)
	}
}

func TestBarCells(t *testing.T) {
	tests := []struct {
		name   string
		counts segment.StateCounts
		width  int
	}{
		{"single", segment.StateCounts{Safe: 3, Total: 3}, 12},
		{"mixed", segment.StateCounts{Safe: 2, Attacked: 1, Defended: 1, Total: 4}, 12},
		{"tiny share", segment.StateCounts{Safe: 99, Corrupted: 1, Total: 100}, 12},
		{"narrow", segment.StateCounts{Safe: 1, Attacked: 1, Total: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stops := segment.ColorStops(tt.counts)
			cells := barCells(stops, tt.width)
			sum := 0
			for i, n := range cells {
				if n < 0 {
					t.Fatalf("negative cell count %d", n)
				}
				if tt.width >= len(stops) && stops[i].Proportion > 0 && n == 0 {
					t.Errorf("stop %s lost its cell", stops[i].Color)
				}
				sum += n
			}
			if sum != tt.width {
				t.Errorf("cells sum to %d, want %d", sum, tt.width)
			}
		})
	}
}

func TestBarCellsEmpty(t *testing.T) {
	if cells := barCells(nil, 10); len(cells) != 0 {
		t.Errorf("expected no cells, got %v", cells)
	}
}

func TestStateGlyphDistinct(t *testing.T) {
	seen := map[string]model.EventState{}
	for _, st := range model.AllStates {
		g := stateGlyph(st)
		if prev, dup := seen[g]; dup {
			t.Errorf("%s and %s share glyph %q", prev, st, g)
		}
		seen[g] = st
	}
}
