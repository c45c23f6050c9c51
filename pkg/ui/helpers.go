package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/chronarc/pkg/segment"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		// Even suffix is too wide, truncate suffix
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// padRight pads s with spaces to the given cell width.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// truncate truncates string s to maxWidth cells.
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// barCells splits width cells between color stops. Every stop with a
// non-zero share gets at least one cell when width allows it; rounding
// leftovers go to the largest stop.
func barCells(stops []segment.ColorStop, width int) []int {
	cells := make([]int, len(stops))
	if width <= 0 || len(stops) == 0 {
		return cells
	}
	used, largest := 0, 0
	for i, s := range stops {
		n := int(s.Proportion * float64(width))
		if n == 0 && s.Proportion > 0 && used < width {
			n = 1
		}
		cells[i] = n
		used += n
		if s.Proportion > stops[largest].Proportion {
			largest = i
		}
	}
	cells[largest] += width - used
	if cells[largest] < 0 {
		cells[largest] = 0
	}
	return cells
}

// renderBar draws a proportional state bar for a segment.
func renderBar(c segment.StateCounts, width int) string {
	stops := segment.ColorStops(c)
	cells := barCells(stops, width)
	var sb strings.Builder
	for i, s := range stops {
		if cells[i] == 0 {
			continue
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(ThemeFg(s.Color)).Render(strings.Repeat("█", cells[i])))
	}
	return sb.String()
}
