package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a close
// ANSI color for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return ansiFallback(hex)
	}
	return lipgloss.Color(hex)
}

// ansiFallback keeps the palette distinguishable on basic terminals.
func ansiFallback(hex string) lipgloss.TerminalColor {
	switch hex {
	case model.ColorSafe:
		return lipgloss.ANSIColor(4)
	case model.ColorDefended:
		return lipgloss.ANSIColor(2)
	case model.ColorThreatened:
		return lipgloss.ANSIColor(3)
	case model.ColorAttacked:
		return lipgloss.ANSIColor(1)
	default:
		return lipgloss.ANSIColor(7)
	}
}

// Theme groups the styles the navigator renders with.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Header    lipgloss.Style
	Selected  lipgloss.Style
	MutedText lipgloss.Style
	Badge     lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Panel     lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,
		Primary:  lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Muted:    lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Border:   lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.Selected = r.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.Badge = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Status = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"})
	t.Error = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}).Bold(true)
	t.Panel = r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	return t
}

// StateStyle colors text with the palette color of an event state.
func StateStyle(s model.EventState) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ThemeFg(model.StateColor(s)))
}

// stateGlyph is the one-cell marker shown before an event.
func stateGlyph(s model.EventState) string {
	switch s {
	case model.StateAttacked:
		return "✖"
	case model.StateCorrupted:
		return "☠"
	case model.StateThreatened:
		return "!"
	case model.StateDefended:
		return "✔"
	default:
		return "●"
	}
}
