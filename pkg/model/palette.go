package model

// Palette colors. These must match the web client exactly.
const (
	ColorSafe       = "#4A90E2" // blue
	ColorDefended   = "#22C55E" // green
	ColorThreatened = "#F5A623" // orange
	ColorAttacked   = "#D0021B" // red
	ColorCorrupted  = "#6B7280" // gray
	ColorNeutral    = "#9ca3af" // no events
)

// StateColor maps a state to its palette color, neutral for anything unknown.
func StateColor(s EventState) string {
	switch s {
	case StateSafe:
		return ColorSafe
	case StateDefended:
		return ColorDefended
	case StateThreatened:
		return ColorThreatened
	case StateAttacked:
		return ColorAttacked
	case StateCorrupted:
		return ColorCorrupted
	default:
		return ColorNeutral
	}
}
