package export

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/segment"
)

var stateIcons = map[model.EventState]string{
	model.StateSafe:       "🔵",
	model.StateDefended:   "🟢",
	model.StateThreatened: "🟠",
	model.StateAttacked:   "🔴",
	model.StateCorrupted:  "⚫",
}

func stateIcon(s model.EventState) string {
	if icon, ok := stateIcons[s]; ok {
		return icon
	}
	return "⚪"
}

// sanitizeCell keeps a value inside one markdown table cell.
func sanitizeCell(s string) string {
	r := strings.NewReplacer("|", "/", "\n", " ", "\r", "")
	return strings.TrimSpace(r.Replace(s))
}

// GenerateViewMarkdown creates a markdown report of one view: a summary
// table, then one section per segment.
func GenerateViewMarkdown(title string, visible []model.Event, segments []segment.DynamicSegment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	sorted := model.SortedByYear(visible)
	if len(sorted) > 0 {
		fmt.Fprintf(&sb, "*%s to %s, %d events on the arc*\n\n",
			model.FormatYear(sorted[0].Year), model.FormatYear(sorted[len(sorted)-1].Year), len(sorted))
	}

	sb.WriteString("## Events\n\n")
	sb.WriteString("| | Year | Event | Weight |\n|---|---|---|---|\n")
	for _, e := range sorted {
		fmt.Fprintf(&sb, "| %s | %s | %s | %.2g |\n", stateIcon(e.State), model.FormatYear(e.Year), sanitizeCell(e.Title), e.Weight)
	}
	sb.WriteString("\n")

	if len(segments) > 0 {
		sb.WriteString("## Segments\n\n")
		for _, s := range segments {
			sb.WriteString(SegmentMarkdown(s))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// SegmentMarkdown describes one segment and lists its hidden events.
func SegmentMarkdown(s segment.DynamicSegment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", s.ID)
	fmt.Fprintf(&sb, "%s to %s", model.FormatYear(s.StartYear), model.FormatYear(s.EndYear))
	if s.IsClickable {
		fmt.Fprintf(&sb, ", **%d hidden**", len(s.HiddenEvents))
	}
	sb.WriteString("\n\n")

	c := s.StateCounts
	var parts []string
	for _, st := range model.AllStates {
		if n := c.Of(st); n > 0 {
			parts = append(parts, fmt.Sprintf("%s %s %d", stateIcon(st), st, n))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&sb, "%s\n\n", strings.Join(parts, " · "))
	}

	for _, h := range s.HiddenEvents {
		fmt.Fprintf(&sb, "- %s **%s** %s", stateIcon(h.State), model.FormatYear(h.Year), h.Title)
		if h.Description != "" {
			fmt.Fprintf(&sb, ": %s", sanitizeCell(h.Description))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// EventMarkdown renders an event with its story and fun facts.
func EventMarkdown(e model.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s %s\n\n", stateIcon(e.State), e.Title)
	fmt.Fprintf(&sb, "*%s*", model.FormatYear(e.Year))
	if e.Era != "" {
		fmt.Fprintf(&sb, " · %s", e.Era)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(&sb, " · `%s`", strings.Join(e.Tags, "` `"))
	}
	sb.WriteString("\n\n")
	if e.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", e.Description)
	}
	if e.Content.Story != "" {
		fmt.Fprintf(&sb, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(e.Content.Story), "\n", "\n> "))
	}
	if len(e.Content.FunFacts) > 0 {
		sb.WriteString("**Fun facts**\n\n")
		for _, f := range e.Content.FunFacts {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}
	return sb.String()
}
