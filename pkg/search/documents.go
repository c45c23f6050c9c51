package search

import (
	"strings"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

// EventDocument returns the text representation used for indexing.
// Important fields are boosted by repetition: title (x2), tags and era (x1),
// description and story (x1).
func EventDocument(e model.Event) string {
	var parts []string

	title := strings.TrimSpace(e.Title)
	if title != "" {
		parts = append(parts, title, title)
	}

	tags := strings.TrimSpace(strings.Join(e.Tags, " "))
	if tags != "" {
		parts = append(parts, tags)
	}
	if e.Era != "" {
		parts = append(parts, string(e.Era))
	}

	if desc := strings.TrimSpace(e.Description); desc != "" {
		parts = append(parts, desc)
	}
	if story := strings.TrimSpace(e.Content.Story); story != "" {
		parts = append(parts, story)
	}

	return strings.Join(parts, "\n")
}

// DocumentsFromEvents builds an id->document map suitable for indexing.
func DocumentsFromEvents(events []model.Event) map[string]string {
	docs := make(map[string]string, len(events))
	for _, e := range events {
		if e.ID == "" {
			continue
		}
		docs[e.ID] = EventDocument(e)
	}
	return docs
}
