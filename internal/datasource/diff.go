package datasource

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vanderheijden86/chronarc/pkg/model"
)

// SourceDiff represents differences between two data sources
type SourceDiff struct {
	SourceA    string   `json:"source_a"`
	SourceB    string   `json:"source_b"`
	MissingInA []string `json:"missing_in_a,omitempty"` // ids in B only
	MissingInB []string `json:"missing_in_b,omitempty"` // ids in A only
	// Changed lists events whose placement or state differs.
	Changed []EventDifference `json:"changed,omitempty"`
	CountA  int               `json:"count_a"`
	CountB  int               `json:"count_b"`
}

// EventDifference records one field mismatch for an event present in both.
type EventDifference struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	A     string `json:"a"`
	B     string `json:"b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.Changed) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d events each)", d.CountA)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&sb, "  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	listIDs := func(ids []string, in, notIn string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&sb, "  - %d events in %s but not %s\n", len(ids), in, notIn)
		if len(ids) <= 5 {
			for _, id := range ids {
				fmt.Fprintf(&sb, "    - %s\n", id)
			}
		}
	}
	listIDs(d.MissingInA, d.SourceB, d.SourceA)
	listIDs(d.MissingInB, d.SourceA, d.SourceB)
	if len(d.Changed) > 0 {
		fmt.Fprintf(&sb, "  - %d field differences\n", len(d.Changed))
		if len(d.Changed) <= 5 {
			for _, c := range d.Changed {
				fmt.Fprintf(&sb, "    - %s %s: %s vs %s\n", c.ID, c.Field, c.A, c.B)
			}
		}
	}
	return sb.String()
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// IgnoreState skips state comparison, for sources where game progress
	// is expected to diverge.
	IgnoreState bool
	// MaxDifferences limits the number of differences tracked (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{MaxDifferences: 100}
}

// DetectInconsistencies compares two event sets. Results are sorted by id.
func DetectInconsistencies(eventsA, eventsB []model.Event, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{SourceA: sourceA, SourceB: sourceB}
	room := func(n int) bool { return opts.MaxDifferences == 0 || n < opts.MaxDifferences }

	mapA := make(map[string]model.Event, len(eventsA))
	for _, e := range eventsA {
		mapA[e.ID] = e
	}
	mapB := make(map[string]model.Event, len(eventsB))
	for _, e := range eventsB {
		mapB[e.ID] = e
	}
	diff.CountA, diff.CountB = len(mapA), len(mapB)

	for _, id := range sortedKeys(mapA) {
		if _, ok := mapB[id]; !ok && room(len(diff.MissingInB)) {
			diff.MissingInB = append(diff.MissingInB, id)
		}
	}
	for _, id := range sortedKeys(mapB) {
		b := mapB[id]
		a, ok := mapA[id]
		if !ok {
			if room(len(diff.MissingInA)) {
				diff.MissingInA = append(diff.MissingInA, id)
			}
			continue
		}
		for _, c := range compareEvents(a, b, opts) {
			if room(len(diff.Changed)) {
				diff.Changed = append(diff.Changed, c)
			}
		}
	}
	return diff
}

func compareEvents(a, b model.Event, opts DiffOptions) []EventDifference {
	var out []EventDifference
	add := func(field string, va, vb any) {
		sa, sb := fmt.Sprint(va), fmt.Sprint(vb)
		if sa != sb {
			out = append(out, EventDifference{ID: a.ID, Field: field, A: sa, B: sb})
		}
	}
	add("year", a.Year, b.Year)
	add("hierarchy_level", a.HierarchyLevel, b.HierarchyLevel)
	add("parent_event_id", a.ParentEventID, b.ParentEventID)
	add("weight", a.Weight, b.Weight)
	if !opts.IgnoreState {
		add("state", a.State, b.State)
	}
	return out
}

func sortedKeys(m map[string]model.Event) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CompareSources loads and compares two data sources
func CompareSources(ctx context.Context, sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	eventsA, err := LoadFromSource(ctx, sourceA)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}
	eventsB, err := LoadFromSource(ctx, sourceB)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}
	diff := DetectInconsistencies(eventsA, eventsB, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

// CheckAllSourcesConsistent compares every pair of valid sources and returns
// the inconsistent pairs. Pairs that fail to load are skipped.
func CheckAllSourcesConsistent(ctx context.Context, sources []DataSource, opts DiffOptions) []SourceDiff {
	var diffs []SourceDiff
	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid {
				continue
			}
			diff, err := CompareSources(ctx, sources[i], sources[j], opts)
			if err != nil {
				continue
			}
			if diff.HasInconsistencies() {
				diffs = append(diffs, *diff)
			}
		}
	}
	return diffs
}
