package content

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/segment"
	"github.com/vanderheijden86/chronarc/pkg/testutil"
)

func TestSampleWellFormed(t *testing.T) {
	events := MustSample()
	testutil.AssertEventCount(t, events, 37)
	testutil.AssertNoDuplicateIDs(t, events)
	testutil.AssertWellFormed(t, events)
	for _, e := range events {
		if err := e.Validate(); err != nil {
			t.Errorf("invalid sample event: %v", err)
		}
	}

	store := eventstore.MustNew(events)
	if n := len(store.TopLevel()); n != 6 {
		t.Errorf("expected 6 milestones, got %d", n)
	}
	wheel, _ := store.Get("evt-top-001")
	if wheel.Weight != 4 || wheel.Year != -3500 || len(wheel.Content.FunFacts) == 0 {
		t.Errorf("unexpected wheel event: %+v", wheel)
	}
}

func TestSampleTopSegments(t *testing.T) {
	events := MustSample()
	visible := make(map[string]bool)
	for _, e := range events {
		if e.HierarchyLevel == 0 {
			visible[e.ID] = true
		}
	}
	segs := segment.CalculateSegments(events, visible)
	if len(segs) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(segs))
	}

	wheelGap, _ := segment.Find(segs, "seg-evt-top-001-evt-top-002")
	if len(wheelGap.HiddenEvents) != 5 {
		t.Errorf("expected 5 ancient children, got %v", wheelGap.HiddenIDs())
	}
	// The printing press is attacked, so its segment is red whatever else is inside.
	pressGap, _ := segment.Find(segs, "seg-evt-top-002-evt-top-003")
	if pressGap.Color != model.ColorAttacked {
		t.Errorf("expected attacked color, got %s", pressGap.Color)
	}
	// Children sharing the start year (American Revolution, 1776) are not strictly inside.
	steamGap, _ := segment.Find(segs, "seg-evt-top-003-evt-top-004")
	if got := steamGap.HiddenIDs(); len(got) != 4 || got[0] != "evt-l1-202" {
		t.Errorf("unexpected steam era children: %v", got)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("events:\n  - id: a\n    colour: red\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestDecodeEmpty(t *testing.T) {
	events, err := Decode(strings.NewReader(""))
	if err != nil || len(events) != 0 {
		t.Fatalf("expected no events and no error, got %v, %v", events, err)
	}
}

func TestEncodeDecodeKeepsHierarchy(t *testing.T) {
	in := testutil.Scenario()
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEventCount(t, out, len(in))
	child := testutil.FindEvent(out, "a1")
	if child == nil || child.ParentEventID != "a" || child.HierarchyLevel != 1 {
		t.Errorf("child lost its place in the hierarchy: %+v", child)
	}
}
