package eventstore

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/testutil"
)

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]model.Event{{ID: "a"}, {ID: " a "}})
	if !errors.Is(err, ErrDuplicateEvent) {
		t.Fatalf("expected ErrDuplicateEvent, got %v", err)
	}
}

func TestNewCopiesAndNormalizes(t *testing.T) {
	in := []model.Event{{ID: "a", Year: 10}}
	s := MustNew(in)
	in[0].Year = 99

	got, ok := s.Get("a")
	if !ok {
		t.Fatal("a not found")
	}
	if got.Year != 10 {
		t.Errorf("store shares caller slice: year %d", got.Year)
	}
	if got.Weight != model.DefaultWeight || got.State != model.StateSafe {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestChildrenYearOrdered(t *testing.T) {
	s := MustNew([]model.Event{
		{ID: "p", Year: 0},
		{ID: "c3", Year: 30, HierarchyLevel: 1, ParentEventID: "p"},
		{ID: "c1", Year: 10, HierarchyLevel: 1, ParentEventID: "p"},
		{ID: "c2", Year: 20, HierarchyLevel: 1, ParentEventID: "p"},
	})

	got := testutil.GetIDs(s.Children("p"))
	want := []string{"c1", "c2", "c3"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("child %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if len(s.Children("c1")) != 0 {
		t.Error("leaf should have no children")
	}
	if s.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", s.Depth())
	}
}

func TestLevelsAndBounds(t *testing.T) {
	events := testutil.QuickHierarchy(4, 3, 1)
	s := MustNew(events)

	if len(s.TopLevel()) != 4 {
		t.Errorf("expected 4 top level events, got %d", len(s.TopLevel()))
	}
	if len(s.ByLevel(1)) != 12 {
		t.Errorf("expected 12 level 1 events, got %d", len(s.ByLevel(1)))
	}

	lo, hi, ok := s.YearBounds()
	if !ok {
		t.Fatal("bounds on non-empty store")
	}
	for _, e := range events {
		if e.Year < lo || e.Year > hi {
			t.Errorf("%s year %d outside [%d, %d]", e.ID, e.Year, lo, hi)
		}
	}

	if _, _, ok := MustNew(nil).YearBounds(); ok {
		t.Error("empty store should report no bounds")
	}
}

func TestResolveSkipsUnknown(t *testing.T) {
	s := MustNew(testutil.Scenario())
	got := s.Resolve([]string{"a", "zzz", "c"})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("unexpected resolve result: %v", testutil.GetIDs(got))
	}
	if s.Has("zzz") {
		t.Error("Has(zzz) should be false")
	}
}

func TestStateBook(t *testing.T) {
	s := MustNew(testutil.Scenario())
	b := NewStateBook(s)

	if err := b.SimulateAttack("a"); err != nil {
		t.Fatalf("attack on safe event: %v", err)
	}
	if !b.CanDefend("a") {
		t.Error("attacked event should be defendable")
	}
	if err := b.SimulateAttack("a"); !errors.Is(err, ErrNotAttackable) {
		t.Errorf("second attack: expected ErrNotAttackable, got %v", err)
	}

	if err := b.HandleDefenseOutcome("a", true); err != nil {
		t.Fatal(err)
	}
	if st, _ := b.State("a"); st != model.StateDefended {
		t.Errorf("expected defended, got %s", st)
	}
	if err := b.HandleDefenseOutcome("a1", false); err != nil {
		t.Fatal(err)
	}
	if st, _ := b.State("a1"); st != model.StateCorrupted {
		t.Errorf("expected corrupted, got %s", st)
	}

	if err := b.Set("nope", model.StateSafe); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
	if err := b.Set("a", "burning"); !errors.Is(err, model.ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}

	// The store stays untouched; the snapshot carries book states.
	if orig, _ := s.Get("a"); orig.State != model.StateSafe {
		t.Errorf("store mutated: %s", orig.State)
	}
	snap := testutil.BuildEventMap(b.Events())
	if snap["a"].State != model.StateDefended {
		t.Errorf("snapshot state: %s", snap["a"].State)
	}
}

func TestStateBookAdopt(t *testing.T) {
	old := NewStateBook(MustNew(testutil.Scenario()))
	if err := old.HandleDefenseOutcome("a1", true); err != nil {
		t.Fatal(err)
	}
	if err := old.SimulateAttack("b"); err != nil {
		t.Fatal(err)
	}

	// c is gone from the reloaded content.
	var events []model.Event
	for _, e := range testutil.Scenario() {
		if e.ID != "c" {
			events = append(events, e)
		}
	}
	b := NewStateBook(MustNew(events))
	if err := old.SimulateAttack("c"); err != nil {
		t.Fatal(err)
	}

	if n := b.Adopt(old); n != 2 {
		t.Errorf("expected 2 carried states, got %d", n)
	}
	if st, _ := b.State("a1"); st != model.StateDefended {
		t.Errorf("a1: got %s", st)
	}
	if st, _ := b.State("b"); st != model.StateAttacked {
		t.Errorf("b: got %s", st)
	}
	if _, ok := b.State("c"); ok {
		t.Error("c should not come back")
	}
	if b.Adopt(nil) != 0 || b.Adopt(b) != 0 {
		t.Error("nil or self adopt should be a no-op")
	}
}

func TestSnapshotLookupFunc(t *testing.T) {
	s := MustNew(testutil.Scenario())
	lookup := StateLookupFunc(func(id string) (model.EventState, bool) {
		if id == "b" {
			return model.StateThreatened, true
		}
		return "", false
	})
	snap := testutil.BuildEventMap(s.Snapshot(lookup))
	if snap["b"].State != model.StateThreatened {
		t.Errorf("b: expected threatened, got %s", snap["b"].State)
	}
	if snap["a1"].State != model.StateAttacked {
		t.Errorf("a1 should keep stored state, got %s", snap["a1"].State)
	}
}

func TestArcPosition(t *testing.T) {
	all := []model.Event{{ID: "x", Year: 0}, {ID: "y", Year: 50}, {ID: "z", Year: 200}}
	tests := []struct {
		name string
		e    model.Event
		all  []model.Event
		want float64
	}{
		{"start", all[0], all, 0},
		{"quarter", all[1], all, 25},
		{"end", all[2], all, 100},
		{"empty", all[0], nil, 50},
		{"zero span", all[0], all[:1], 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArcPosition(tt.e, tt.all); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFlatFilters(t *testing.T) {
	events := testutil.Scenario()
	if n := len(EventsByLevel(events, 0)); n != 3 {
		t.Errorf("expected 3 level 0 events, got %d", n)
	}
	kids := ChildEvents(events, "a")
	if len(kids) != 1 || kids[0].ID != "a1" {
		t.Errorf("unexpected children of a: %v", testutil.GetIDs(kids))
	}
}

func TestVerify(t *testing.T) {
	if problems := MustNew(testutil.QuickHierarchy(3, 2, 2)).Verify(); len(problems) != 0 {
		t.Errorf("generated hierarchy should verify, got %v", problems)
	}

	s := MustNew([]model.Event{
		{ID: "root"},
		{ID: "orphan", HierarchyLevel: 1, ParentEventID: "ghost"},
		{ID: "skip", HierarchyLevel: 2, ParentEventID: "root"},
		{ID: "floating", HierarchyLevel: 3},
	})
	problems := s.Verify()
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems, got %v", problems)
	}
	for _, p := range problems {
		if !errors.Is(p, ErrBrokenHierarchy) {
			t.Errorf("expected ErrBrokenHierarchy, got %v", p)
		}
	}
}

func TestVerifyChildOutsideParentGap(t *testing.T) {
	s := MustNew([]model.Event{
		{ID: "a", Year: 0},
		{ID: "b", Year: 100},
		{ID: "a1", Year: 50, HierarchyLevel: 1, ParentEventID: "a"},
		{ID: "a2", Year: 500, HierarchyLevel: 1, ParentEventID: "a"},
		{ID: "a3", Year: 0, HierarchyLevel: 1, ParentEventID: "a"},
		{ID: "b1", Year: 900, HierarchyLevel: 1, ParentEventID: "b"},
		{ID: "b2", Year: 90, HierarchyLevel: 1, ParentEventID: "b"},
		{ID: "a1x", Year: 60, HierarchyLevel: 2, ParentEventID: "a1"},
		{ID: "a1y", Year: 40, HierarchyLevel: 2, ParentEventID: "a1"},
	})

	var outside []string
	for _, p := range s.Verify() {
		if !errors.Is(p, ErrBrokenHierarchy) || !errors.Is(p, ErrOutsideParentGap) {
			t.Errorf("unexpected problem %v", p)
			continue
		}
		outside = append(outside, strings.Fields(strings.SplitN(p.Error(), ": ", 3)[2])[0])
	}
	slices.Sort(outside)
	// b1 follows the last milestone and a1x lies between a1 and a2.
	want := []string{"a1y", "a2", "a3", "b2"}
	if !slices.Equal(outside, want) {
		t.Errorf("got %v, want %v", outside, want)
	}
}

func TestAttackRandomRepeatable(t *testing.T) {
	events := testutil.QuickHierarchy(4, 3, 1)
	store := MustNew(events)

	wave := func(seed uint64, chance float64) []string {
		book := NewStateBook(store)
		return book.AttackRandom(rand.New(rand.NewPCG(seed, seed)), chance)
	}

	if a, b := wave(7, 0.5), wave(7, 0.5); !slices.Equal(a, b) {
		t.Errorf("same seed gave different waves: %v vs %v", a, b)
	}
	if hit := wave(1, 0); len(hit) != 0 {
		t.Errorf("chance 0 attacked %v", hit)
	}

	book := NewStateBook(store)
	hit := book.AttackRandom(rand.New(rand.NewPCG(1, 2)), 1)
	if len(hit) != store.Len() {
		t.Fatalf("chance 1 should attack all %d safe events, got %d", store.Len(), len(hit))
	}
	if got := book.Counts()[model.StateAttacked]; got != store.Len() {
		t.Errorf("expected %d attacked, got %d", store.Len(), got)
	}
	if again := book.AttackRandom(rand.New(rand.NewPCG(1, 2)), 1); len(again) != 0 {
		t.Errorf("attacked events cannot be attacked again: %v", again)
	}
}
