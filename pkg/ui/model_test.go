package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/testutil"
)

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	opts.GlamourStyle = "notty"
	m := NewModel(eventstore.MustNew(testutil.Scenario()), opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(Model)
}

func keyRune(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestInitialRowsAreSegments(t *testing.T) {
	m := newTestModel(t, Options{ShowHiddenCount: true})

	if len(m.rows) != 2 {
		t.Fatalf("expected 2 segment rows, got %d", len(m.rows))
	}
	if got := m.selectedID(); got != "seg-a-b" {
		t.Errorf("expected cursor on seg-a-b, got %s", got)
	}

	view := m.View()
	for _, want := range []string{"The Wheel", "The Printing Press", "+1", "3500 BCE"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDrillAndBack(t *testing.T) {
	m := newTestModel(t, Options{})

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Navigator().Depth() != 1 {
		t.Fatalf("expected depth 1 after drill, got %d", m.Navigator().Depth())
	}
	if len(m.rows) != 1 || m.rows[0].event == nil || m.rows[0].event.ID != "a1" {
		t.Fatalf("expected the hidden event a1 as the only row, got %+v", m.rows)
	}
	if status, isErr := m.Status(); isErr || !strings.Contains(status, "seg-a-b") {
		t.Errorf("unexpected status %q (error=%v)", status, isErr)
	}
	if !strings.Contains(m.View(), "Gunpowder") {
		t.Error("drilled view should show Gunpowder")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.Navigator().Depth() != 0 || len(m.rows) != 2 {
		t.Errorf("back should restore the top view, depth=%d rows=%d", m.Navigator().Depth(), len(m.rows))
	}
}

func TestDrillNonClickableSegment(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(t, m, keyRune("j"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.Navigator().Depth() != 0 {
		t.Error("drilling an empty segment should not change the view")
	}
	if status, isErr := m.Status(); !isErr || !strings.Contains(status, "Nothing hidden") {
		t.Errorf("unexpected status %q (error=%v)", status, isErr)
	}
}

func TestBackAtRootReportsError(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if _, isErr := m.Status(); !isErr {
		t.Error("expected an error status at the outermost view")
	}
}

func TestSiblingAtTopLevelReportsError(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(t, m, keyRune("]"))
	if status, isErr := m.Status(); !isErr || !strings.Contains(status, "sibling") {
		t.Errorf("unexpected status %q", status)
	}
}

func TestCursorBounds(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(t, m, keyRune("k"))
	if m.cursor != 0 {
		t.Errorf("cursor moved above the first row: %d", m.cursor)
	}
	m = press(t, m, keyRune("j"), keyRune("j"), keyRune("j"))
	if m.cursor != 1 {
		t.Errorf("cursor moved past the last row: %d", m.cursor)
	}
}

func TestDefendSegment(t *testing.T) {
	m := newTestModel(t, Options{})
	if m.rows[0].seg.StateCounts.Attacked != 1 {
		t.Fatalf("fixture should start with one attacked event")
	}

	m = press(t, m, keyRune("f"))
	if st, _ := m.StateBook().State("a1"); st != model.StateDefended {
		t.Errorf("a1 should be defended, got %s", st)
	}
	if c := m.rows[0].seg.StateCounts; c.Attacked != 0 || c.Defended != 1 {
		t.Errorf("segment counts not refreshed: %+v", c)
	}

	m = press(t, m, keyRune("f"))
	if _, isErr := m.Status(); !isErr {
		t.Error("second defense should find nothing under attack")
	}
}

func TestAttackWave(t *testing.T) {
	m := newTestModel(t, Options{AttackSeed: 7, AttackChance: 1})
	m = press(t, m, keyRune("a"))

	counts := m.StateBook().Counts()
	if counts[model.StateSafe] != 0 || counts[model.StateAttacked] != 4 {
		t.Errorf("chance 1 should attack every safe event, got %v", counts)
	}
	if m.rows[0].seg.Color != model.ColorAttacked {
		t.Errorf("segment color should turn red, got %s", m.rows[0].seg.Color)
	}
}

func TestResetReturnsToTop(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, keyRune("r"))
	if m.Navigator().Depth() != 0 || len(m.rows) != 2 {
		t.Error("reset should return to the initial view")
	}
}

func TestQuitConfirmation(t *testing.T) {
	m := newTestModel(t, Options{ConfirmQuit: true})

	next, cmd := m.Update(keyRune("q"))
	m = next.(Model)
	if cmd != nil {
		t.Fatal("quit should wait for confirmation")
	}
	if !strings.Contains(m.View(), "Quit chronarc?") {
		t.Error("confirmation prompt not shown")
	}

	_, cmd = m.Update(keyRune("y"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestQuitConfirmationCancelled(t *testing.T) {
	m := newTestModel(t, Options{ConfirmQuit: true})
	m = press(t, m, keyRune("q"), keyRune("n"))
	if m.showQuitConfirm {
		t.Error("any other key should cancel the prompt")
	}
}

func TestReloadReplacesStore(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	events := testutil.Scenario()
	events = append(events, model.Event{ID: "d", Title: "The Web", Year: 1991, Weight: 1, State: model.StateSafe})
	next, _ := m.Update(reloadedMsg{store: eventstore.MustNew(events)})
	m = next.(Model)

	if m.Navigator().Depth() != 0 {
		t.Error("reload should start from the initial view")
	}
	if len(m.rows) != 3 {
		t.Errorf("expected 3 segments after reload, got %d", len(m.rows))
	}
	if status, _ := m.Status(); !strings.Contains(status, "5 events") {
		t.Errorf("unexpected status %q", status)
	}
}

func TestReloadKeepsGameState(t *testing.T) {
	m := newTestModel(t, Options{})
	if err := m.StateBook().HandleDefenseOutcome("a1", false); err != nil {
		t.Fatal(err)
	}

	next, _ := m.Update(reloadedMsg{store: eventstore.MustNew(testutil.Scenario())})
	m = next.(Model)

	if st, _ := m.StateBook().State("a1"); st != model.StateCorrupted {
		t.Errorf("state lost on reload: %s", st)
	}
	status, isErr := m.Status()
	if isErr || !strings.Contains(status, "kept 1 game states") || !strings.Contains(status, "view back at top") {
		t.Errorf("unexpected status %q", status)
	}
}

func TestFileChangedTriggersReload(t *testing.T) {
	called := false
	m := newTestModel(t, Options{Reload: func() (*eventstore.Store, error) {
		called = true
		return eventstore.MustNew(testutil.Scenario()), nil
	}})

	_, cmd := m.Update(FileChangedMsg{Paths: []string{"events.yaml"}})
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	msg := cmd()
	if _, ok := msg.(reloadedMsg); !ok {
		t.Fatalf("expected reloadedMsg, got %T", msg)
	}
	if !called {
		t.Error("Reload was not invoked")
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(t, m, keyRune("?"))
	if !m.help.ShowAll {
		t.Fatal("help should expand")
	}
	if !strings.Contains(m.View(), "attack wave") {
		t.Error("full help should list the attack binding")
	}
}
