// Package ui is the interactive timeline navigator.
//
// The left pane lists the segments of the current view with a proportional
// state bar; the right pane renders the selected segment (or, at the deepest
// level, the selected event) as markdown through glamour.
package ui

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/eventstore"
	"github.com/vanderheijden86/chronarc/pkg/export"
	"github.com/vanderheijden86/chronarc/pkg/model"
	"github.com/vanderheijden86/chronarc/pkg/navigation"
	"github.com/vanderheijden86/chronarc/pkg/segment"
	"github.com/vanderheijden86/chronarc/pkg/watcher"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	barWidth      = 12
)

// FileChangedMsg is sent when a watched content file changes on disk.
type FileChangedMsg struct {
	Paths []string
}

// reloadedMsg carries the result of Options.Reload.
type reloadedMsg struct {
	store *eventstore.Store
	err   error
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		return FileChangedMsg{Paths: <-w.Changed()}
	}
}

// Options configure a Model.
type Options struct {
	Title           string
	ShowHiddenCount bool
	ConfirmQuit     bool
	AttackSeed      int64
	AttackChance    float64
	// GlamourStyle selects a standard glamour style; empty detects the terminal.
	GlamourStyle string
	// Watcher, when set, triggers Reload on content changes.
	Watcher *watcher.Watcher
	// Reload rebuilds the store from disk.
	Reload func() (*eventstore.Store, error)
}

// row is one line of the left pane: either a segment or a visible event
// when the view has fewer than two events.
type row struct {
	seg   *segment.DynamicSegment
	event *model.Event
}

// Model is the bubbletea model of the navigator.
type Model struct {
	opts  Options
	store *eventstore.Store
	book  *eventstore.StateBook
	nav   *navigation.Navigator
	rng   *rand.Rand

	rows   []row
	cursor int

	width  int
	height int
	ready  bool

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	theme    Theme
	md       *glamour.TermRenderer

	statusMsg       string
	statusIsError   bool
	showQuitConfirm bool
}

// NewModel builds a navigator over store.
func NewModel(store *eventstore.Store, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "chronarc"
	}
	styleOpt := glamour.WithAutoStyle()
	if opts.GlamourStyle != "" {
		styleOpt = glamour.WithStandardStyle(opts.GlamourStyle)
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(60))
	if err != nil {
		debug.Warn("markdown renderer unavailable: %v", err)
	}

	m := Model{
		opts:     opts,
		rng:      rand.New(rand.NewPCG(uint64(opts.AttackSeed), 0)),
		width:    defaultWidth,
		height:   defaultHeight,
		keys:     defaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(detailWidth(defaultWidth), defaultHeight-4),
		theme:    DefaultTheme(lipgloss.DefaultRenderer()),
		md:       md,
	}
	m.setStore(store)
	return m
}

func (m *Model) setStore(store *eventstore.Store) {
	m.store = store
	m.book = eventstore.NewStateBook(store)
	m.nav = navigation.NewNavigator(store, m.book)
	m.cursor = 0
	m.refresh()
}

// Navigator exposes the underlying navigator.
func (m Model) Navigator() *navigation.Navigator { return m.nav }

// StateBook exposes the game state.
func (m Model) StateBook() *eventstore.StateBook { return m.book }

// Status returns the current status line and whether it is an error.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

// Init starts watching content files when a watcher is configured.
func (m Model) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return WatchFileCmd(m.opts.Watcher)
	}
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.viewport = viewport.New(detailWidth(msg.Width), m.bodyHeight()-2)
		m.updateDetail()
		return m, nil

	case FileChangedMsg:
		var cmds []tea.Cmd
		if m.opts.Reload != nil {
			reload := m.opts.Reload
			cmds = append(cmds, func() tea.Msg {
				s, err := reload()
				return reloadedMsg{store: s, err: err}
			})
		}
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}
		return m, tea.Batch(cmds...)

	case reloadedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Reload failed: %v", msg.err), true)
			return m, nil
		}
		prev := m.book
		m.setStore(msg.store)
		kept := m.book.Adopt(prev)
		m.setStatus(fmt.Sprintf("Reloaded %d events, kept %d game states, view back at top", msg.store.Len(), kept), false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showQuitConfirm {
		switch msg.String() {
		case "y", "Y", "q", "enter":
			return m, tea.Quit
		default:
			m.showQuitConfirm = false
			return m, nil
		}
	}

	m.statusMsg = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.opts.ConfirmQuit && msg.String() != "ctrl+c" {
			m.showQuitConfirm = true
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.updateDetail()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.updateDetail()
		}

	case key.Matches(msg, m.keys.Drill):
		m.drill()

	case key.Matches(msg, m.keys.Back):
		m.navigate(m.nav.Back(), "Back")

	case key.Matches(msg, m.keys.Next):
		m.navigate(m.nav.Next(), "Next sibling")

	case key.Matches(msg, m.keys.Prev):
		m.navigate(m.nav.Prev(), "Previous sibling")

	case key.Matches(msg, m.keys.Reset):
		m.nav.Reset()
		m.cursor = 0
		m.refresh()
		m.setStatus("Back to the full timeline", false)

	case key.Matches(msg, m.keys.Attack):
		hit := m.book.AttackRandom(m.rng, m.opts.AttackChance)
		m.refresh()
		m.setStatus(fmt.Sprintf("Attack wave: %d events under attack", len(hit)), len(hit) > 0)

	case key.Matches(msg, m.keys.Defend):
		m.defend()

	case key.Matches(msg, m.keys.Copy):
		id := m.selectedID()
		if id == "" {
			break
		}
		if err := clipboard.WriteAll(id); err != nil {
			m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		} else {
			m.setStatus(fmt.Sprintf("Copied %s to clipboard", id), false)
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) drill() {
	seg := m.selectedSegment()
	if seg == nil {
		return
	}
	if err := m.nav.Drill(seg.ID); err != nil {
		if errors.Is(err, navigation.ErrNotClickable) {
			m.setStatus("Nothing hidden in this segment", true)
		} else {
			m.setStatus(err.Error(), true)
		}
		return
	}
	m.cursor = 0
	m.refresh()
	m.setStatus(fmt.Sprintf("Opened %s (depth %d)", seg.ID, m.nav.Depth()), false)
}

func (m *Model) navigate(err error, what string) {
	switch {
	case errors.Is(err, navigation.ErrNoHistory):
		m.setStatus("Already at the outermost view", true)
		return
	case errors.Is(err, navigation.ErrNoSibling):
		m.setStatus("No sibling in that direction", true)
		return
	case err != nil:
		m.setStatus(err.Error(), true)
		return
	}
	m.cursor = 0
	m.refresh()
	m.setStatus(what, false)
}

// defend wins the defense of every attacked event under the cursor: the
// hidden events of a segment plus its start event, or the selected event.
func (m *Model) defend() {
	var ids []string
	if seg := m.selectedSegment(); seg != nil {
		ids = append(ids, seg.StartEventID)
		ids = append(ids, seg.HiddenIDs()...)
	} else if id := m.selectedID(); id != "" {
		ids = append(ids, id)
	}

	defended := 0
	for _, id := range ids {
		if !m.book.CanDefend(id) {
			continue
		}
		if err := m.book.HandleDefenseOutcome(id, true); err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		defended++
	}
	if defended == 0 {
		m.setStatus("Nothing under attack here", true)
		return
	}
	m.refresh()
	m.setStatus(fmt.Sprintf("Defended %d events", defended), false)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.statusMsg = s
	m.statusIsError = isErr
}

// refresh recomputes rows from the navigator after any view or state change.
func (m *Model) refresh() {
	m.rows = nil
	segs := m.nav.Segments()
	if len(segs) > 0 {
		for i := range segs {
			m.rows = append(m.rows, row{seg: &segs[i]})
		}
	} else {
		visible := m.nav.VisibleEvents()
		for i := range visible {
			m.rows = append(m.rows, row{event: &visible[i]})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
	m.updateDetail()
}

func (m Model) selectedSegment() *segment.DynamicSegment {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].seg
}

func (m Model) selectedID() string {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return ""
	}
	r := m.rows[m.cursor]
	if r.seg != nil {
		return r.seg.ID
	}
	return r.event.ID
}

func (m *Model) updateDetail() {
	var src string
	if m.cursor < len(m.rows) {
		r := m.rows[m.cursor]
		if r.seg != nil {
			src = export.SegmentMarkdown(*r.seg)
			if start, ok := m.store.Get(r.seg.StartEventID); ok {
				if st, ok := m.book.State(start.ID); ok {
					start.State = st
				}
				src += "\n" + export.EventMarkdown(start)
			}
		} else {
			src = export.EventMarkdown(*r.event)
		}
	}
	if src == "" {
		m.viewport.SetContent("No events in view")
		return
	}
	if m.md == nil {
		m.viewport.SetContent(src)
		return
	}
	rendered, err := m.md.Render(src)
	if err != nil {
		m.viewport.SetContent(fmt.Sprintf("Error rendering markdown: %v", err))
		return
	}
	m.viewport.SetContent(rendered)
	m.viewport.GotoTop()
}

func detailWidth(total int) int {
	return max(20, total*2/5)
}

func (m Model) listWidth() int {
	return max(20, m.width-detailWidth(m.width)-4)
}

func (m Model) bodyHeight() int {
	return max(3, m.height-3)
}

// View renders the navigator.
func (m Model) View() string {
	header := m.renderHeader()

	var body string
	if m.showQuitConfirm {
		body = m.theme.Panel.Padding(1, 2).Render("Quit chronarc? (y/n)")
	} else {
		list := m.renderList()
		detail := m.theme.Panel.
			Width(m.viewport.Width + 2).
			Height(m.bodyHeight() - 2).
			Render(m.viewport.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

func (m Model) renderHeader() string {
	visible := m.nav.VisibleEvents()
	span := ""
	if len(visible) > 0 {
		span = fmt.Sprintf("%s to %s", model.FormatYear(visible[0].Year), model.FormatYear(visible[len(visible)-1].Year))
	}
	crumb := strings.Repeat("› ", m.nav.Depth())
	title := m.theme.Header.Render(m.opts.Title)
	info := m.theme.MutedText.Render(fmt.Sprintf(" %s%s · %d events", crumb, span, len(visible)))
	return truncate(title+info, max(m.width, 20))
}

func (m Model) renderList() string {
	width := m.listWidth()
	height := m.bodyHeight()

	var lines []string
	for i, r := range m.rows {
		var line string
		if r.seg != nil {
			line = m.segmentLine(*r.seg, width-2)
		} else {
			line = m.eventLine(*r.event, width-2)
		}
		if i == m.cursor {
			line = m.theme.Selected.Render(line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, m.theme.MutedText.Render("  no events"))
	}

	// Keep the cursor in view.
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(len(lines), start+height)
	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines[start:end], "\n"))
}

func (m Model) segmentLine(s segment.DynamicSegment, width int) string {
	start, _ := m.store.Get(s.StartEventID)
	badge := "   "
	if s.IsClickable && m.opts.ShowHiddenCount {
		badge = m.theme.Badge.Render(fmt.Sprintf("+%-2d", len(s.HiddenEvents)))
	}
	bar := renderBar(s.StateCounts, barWidth)
	glyph := stateGlyph(stateOf(m.book, start))
	labelWidth := max(4, width-barWidth-lipgloss.Width(badge)-4)
	label := padRight(truncate(fmt.Sprintf("%s %s", model.FormatYear(s.StartYear), start.Title), labelWidth), labelWidth)
	return fmt.Sprintf("%s %s %s %s", StateStyle(stateOf(m.book, start)).Render(glyph), label, bar, badge)
}

func (m Model) eventLine(e model.Event, width int) string {
	label := truncate(fmt.Sprintf("%s %s", model.FormatYear(e.Year), e.Title), max(4, width-2))
	return StateStyle(e.State).Render(stateGlyph(e.State)) + " " + label
}

func stateOf(book *eventstore.StateBook, e model.Event) model.EventState {
	if st, ok := book.State(e.ID); ok {
		return st
	}
	return e.State
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		style := m.theme.Status
		if m.statusIsError {
			style = m.theme.Error
		}
		return style.Render(truncate(m.statusMsg, max(m.width, 20)))
	}
	return m.help.View(m.keys)
}
