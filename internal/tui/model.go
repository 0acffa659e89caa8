package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/mrqart/internal/engine"
	"github.com/roach88/mrqart/internal/render"
	"github.com/roach88/mrqart/internal/station"
)

// changeMsg delivers one engine change to Update.
type changeMsg struct {
	change engine.Change
}

// sourceClosedMsg is sent once the subscription channel closes.
type sourceClosedMsg struct{}

// row is one selectable line: an entry of a visible station.
type row struct {
	station string
	entry   station.Entry
}

// Model is the bubbletea model for one session.
type Model struct {
	session   string
	view      station.View
	selected  string
	cursor    int
	toggled   map[int64]bool // Entry seq → disclosure flipped from its initial state.
	status    string
	keys      KeyMap
	theme     render.Theme
	formatter render.Formatter
	changes   <-chan engine.Change
}

// Option configures a Model.
type Option func(*Model)

// WithTheme sets the style theme. Default: render.DefaultTheme.
func WithTheme(theme render.Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithKeyMap replaces the key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// NewModel creates a Model showing initial and following changes. A nil
// channel gives a static view.
func NewModel(session string, initial station.View, changes <-chan engine.Change, opts ...Option) Model {
	m := Model{
		session:  session,
		view:     initial,
		selected: station.All,
		toggled:  make(map[int64]bool),
		keys:     DefaultKeyMap,
		theme:    render.DefaultTheme(),
		changes:  changes,
		status:   "waiting for data",
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.formatter = render.NewFormatter(m.theme)
	if initial.Fresh {
		m.status = "ready"
	}
	return m
}

// Init implements tea.Model. Starts listening for engine changes.
func (m Model) Init() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	return listen(m.changes)
}

// listen returns a tea.Cmd that blocks until a change arrives.
func listen(changes <-chan engine.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-changes
		if !ok {
			return sourceClosedMsg{}
		}
		return changeMsg{change: c}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case changeMsg:
		m.apply(msg.change)
		return m, listen(m.changes)

	case sourceClosedMsg:
		m.status = "engine stopped"
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.NextStation):
		m.cycleStation(1)

	case key.Matches(msg, m.keys.PrevStation):
		m.cycleStation(-1)

	case key.Matches(msg, m.keys.Toggle):
		if r, ok := m.current(); ok {
			seq := r.entry.Seq
			m.toggled[seq] = !m.toggled[seq]
		}
	}
	return m, nil
}

// apply replaces the view and describes the change on the status line.
func (m *Model) apply(c engine.Change) {
	m.view = c.View

	switch c.Kind {
	case engine.ChangeInserted:
		if len(c.Entries) > 0 {
			e := c.Entries[0]
			m.status = fmt.Sprintf("new %s on %s", e.Fragment.SequenceKey, e.Record.StationID)
		}
	case engine.ChangeRebuilt:
		m.status = fmt.Sprintf("pull %d: rebuilt %d records", c.PullID, len(c.Entries))
		m.prune()
	case engine.ChangePullIssued:
		m.status = fmt.Sprintf("pull %d: fetching full state", c.PullID)
	case engine.ChangePullFailed:
		m.status = fmt.Sprintf("pull %d failed: %v", c.PullID, c.Err)
	}

	m.selected = m.view.Resolve(m.selected)
	m.clampCursor()
}

// prune drops disclosure state for entries no longer shown.
func (m *Model) prune() {
	live := make(map[int64]bool)
	for _, sv := range m.view.Stations {
		for _, e := range sv.Entries {
			live[e.Seq] = true
		}
	}
	for seq := range m.toggled {
		if !live[seq] {
			delete(m.toggled, seq)
		}
	}
}

func (m *Model) cycleStation(step int) {
	options := m.view.Options()
	idx := 0
	for i, o := range options {
		if o == m.selected {
			idx = i
		}
	}
	idx = (idx + step + len(options)) % len(options)
	m.selected = options[idx]
	m.cursor = 0
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// rows flattens the visible stations into selectable entries.
func (m Model) rows() []row {
	var out []row
	for _, sv := range m.view.Visible(m.selected) {
		for _, e := range sv.Entries {
			out = append(out, row{station: sv.ID, entry: e})
		}
	}
	return out
}

func (m Model) current() (row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

// Selected returns the resolved selector choice.
func (m Model) Selected() string {
	return m.view.Resolve(m.selected)
}

// Cursor returns the index of the highlighted entry.
func (m Model) Cursor() int {
	return m.cursor
}

// Expanded reports whether the entry with the given store seq is shown
// expanded.
func (m Model) Expanded(e station.Entry) bool {
	return e.Fragment.Expanded != m.toggled[e.Seq]
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	fresh := "waiting for data"
	if m.view.Fresh {
		fresh = "live"
	}
	b.WriteString(m.theme.Header.Render("mrqart " + m.session + " " + fresh))
	b.WriteString("\n")
	b.WriteString(m.selectorLine())
	b.WriteString("\n\n")

	idx := 0
	for _, sv := range m.view.Visible(m.selected) {
		b.WriteString(m.theme.Station.Render("== " + sv.ID + " =="))
		b.WriteString("\n")
		for _, e := range sv.Entries {
			expanded := m.Expanded(e)
			line := m.formatter.SummaryLine(e.Fragment, expanded)
			if idx == m.cursor {
				b.WriteString(m.theme.Cursor.Render(">") + " " + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
			if expanded {
				for _, d := range strings.Split(m.formatter.Details(e.Fragment), "\n") {
					b.WriteString("  " + d + "\n")
				}
			}
			idx++
		}
	}
	if idx == 0 {
		b.WriteString("  (no records)\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Status.Render(m.status))
	b.WriteString("\n")
	b.WriteString(m.theme.Status.Render(m.keys.help()))
	return b.String()
}

func (m Model) selectorLine() string {
	selected := m.Selected()
	parts := make([]string, 0, len(m.view.Selector)+1)
	for _, o := range m.view.Options() {
		if o == selected {
			parts = append(parts, m.theme.Cursor.Render("["+o+"]"))
			continue
		}
		parts = append(parts, o)
	}
	return strings.Join(parts, " ")
}

// Run starts the interactive view for eng and blocks until the user
// quits or ctx ends. The engine must already be running.
func Run(ctx context.Context, eng *engine.Engine) error {
	changes, cancel := eng.Subscribe(16)
	defer cancel()

	model := NewModel(eng.Session(), eng.View(), changes)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
