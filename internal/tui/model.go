// Package tui is the interactive list view. Its state is the last snapshot
// the backend pushed and the text being typed; mutations are sent as
// commands and show up only once the backend pushes the result.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada-sync/internal/model"
	"github.com/idilsaglam/tada-sync/internal/todolist"
	"github.com/idilsaglam/tada-sync/internal/ui"
)

// Messages
type (
	snapshotMsg   model.Snapshot
	feedClosedMsg struct{}
	createdMsg    struct{ err error }
	signedOutMsg  struct{ err error }
)

// Options wire the view to the rest of the client.
type Options struct {
	Actions   *todolist.Actions
	Snapshots <-chan model.Snapshot
	LoginID   string
	SignOut   func() error
}

type Model struct {
	ctx       context.Context
	actions   *todolist.Actions
	snapshots <-chan model.Snapshot
	signOut   func() error
	loginID   string

	list   list.Model
	snap   model.Snapshot
	synced bool

	// Inline add
	adding   bool
	creating bool // a create request is in flight
	input    textinput.Model

	status    string // shown under the list, e.g. a failed sign out
	signedOut bool
	width     int
	height    int
}

var (
	addBind     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	toggleBind  = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteBind  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	signOutBind = key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sign out"))
)

func New(ctx context.Context, opt Options) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.HelpStyle = ui.Current().Help
	l.Styles.PaginationStyle = ui.Current().Help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	// esc only clears a filter or closes the input.
	l.KeyMap.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	extra := func() []key.Binding { return []key.Binding{addBind, toggleBind, deleteBind, signOutBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Add new todo..."
	ti.CharLimit = 500

	return Model{
		ctx:       ctx,
		actions:   opt.Actions,
		snapshots: opt.Snapshots,
		signOut:   opt.SignOut,
		loginID:   opt.LoginID,
		list:      l,
		input:     ti,
		width:     80,
		height:    24,
	}
}

func (m Model) Init() tea.Cmd { return m.listen() }

// listen waits for the next pushed snapshot.
func (m Model) listen() tea.Cmd {
	ch := m.snapshots
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case snapshotMsg:
		// Whole replacement, never a merge.
		m.snap = model.Snapshot(msg)
		if m.snap.Synced {
			m.synced = true
		}
		cmd := m.list.SetItems(toItems(m.snap.Items))
		return m, tea.Batch(cmd, m.listen())

	case feedClosedMsg:
		return m, nil

	case createdMsg:
		m.creating = false
		if msg.err == nil {
			m.input.SetValue("")
		}
		return m, nil

	case signedOutMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.signedOut = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.adding {
			return m.updateAdding(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case " ", "space":
			if it, ok := m.selected(); ok {
				return m, m.toggle(it.todo)
			}
			return m, nil
		case "d":
			if it, ok := m.selected(); ok {
				return m, m.delete(it.todo)
			}
			return m, nil
		case "a":
			m.adding = true
			m.status = ""
			m.layout()
			return m, m.input.Focus()
		case "S":
			return m, m.doSignOut()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := m.input.Value()
		if m.creating || strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.creating = true
		return m, m.create(text)
	case "esc":
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		m.layout()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

// layout sizes the list to what the panel leaves free.
func (m *Model) layout() {
	chrome := 6 // border, header, blank, footer
	if m.adding {
		chrome += 4
	}
	m.list.SetSize(max(m.width-4, 10), max(m.height-chrome, 3))
}

func (m Model) create(text string) tea.Cmd {
	a, ctx := m.actions, m.ctx
	return func() tea.Msg {
		_, err := a.Create(ctx, text)
		return createdMsg{err: err}
	}
}

// toggle and delete report nothing back: failures are logged by Actions and
// successes arrive as the next snapshot.
func (m Model) toggle(t model.Todo) tea.Cmd {
	a, ctx := m.actions, m.ctx
	return func() tea.Msg {
		_, _ = a.Toggle(ctx, t.ID, t.IsDone)
		return nil
	}
}

func (m Model) delete(t model.Todo) tea.Cmd {
	a, ctx := m.actions, m.ctx
	return func() tea.Msg {
		_ = a.Delete(ctx, t.ID)
		return nil
	}
}

func (m Model) doSignOut() tea.Cmd {
	signOut := m.signOut
	if signOut == nil {
		return nil
	}
	return func() tea.Msg { return signedOutMsg{err: signOut()} }
}

// Snapshot is the list currently displayed.
func (m Model) Snapshot() model.Snapshot { return m.snap }

// SignedOut reports whether the view ended with a sign out.
func (m Model) SignedOut() bool { return m.signedOut }

// Input is the pending text buffer.
func (m Model) Input() string { return m.input.Value() }
