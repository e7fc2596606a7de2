package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada-sync/internal/todolist"
	"github.com/idilsaglam/tada-sync/internal/ui"
)

func (m Model) View() string {
	t := ui.Current()

	header := t.Title.Render(ui.HeaderTitle(m.loginID)) + "   " + ui.Counts(m.snap)
	if !m.synced {
		header += "  " + t.Muted.Render("syncing…")
	}

	body := m.list.View()
	if m.snap.Len() == 0 && m.list.FilterState() == list.Unfiltered {
		body = t.Muted.Render("No todos yet. Press a to add one!")
	}

	lines := []string{header, "", body}
	if m.adding {
		bar := lipgloss.NewStyle().
			Border(t.Border).
			BorderForeground(t.BorderColor).
			Padding(0, 1)
		lines = append(lines, bar.Render("Add new todo\n"+m.input.View()))
	}
	if m.status != "" {
		lines = append(lines, t.Error.Render(m.status))
	}
	lines = append(lines, t.Muted.Render(todolist.Summary(m.snap)))
	return ui.PanelString(lines)
}
