package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada-sync/internal/model"
	"github.com/idilsaglam/tada-sync/internal/ui"
)

// listItem adapts a Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Content }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Content }

func toItems(todos []model.Todo) []list.Item {
	li := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		li = append(li, listItem{todo: t})
	}
	return li
}

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()
	text := ui.Truncate(it.todo.Content, max(m.Width()-6, 10))
	if it.todo.IsDone {
		text = t.Done.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprint(w, prefix+ui.Box(it.todo.IsDone)+" "+text)
}
