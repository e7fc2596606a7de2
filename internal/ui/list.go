package ui

import (
	"fmt"
	"unicode/utf8"

	"github.com/idilsaglam/tada-sync/internal/model"
)

const maxContentWidth = 80

// HeaderTitle greets the signed-in user; without a login id the list is
// just "My Todo List".
func HeaderTitle(loginID string) string {
	if loginID == "" {
		return "My Todo List"
	}
	return loginID + "'s Todo List"
}

// Counts is the header's live tally.
func Counts(s model.Snapshot) string {
	t := Current()
	done := s.Completed()
	return fmt.Sprintf("%s %d  %s %d  %s %d",
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), s.Len()-done,
		t.Accent.Render("Total"), s.Len(),
	)
}

// Box is the checkbox glyph for a todo, styled.
func Box(done bool) string {
	t := Current()
	if done {
		return t.Success.Render(t.BoxChecked)
	}
	return t.Muted.Render(t.BoxUnchecked)
}

// Truncate shortens s to width runes with a trailing "...".
func Truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

// ListLines renders todos as numbered lines, in snapshot order.
func ListLines(items []model.Todo) []string {
	t := Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("No todos yet. Add one with `todo add`!")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		content := Truncate(it.Content, maxContentWidth)
		if it.IsDone {
			content = t.Done.Render(content)
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			t.Muted.Render(fmt.Sprintf("%2d.", i+1)), Box(it.IsDone), content))
	}
	return out
}

// GroupLines splits the list into Pending and Done sections.
func GroupLines(items []model.Todo) []string {
	t := Current()
	var pend, done []model.Todo
	for _, it := range items {
		if it.IsDone {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	section := func(title string, items []model.Todo) []string {
		lines := []string{t.Accent.Render(title)}
		if len(items) == 0 {
			return append(lines, t.Muted.Render("(none)"))
		}
		return append(lines, ListLines(items)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}
