package ui

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/tada-sync/internal/model"
)

func useMono(t *testing.T) {
	t.Helper()
	prev := current
	DisableColor()
	SetTheme("mono")
	t.Cleanup(func() { current = prev })
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total, width int
		want               string
	}{
		{0, 0, 10, "░░░░░░░░░░   0%"},
		{1, 2, 10, "█████░░░░░  50%"},
		{3, 3, 2, "█████ 100%"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.done, tt.total, tt.width); got != tt.want {
			t.Errorf("ProgressBar(%d, %d, %d) = %q, want %q", tt.done, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestHeaderTitle(t *testing.T) {
	if got := HeaderTitle("ada@example.com"); got != "ada@example.com's Todo List" {
		t.Errorf("HeaderTitle = %q", got)
	}
	if got := HeaderTitle(""); got != "My Todo List" {
		t.Errorf("HeaderTitle(\"\") = %q", got)
	}
}

func TestListLines(t *testing.T) {
	useMono(t)
	items := []model.Todo{
		{ID: "a", Content: "Buy milk"},
		{ID: "b", Content: "Walk dog", IsDone: true},
	}
	want := []string{
		" 1. [ ] Buy milk",
		" 2. [x] Walk dog",
	}
	if diff := cmp.Diff(want, ListLines(items)); diff != "" {
		t.Errorf("ListLines (-want +got):\n%s", diff)
	}
	if got := ListLines(nil); len(got) != 1 || !strings.Contains(got[0], "No todos yet") {
		t.Errorf("empty list = %q", got)
	}
}

func TestGroupLines(t *testing.T) {
	useMono(t)
	items := []model.Todo{{Content: "open"}}
	want := []string{"Pending", " 1. [ ] open", "", "Done", "(none)"}
	if diff := cmp.Diff(want, GroupLines(items)); diff != "" {
		t.Errorf("GroupLines (-want +got):\n%s", diff)
	}
}

func TestCounts(t *testing.T) {
	useMono(t)
	s := model.Snapshot{Items: []model.Todo{{IsDone: true}, {}, {}}}
	if got := Counts(s); got != "x 1  - 2  Total 3" {
		t.Errorf("Counts = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo wörld", 8); got != "héllo..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 8); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestPanelStringFramesLines(t *testing.T) {
	useMono(t)
	out := PanelString([]string{"one", "two"})
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("panel has %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "+") || !strings.Contains(lines[1], "| one") {
		t.Errorf("unexpected panel:\n%s", out)
	}
}
