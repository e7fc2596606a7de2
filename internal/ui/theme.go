package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme bundles palette + symbols + panel border.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done, Help                          lipgloss.Style

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
	Border                   lipgloss.Border
	BorderColor              lipgloss.TerminalColor
}

var current = themeFor("classic")

// SetTheme switches the theme; unknown names fall back to classic.
func SetTheme(name string) { current = themeFor(name) }

// Current exposes what renderers need.
func Current() Theme { return current }

// DisableColor renders everything without ANSI colors.
func DisableColor() { lipgloss.SetColorProfile(termenv.Ascii) }

func themeFor(name string) Theme {
	plain := lipgloss.NewStyle()
	switch strings.ToLower(name) {
	case "neon":
		return Theme{
			Name:         "neon",
			Title:        plain.Bold(true).Foreground(lipgloss.Color("13")),
			Muted:        plain.Faint(true),
			Accent:       plain.Foreground(lipgloss.Color("14")),
			Success:      plain.Foreground(lipgloss.Color("10")),
			Error:        plain.Foreground(lipgloss.Color("9")).Bold(true),
			Pending:      plain.Foreground(lipgloss.Color("11")),
			Selected:     plain.Bold(true).Foreground(lipgloss.Color("13")),
			Done:         plain.Faint(true).Strikethrough(true),
			Help:         plain.Faint(true),
			BoxUnchecked: "◻",
			BoxChecked:   "◼",
			SymDone:      "✔",
			SymPending:   "•",
			Border:       lipgloss.RoundedBorder(),
			BorderColor:  lipgloss.Color("13"),
		}
	case "mono":
		return Theme{
			Name:         "mono",
			Title:        plain,
			Muted:        plain,
			Accent:       plain,
			Success:      plain,
			Error:        plain,
			Pending:      plain,
			Selected:     plain.Reverse(true),
			Done:         plain,
			Help:         plain,
			BoxUnchecked: "[ ]",
			BoxChecked:   "[x]",
			SymDone:      "x",
			SymPending:   "-",
			Border:       lipgloss.ASCIIBorder(),
			BorderColor:  lipgloss.NoColor{},
		}
	default: // classic
		return Theme{
			Name:         "classic",
			Title:        plain.Bold(true),
			Muted:        plain.Faint(true),
			Accent:       plain.Foreground(lipgloss.Color("12")),
			Success:      plain.Foreground(lipgloss.Color("42")),
			Error:        plain.Foreground(lipgloss.Color("9")).Bold(true),
			Pending:      plain.Foreground(lipgloss.Color("214")),
			Selected:     plain.Bold(true).Reverse(true),
			Done:         plain.Faint(true).Strikethrough(true),
			Help:         plain.Faint(true),
			BoxUnchecked: "☐",
			BoxChecked:   "☑",
			SymDone:      "✔",
			SymPending:   "•",
			Border:       lipgloss.RoundedBorder(),
			BorderColor:  lipgloss.Color("8"),
		}
	}
}
