package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done                                lipgloss.Style

	BoxUnchecked, BoxChecked string
	SymOnline, SymOffline    string
	SymOK, SymFail, SymWarn  string
	Border                   lipgloss.Border
	BorderColor              lipgloss.TerminalColor
}

var current = themeFor("classic")

func SetTheme(name string) { current = themeFor(name) }

// Expose what renderers need
func Current() Theme { return current }

func themeFor(name string) Theme {
	s := lipgloss.NewStyle()
	switch strings.ToLower(name) {
	case "neon":
		return Theme{
			Name:    "neon",
			Title:   s.Bold(true).Foreground(lipgloss.Color("13")),
			Muted:   s.Foreground(lipgloss.Color("8")),
			Accent:  s.Foreground(lipgloss.Color("14")),
			Success: s.Foreground(lipgloss.Color("10")),
			Error:   s.Foreground(lipgloss.Color("9")).Bold(true),
			Pending: s.Foreground(lipgloss.Color("11")),

			Selected: s.Bold(true).Foreground(lipgloss.Color("13")),
			Done:     s.Faint(true).Strikethrough(true),

			BoxUnchecked: "◻", BoxChecked: "◼",
			SymOnline: "●", SymOffline: "●",
			SymOK: "✔", SymFail: "✖", SymWarn: "▲",
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("13"),
		}
	case "mono":
		return Theme{
			Name:    "mono",
			Title:   s.Bold(true),
			Muted:   s,
			Accent:  s,
			Success: s,
			Error:   s,
			Pending: s,

			Selected: s.Reverse(true),
			Done:     s,

			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymOnline: "(on)", SymOffline: "(off)",
			SymOK: "ok", SymFail: "error:", SymWarn: "warning:",
			Border:      lipgloss.ASCIIBorder(),
			BorderColor: lipgloss.NoColor{},
		}
	default: // classic
		return Theme{
			Name:    "classic",
			Title:   s.Bold(true),
			Muted:   s.Faint(true),
			Accent:  s.Foreground(lipgloss.Color("12")),
			Success: s.Foreground(lipgloss.Color("42")),
			Error:   s.Foreground(lipgloss.Color("9")).Bold(true),
			Pending: s.Foreground(lipgloss.Color("214")),

			Selected: s.Bold(true).Reverse(true),
			Done:     s.Faint(true).Strikethrough(true),

			BoxUnchecked: "☐", BoxChecked: "☑",
			SymOnline: "●", SymOffline: "●",
			SymOK: "✔", SymFail: "✖", SymWarn: "!",
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("8"),
		}
	}
}

// Connectivity renders the online/offline indicator.
func Connectivity(online bool) string {
	t := Current()
	if online {
		return t.Success.Render(t.SymOnline) + " online"
	}
	return t.Error.Render(t.SymOffline) + " offline"
}

// Checkbox renders the completion box for a todo.
func Checkbox(done bool) string {
	t := Current()
	if done {
		return t.Success.Render(t.BoxChecked)
	}
	return t.Muted.Render(t.BoxUnchecked)
}

// PendingBadge marks a todo that has not been synced yet.
func PendingBadge() string {
	return Current().Pending.Render("⟳ pending")
}
