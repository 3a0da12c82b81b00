package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles renders the highlighted parts of command output. The renderer
// inspects the writer, so output that is not a terminal, or runs with
// NO_COLOR set, stays plain text.
type styles struct {
	Count  lipgloss.Style
	Module lipgloss.Style
	Muted  lipgloss.Style
	Title  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Count:  r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#5FAFD7"}),
		Module: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5F8700", Dark: "#87D75F"}),
		Muted:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}),
		Title:  r.NewStyle().Bold(true),
	}
}
