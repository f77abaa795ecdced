package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorSuccess = "10"
	colorError   = "9"
	colorWarning = "11"
	colorInfo    = "12"
)

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	strong  lipgloss.Style
}

// newStyles binds styles to w so colour is only emitted for terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorInfo)),
		success: r.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		failure: r.NewStyle().Foreground(lipgloss.Color(colorError)),
		warning: r.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		info:    r.NewStyle().Foreground(lipgloss.Color(colorInfo)),
		strong:  r.NewStyle().Bold(true),
	}
}
