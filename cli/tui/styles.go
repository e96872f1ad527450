// Package tui provides read-only Bubble Tea views for the sigbench CLI.
// Views render the same payloads as the non-TUI output and show nothing
// beyond them.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#3B82F6")
	valueColor     = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(mutedColor).Width(20)
	valueStyle = lipgloss.NewStyle().Foreground(valueColor)
	helpStyle  = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	statBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Width(20).
			Align(lipgloss.Center)
	statLabelStyle = lipgloss.NewStyle().Foreground(mutedColor).Align(lipgloss.Center)
	statValueStyle = lipgloss.NewStyle().Bold(true).Align(lipgloss.Center)
)

// statusColors covers outcome statuses and verification statuses.
var statusColors = map[string]lipgloss.Color{
	"success":             successColor,
	"valid":               successColor,
	"incomplete_transfer": warningColor,
	"verification_failed": errorColor,
	"transport_error":     errorColor,
	"invalid":             errorColor,
	"error":               errorColor,
}

// statusStyle colors an outcome or verification status. Unknown values
// render plain.
func statusStyle(status string) lipgloss.Style {
	if c, ok := statusColors[status]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return valueStyle
}

func warningText(s string) string {
	return lipgloss.NewStyle().Foreground(warningColor).Render(s)
}

func statBox(label, value string, color lipgloss.Color) string {
	v := statValueStyle.Foreground(color).Render(value)
	l := statLabelStyle.Render(label)
	return statBoxStyle.BorderForeground(color).Render(lipgloss.JoinVertical(lipgloss.Center, v, l))
}

// meter draws part/whole as a bar of width cells.
func meter(part, whole float64, width int, color lipgloss.Color) string {
	filled := 0
	if whole > 0 {
		filled = int(part / whole * float64(width))
	}
	filled = min(max(filled, 0), width)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	return bar + lipgloss.NewStyle().Foreground(mutedColor).Render(strings.Repeat("░", width-filled))
}
