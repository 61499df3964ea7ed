// Package watch implements the delivery watch TUI: a live table of webhook
// deliveries polled from the state database.
package watch

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme centralizes all styling for the watch TUI.
type Theme struct {
	// Status colors
	StatusOK        lipgloss.Style
	StatusRinging   lipgloss.Style
	StatusFailed    lipgloss.Style
	StatusQueued    lipgloss.Style
	StatusDuplicate lipgloss.Style

	// UI elements
	Border    lipgloss.Style
	Title     lipgloss.Style
	Header    lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style

	// Indicators
	TickerActive   lipgloss.Style
	TickerInactive lipgloss.Style

	Table table.Styles
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return Theme{
		StatusOK:        lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		StatusRinging:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		StatusQueued:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		StatusDuplicate: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),

		TickerActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		TickerInactive: lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),

		Table: ts,
	}
}

// StatusStyle picks the color for a call or message status.
func (t Theme) StatusStyle(status string) lipgloss.Style {
	switch status {
	case "completed", "delivered", "sent", "received", "in-progress":
		return t.StatusOK
	case "ringing", "sending":
		return t.StatusRinging
	case "busy", "failed", "no-answer", "canceled", "undelivered":
		return t.StatusFailed
	default:
		return t.StatusQueued
	}
}
