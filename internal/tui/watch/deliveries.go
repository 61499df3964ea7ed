package watch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/switchboard/internal/delivery"
)

func deliveryColumns() []table.Column {
	return []table.Column{
		{Title: "Received", Width: 10},
		{Title: "Endpoint", Width: 16},
		{Title: "Status", Width: 12},
		{Title: "From", Width: 14},
		{Title: "To", Width: 14},
		{Title: "SID", Width: 36},
		{Title: "Dup", Width: 3},
	}
}

func deliveryRows(ds []delivery.Delivery) []table.Row {
	rows := make([]table.Row, 0, len(ds))
	for _, d := range ds {
		sid := d.CallSID
		if d.MessageSID != "" {
			sid = d.MessageSID
		}
		dup := ""
		if d.Duplicate {
			dup = "×"
		}
		rows = append(rows, table.Row{
			d.ReceivedAt.Local().Format("15:04:05"),
			d.Endpoint,
			d.Status,
			d.From,
			d.To,
			sid,
			dup,
		})
	}
	return rows
}

// renderDetail shows the parameters of the selected delivery, sorted by name.
func renderDetail(d *delivery.Delivery, theme Theme, width int) string {
	innerWidth := width - 4
	if d == nil {
		return theme.Border.Width(innerWidth).Render(theme.Dim.Render(" No deliveries yet"))
	}

	var b strings.Builder
	status := theme.StatusStyle(d.Status).Render(d.Status)
	if d.Duplicate {
		status += " " + theme.StatusDuplicate.Render("(duplicate)")
	}
	fmt.Fprintf(&b, "%s %s  %s\n",
		theme.Header.Render(d.Endpoint),
		status,
		theme.Dim.Render(d.ID),
	)

	keys := make([]string, 0, len(d.Params))
	for k := range d.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s %s\n", theme.Highlight.Render(k+":"), d.Params[k])
	}

	return theme.Border.Width(innerWidth).Render(strings.TrimRight(b.String(), "\n"))
}

func countDuplicates(ds []delivery.Delivery) int {
	n := 0
	for _, d := range ds {
		if d.Duplicate {
			n++
		}
	}
	return n
}

func countEndpoints(ds []delivery.Delivery) int {
	seen := make(map[string]struct{})
	for _, d := range ds {
		seen[d.Endpoint] = struct{}{}
	}
	return len(seen)
}

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
