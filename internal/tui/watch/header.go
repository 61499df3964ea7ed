package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// PollState tracks the outcome of the last store poll.
type PollState struct {
	Source     string
	OK         bool
	LastPoll   time.Time
	Shown      int
	Duplicates int
	Endpoints  int
}

func renderHeader(poll PollState, ticker Ticker, spinner Spinner, theme Theme, width int, now time.Time) string {
	innerWidth := width - 4

	statusText := theme.StatusOK.Render("LIVE")
	statusIcon := "✅"
	if poll.LastPoll.IsZero() {
		statusText = theme.StatusQueued.Render("LOADING")
		statusIcon = "🔌"
	} else if !poll.OK {
		statusText = theme.StatusFailed.Render("STALE")
		statusIcon = "⚠️"
	}

	lastDelivery := "never"
	if !spinner.LastDelivery().IsZero() {
		lastDelivery = fmt.Sprintf("%s ago", formatDuration(now.Sub(spinner.LastDelivery())))
	}

	tickerStr := theme.Highlight.Render(ticker.Current())
	clock := theme.Dim.Render(now.Format("15:04:05"))
	titleText := fmt.Sprintf(" SWITCHBOARD WATCH %s", tickerStr)

	titleWidth := lipgloss.Width(titleText)
	clockWidth := lipgloss.Width(clock)
	pad := innerWidth - titleWidth - clockWidth - 4
	if pad < 1 {
		pad = 1
	}
	titleLine := titleText + strings.Repeat(" ", pad) + clock + " "

	statsLine := fmt.Sprintf(" %s %s  Deliveries: %d  Duplicates: %d  Endpoints: %d",
		statusIcon, statusText,
		poll.Shown,
		poll.Duplicates,
		poll.Endpoints,
	)

	activityLine := fmt.Sprintf(" Last delivery: %s %s  %s",
		lastDelivery,
		spinner.Render(theme),
		theme.Dim.Render(poll.Source),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleLine,
		statsLine,
		activityLine,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
