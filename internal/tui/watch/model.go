package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/switchboard/internal/delivery"
)

// Source lists deliveries; *delivery.Store satisfies it.
type Source interface {
	List(ctx context.Context, f delivery.Filter) ([]delivery.Delivery, error)
}

// DefaultInterval is the poll period when Options.Interval is zero.
const DefaultInterval = 2 * time.Second

// Options configures the watch model.
type Options struct {
	// Label names the source in the header, typically the database path.
	Label    string
	Filter   delivery.Filter
	Interval time.Duration
}

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	source   Source
	opts     Options
	now      func() time.Time
	width    int
	height   int
	poll     PollState
	items    []delivery.Delivery
	newestID string

	// Live indicators
	ticker  Ticker
	spinner Spinner

	theme Theme
	table table.Model

	lastError string
}

type tickMsg time.Time

type pollMsg struct {
	deliveries []delivery.Delivery
	at         time.Time
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// New creates a watch model polling source.
func New(source Source, opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	theme := NewDefaultTheme()
	t := table.New(
		table.WithColumns(deliveryColumns()),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(theme.Table),
	)
	return &Model{
		source:  source,
		opts:    opts,
		now:     time.Now,
		poll:    PollState{Source: opts.Label},
		ticker:  NewTicker(),
		spinner: NewSpinner(),
		theme:   theme,
		table:   t,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetch(),
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) fetch() tea.Cmd {
	source, filter, now := m.source, m.opts.Filter, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ds, err := source.List(ctx, filter)
		if err != nil {
			return errMsg{err}
		}
		return pollMsg{deliveries: ds, at: now()}
	}
}

func (m Model) schedulePoll() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg {
		return m.fetch()()
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header (5) + detail (~8) + help and margins (6)
		if h := msg.Height - 19; h > 3 {
			m.table.SetHeight(h)
		}

	case tickMsg:
		m.ticker.Tick()
		m.spinner.Decay(m.now())
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case pollMsg:
		m.apply(msg)
		return m, m.schedulePoll()

	case errMsg:
		m.poll.OK = false
		m.poll.LastPoll = m.now()
		m.lastError = msg.Error()
		return m, m.schedulePoll()
	}

	return m, nil
}

// apply installs a poll result and lights the spinner when the newest
// delivery changed since the previous poll.
func (m *Model) apply(msg pollMsg) {
	m.items = msg.deliveries
	m.table.SetRows(deliveryRows(msg.deliveries))
	if c := m.table.Cursor(); c >= len(msg.deliveries) && len(msg.deliveries) > 0 {
		m.table.SetCursor(len(msg.deliveries) - 1)
	}

	if len(msg.deliveries) > 0 {
		newest := msg.deliveries[0]
		if newest.ID != m.newestID {
			m.spinner.OnDelivery(newest.ReceivedAt)
			m.newestID = newest.ID
		}
	}

	m.poll.OK = true
	m.poll.LastPoll = msg.at
	m.poll.Shown = len(msg.deliveries)
	m.poll.Duplicates = countDuplicates(msg.deliveries)
	m.poll.Endpoints = countEndpoints(msg.deliveries)
	m.lastError = ""
}

// Selected returns the delivery under the cursor, nil when the table is empty.
func (m Model) Selected() *delivery.Delivery {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.items) {
		return nil
	}
	return &m.items[c]
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing watch..."
	}

	now := m.now()
	header := renderHeader(m.poll, m.ticker, m.spinner, m.theme, m.width, now)
	list := m.theme.Border.Width(m.width - 4).Render(m.table.View())
	detail := renderDetail(m.Selected(), m.theme, m.width)

	var errBar string
	if m.lastError != "" {
		errBar = m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	help := helpStyle.Render(" [q] Quit • [↑/↓] Select • [r] Refresh")

	parts := []string{header, list, detail}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
