// Package watch implements the live terminal dashboard that follows a
// coordinator through its HTTP API.
package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/parbreak/internal/events"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	statusDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	statusInWork  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	statusFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	statusPending = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the bubbletea model for parbreak watch.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	health   healthMsg
	jobs     []jobView
	eventLog []events.Event

	jobTable  table.Model
	hubEvents chan events.Event

	lastError string
}

// New creates a watch model pointed at apiURL.
func New(apiURL, apiKey string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ST", Width: 2},
			{Title: "ID", Width: 10},
			{Title: "Command", Width: 40},
			{Title: "Duration", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{
		apiURL:    strings.TrimRight(apiURL, "/"),
		apiKey:    apiKey,
		hubEvents: make(chan events.Event, 100),
		jobTable:  t,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.subscribeToEvents(),
		m.receiveNextEvent(),
		func() tea.Msg { return m.fetchHealth() },
		func() tea.Msg { return m.fetchJobs() },
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.jobTable.SetWidth(m.width - 6)

	case eventMsg:
		m.eventLog = append([]events.Event{events.Event(msg)}, m.eventLog...)
		if len(m.eventLog) > 50 {
			m.eventLog = m.eventLog[:50]
		}
		// Any lifecycle event can change the table; refresh it.
		return m, tea.Batch(m.receiveNextEvent(), func() tea.Msg { return m.fetchJobs() })

	case healthMsg:
		m.health = msg
		m.lastError = ""
		return m, tea.Batch(
			tea.Tick(time.Second, func(time.Time) tea.Msg {
				return m.fetchHealth()
			}),
			func() tea.Msg { return m.fetchJobs() },
		)

	case jobsMsg:
		m.jobs = msg
		m.updateTable()

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
			return m.fetchHealth()
		})
	}

	m.jobTable, cmd = m.jobTable.Update(msg)
	return m, cmd
}

func (m *Model) updateTable() {
	rows := make([]table.Row, 0, len(m.jobs))
	// Newest first.
	for i := len(m.jobs) - 1; i >= 0; i-- {
		j := m.jobs[i]

		statusSym := statusPending.Render("○")
		switch j.Status {
		case "in_work":
			statusSym = statusInWork.Render("◉")
		case "done":
			statusSym = statusDone.Render("●")
		case "failed":
			statusSym = statusFailed.Render("∅")
		}

		duration := "-"
		if j.StartedAt != nil {
			end := time.Now()
			if j.CompletedAt != nil {
				end = *j.CompletedAt
			}
			duration = end.Sub(*j.StartedAt).Round(time.Millisecond).String()
		}

		id := j.ID
		if len(id) > 8 {
			id = id[:8]
		}

		rows = append(rows, table.Row{statusSym, id, j.Command, duration})
	}
	m.jobTable.SetRows(rows)
}

// --- View ---

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := m.renderHeader()
	jobsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Jobs"),
			m.jobTable.View(),
		),
	)
	eventsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Event Stream"),
			m.renderEvents(),
		),
	)

	help := helpStyle.Render(" [q] Quit • [↑/↓] Scroll Jobs")
	if m.lastError != "" {
		help = statusFailed.Render(" " + m.lastError)
	}

	return docStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, jobsView, eventsView, help),
	)
}

func (m Model) renderHeader() string {
	status := statusDone.Render("RUNNING")
	if m.health.Status != "ok" && m.health.Status != "" {
		status = statusFailed.Render("DEGRADED")
	}

	uptime := time.Duration(m.health.UptimeSeconds) * time.Second

	items := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Uptime: %s", uptime.String()),
		fmt.Sprintf("Queue: %d", m.health.QueueDepth),
		fmt.Sprintf("Remaining: %d/%d", m.health.Remaining, m.health.JobsTotal),
	}

	cell := lipgloss.NewStyle().Width((m.width - 4) / 4)
	return borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinHorizontal(lipgloss.Top,
			cell.Render(items[0]),
			cell.Render(items[1]),
			cell.Render(items[2]),
			cell.Render(items[3]),
		),
	)
}

func (m Model) renderEvents() string {
	var lines []string
	for i, e := range m.eventLog {
		if i >= 10 {
			break
		}
		ts := e.At.Format("15:04:05")
		lines = append(lines, fmt.Sprintf("%s | %-14s | %s", ts, e.Type, string(e.Data)))
	}
	if len(lines) == 0 {
		return "  No events yet..."
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}
