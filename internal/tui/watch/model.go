package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/fleetfix/internal/events"
)

// Model is the main BubbleTea model for the run watch TUI.
type Model struct {
	apiURL        string
	apiKey        string
	remediationID string

	width  int
	height int

	// State
	health      HealthState
	runs        []runRow
	eventLog    []events.Event
	selectedRun int

	// UI components
	spinner      spinner.Model
	eventLogView viewport.Model
	theme        Theme

	// Communication
	hubEvents chan events.Event

	lastError string
}

// HealthState tracks the service health banner.
type HealthState struct {
	Status           string
	UptimeSeconds    int64
	DispatcherOnline bool
	Connected        bool
	LastCheck        time.Time
}

// New creates a watch TUI model for one remediation.
func New(apiURL, apiKey, remediationID string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		apiURL:        apiURL,
		apiKey:        apiKey,
		remediationID: remediationID,
		eventLog:      make([]events.Event, 0),
		hubEvents:     make(chan events.Event, 100),
		spinner:       sp,
		eventLogView:  viewport.New(0, 8),
		theme:         NewDefaultTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		subscribeToEvents(m.apiURL, m.apiKey, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		fetchRuns(m.apiURL, m.apiKey, m.remediationID),
		func() tea.Msg { return fetchHealth(m.apiURL, m.apiKey) },
		tea.Tick(5*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.selectedRun > 0 {
				m.selectedRun--
			}
		case "down", "j":
			if m.selectedRun < len(m.runs)-1 {
				m.selectedRun++
			}
		case "r":
			return m, fetchRuns(m.apiURL, m.apiKey, m.remediationID)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.eventLogView.Width = msg.Width - 6

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		// Periodic refresh keeps executor statuses current even when no
		// lifecycle event fires.
		return m, tea.Batch(
			fetchRuns(m.apiURL, m.apiKey, m.remediationID),
			tea.Tick(5*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		)

	case eventMsg:
		e := events.Event(msg)

		m.eventLog = append([]events.Event{e}, m.eventLog...)
		if len(m.eventLog) > 50 {
			m.eventLog = m.eventLog[:50]
		}
		m.eventLogView.SetContent(renderEventLines(m.eventLog, m.theme))

		m.health.Connected = true
		m.lastError = ""

		// A lifecycle event for any run invalidates the list.
		return m, tea.Batch(
			receiveNextEvent(m.hubEvents),
			fetchRuns(m.apiURL, m.apiKey, m.remediationID),
		)

	case runsMsg:
		m.runs = msg.Data
		if m.selectedRun >= len(m.runs) {
			m.selectedRun = 0
		}
		m.lastError = ""

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.DispatcherOnline = msg.DispatcherOnline
		m.health.Connected = true
		m.health.LastCheck = time.Now()

		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL, m.apiKey)
		})

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "SSE disconnected, reconnecting..."
		// The receiveNextEvent goroutine keeps waiting on the channel and
		// picks up events from the new subscription.
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return reconnectMsg{}
		})

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.apiKey, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL, m.apiKey)
		})
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting..."
	}

	header := m.renderHeader()
	runs := m.renderRuns()
	eventStream := m.theme.Border.Width(m.width - 4).Render(
		m.theme.Title.Render("Events") + "\n" + m.eventLogView.View(),
	)

	var errBar string
	if m.lastError != "" {
		errBar = m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	help := m.theme.Dim.Render(" [q] Quit • [r] Refresh • [↑/↓] Navigate Runs")

	parts := []string{header, runs, eventStream}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
