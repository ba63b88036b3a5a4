package watch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/fleetfix/internal/events"
)

func (m Model) renderHeader() string {
	innerWidth := m.width - 4

	statusText := m.theme.StatusSuccess.Render("HEALTHY")
	statusIcon := "✅"
	if !m.health.Connected {
		statusText = m.theme.StatusFailed.Render("CONNECTING")
		statusIcon = "🔌"
	} else if !m.health.DispatcherOnline {
		statusText = m.theme.StatusFailed.Render("DISPATCHER OFFLINE")
		statusIcon = "⚠️"
	}

	uptime := time.Duration(m.health.UptimeSeconds) * time.Second
	clock := m.theme.Dim.Render(time.Now().Format("15:04:05"))
	titleText := fmt.Sprintf(" FLEETFIX WATCH %s %s",
		m.theme.Highlight.Render(shortID(m.remediationID)), m.spinner.View())

	titleWidth := lipgloss.Width(titleText)
	clockWidth := lipgloss.Width(clock)
	pad := innerWidth - titleWidth - clockWidth - 4
	if pad < 1 {
		pad = 1
	}
	titleLine := titleText + strings.Repeat(" ", pad) + clock + " "

	statsLine := fmt.Sprintf(" %s %s  ⏱ %s  Runs: %d",
		statusIcon, statusText,
		formatDuration(uptime),
		len(m.runs),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, statsLine)
	return m.theme.Border.Width(innerWidth).Render(content)
}

func (m Model) renderRuns() string {
	innerWidth := m.width - 4

	if len(m.runs) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("PLAYBOOK RUNS"),
			m.theme.Dim.Render("  No runs yet..."),
		)
		return m.theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, r := range m.runs {
		cursor := "  "
		if i == m.selectedRun {
			cursor = m.theme.Highlight.Render("> ")
		}
		line := fmt.Sprintf("%s%s %s %s %s",
			cursor,
			m.theme.Dim.Render(r.CreatedAt.Local().Format("01-02 15:04")),
			m.theme.Header.Render(shortID(r.ID)),
			m.theme.statusStyle(r.Status).Render(fmt.Sprintf("%-8s", r.Status)),
			m.theme.Dim.Render(r.CreatedBy),
		)
		lines = append(lines, line)

		// Sub-run detail for the selected row.
		if i == m.selectedRun {
			for _, ex := range r.Executors {
				lines = append(lines, fmt.Sprintf("      %s %s %s",
					ex.ExecutorName,
					m.theme.statusStyle(ex.Status).Render(ex.Status),
					m.theme.Dim.Render(fmt.Sprintf("(%d systems)", ex.SystemCount)),
				))
			}
		}
	}

	runsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("PLAYBOOK RUNS"),
		runsText,
	)
	return m.theme.Border.Width(innerWidth).Render(content)
}

func renderEventLines(eventLog []events.Event, theme Theme) string {
	if len(eventLog) == 0 {
		return theme.Dim.Render("  Waiting for events...")
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}
	return strings.Join(lines, "\n")
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	var typeStyle lipgloss.Style
	switch e.Type {
	case events.TypeRunCreated:
		typeStyle = theme.StatusRunning
	case events.TypeRunCanceled:
		typeStyle = theme.StatusCanceled
	default:
		typeStyle = theme.Dim
	}
	typeName := typeStyle.Render(fmt.Sprintf("%-14s", e.Type))

	return fmt.Sprintf("%s %s %s", ts, typeName, extractEventDesc(e))
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string
	if runID, ok := data["playbook_run_id"].(string); ok {
		parts = append(parts, fmt.Sprintf("[%s]", shortID(runID)))
	}
	if remID, ok := data["remediation_id"].(string); ok {
		parts = append(parts, shortID(remID))
	}
	if user, ok := data["created_by"].(string); ok {
		parts = append(parts, user)
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
