package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = "pdharvest ▸ MyPeopleDoc"

// View implements tea.Model
func (m *Model) View() string {
	sections := []string{
		logoStyle.Render(logo),
		m.renderStatsPanel(),
		m.renderLogsPanel(),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else if !m.finished {
		sections = append(sections, helpStyle.Render("q quit • ? help"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m *Model) renderStatsPanel() string {
	title := titleStyle.Render(" HARVEST ")

	status := m.spinner.View() + " " + m.phase.String()
	if m.finished {
		status = successStyle.Render("✓ done")
	}

	stats := []string{
		stat("Account:", m.username),
		stat("Status:", status),
		stat("Elapsed:", formatDuration(time.Since(m.startTime))),
		stat("Documents:", fmt.Sprintf("%d/%d", m.done, m.total)),
		stat("Saved:", fmt.Sprintf("%d (%s)", m.saved, FormatBytes(m.bytes))),
		stat("Skipped:", fmt.Sprintf("%d", m.skipped)),
	}
	if m.failed > 0 {
		stats = append(stats, stat("Failed:", errorStyle.Render(fmt.Sprintf("%d", m.failed))))
	}
	if eta := m.ETA(); eta > 0 {
		stats = append(stats, stat("ETA:", formatDuration(eta)))
	}
	if m.partial {
		stats = append(stats, warningStyle.Render("⚠ listing incomplete"))
	}

	stats = append(stats, "", m.progress.ViewAs(m.Percent()))
	if m.current != "" {
		stats = append(stats, currentStyle.Render("↓ "+m.current))
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(stats, "\n")))
}

func stat(label, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(fmt.Sprintf("%-10s", label)), statsValueStyle.Render(value))
}

func (m *Model) renderLogsPanel() string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 8
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, entry := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(entry.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(entry.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", entry.Level))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(entry.Message)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = logMessageStyle.Render("No events yet...")
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m *Model) renderHelp() string {
	help := `  q/Q      quit the dashboard (cancels the run)
  ctrl+l   clear the log
  ?        toggle this help`
	return panelStyle.Render(help)
}
