package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"pdharvest/internal/downloader"
	"pdharvest/pkg/harvester"
	"pdharvest/pkg/peopledoc"
)

// PhaseMsg is sent when the run enters a new phase
type PhaseMsg struct {
	Phase harvester.Phase
}

// ListedMsg is sent once the listing walk ends
type ListedMsg struct {
	Total  int
	Status peopledoc.ListStatus
}

// DocumentStartMsg is sent before a document is fetched
type DocumentStartMsg struct {
	Index    int
	Filename string
}

// DocumentDoneMsg is sent after a document is handled
type DocumentDoneMsg struct {
	Index  int
	Result downloader.Result
}

// FinishedMsg is sent with the final report
type FinishedMsg struct {
	Report *harvester.Report
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 20; w > 10 {
			m.progress.Width = w
		}
		return m, nil

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PhaseMsg:
		m.phase = msg.Phase
		m.AddLogMessage("INFO", "Phase: "+msg.Phase.String())
		return m, nil

	case ListedMsg:
		m.total = msg.Total
		m.partial = msg.Status == peopledoc.StatusPartial
		if m.partial {
			m.AddLogMessage("WARN", fmt.Sprintf("Listing stopped early, %d documents", msg.Total))
		} else {
			m.AddLogMessage("INFO", fmt.Sprintf("%d documents listed", msg.Total))
		}
		return m, nil

	case DocumentStartMsg:
		m.current = msg.Filename
		return m, nil

	case DocumentDoneMsg:
		m.applyResult(msg.Result)
		return m, nil

	case FinishedMsg:
		m.finished = true
		m.current = ""
		if msg.Report != nil {
			m.AddLogMessage("SUCCESS", fmt.Sprintf("Done: %d saved, %d skipped, %d failed",
				msg.Report.Saved, msg.Report.Skipped, msg.Report.Failed))
		}
		return m, tea.Quit

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

func (m *Model) applyResult(r downloader.Result) {
	m.done++
	m.current = ""
	name := r.Descriptor.Filename

	switch {
	case r.Err != nil:
		m.failed++
		m.AddLogMessage("ERROR", "Failed: "+name+" - "+r.Err.Error())
	case r.Skipped:
		m.skipped++
	default:
		m.saved++
		m.bytes += r.Entry.Size
		m.AddLogMessage("SUCCESS", "Saved: "+name)
	}
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
