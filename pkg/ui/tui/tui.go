package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"pdharvest/internal/downloader"
	"pdharvest/pkg/harvester"
	"pdharvest/pkg/peopledoc"
)

// TUI is a bubbletea dashboard fed by harvester progress events
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ harvester.Progress = (*TUI)(nil)

// NewTUI creates a dashboard rendering to out
func NewTUI(username string, out io.Writer) *TUI {
	model := NewModel(username)
	program := tea.NewProgram(model, tea.WithOutput(out))

	return &TUI{
		program: program,
		model:   model,
	}
}

// Start runs the event loop until the run finishes or the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// PhaseChanged implements harvester.Progress
func (t *TUI) PhaseChanged(phase harvester.Phase) {
	t.Send(PhaseMsg{Phase: phase})
}

// Listed implements harvester.Progress
func (t *TUI) Listed(total int, status peopledoc.ListStatus) {
	t.Send(ListedMsg{Total: total, Status: status})
}

// DocumentStarted implements harvester.Progress
func (t *TUI) DocumentStarted(index int, desc peopledoc.Descriptor) {
	t.Send(DocumentStartMsg{Index: index, Filename: desc.Filename})
}

// DocumentFinished implements harvester.Progress
func (t *TUI) DocumentFinished(index int, result downloader.Result) {
	t.Send(DocumentDoneMsg{Index: index, Result: result})
}

// Finished implements harvester.Progress
func (t *TUI) Finished(report *harvester.Report) {
	t.Send(FinishedMsg{Report: report})
}

// Log sends a log line to the dashboard
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}
