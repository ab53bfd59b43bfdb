package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"pdharvest/internal/downloader"
	"pdharvest/pkg/harvester"
	"pdharvest/pkg/peopledoc"
)

const barWidth = 20

// ProgressDisplay prints a single updating progress line for a run. In
// verbose mode every document gets its own line instead.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	verbose   bool
	username  string
	total     int
	done      int
	saved     int
	skipped   int
	failed    int
	bytes     int64
	current   string
	startTime time.Time
}

// NewProgressDisplay creates a display writing to out
func NewProgressDisplay(out io.Writer, username string, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		username:  username,
		verbose:   verbose,
		startTime: time.Now(),
	}
}

var _ harvester.Progress = (*ProgressDisplay)(nil)

// PhaseChanged implements harvester.Progress
func (p *ProgressDisplay) PhaseChanged(phase harvester.Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch phase {
	case harvester.PhaseAuthenticating:
		fmt.Fprintf(p.out, "%s %s\n", Magenta("→"), "Signing in as "+Cyan(p.username))
	case harvester.PhaseListing:
		fmt.Fprintf(p.out, "%s %s\n", Magenta("→"), "Listing documents")
	}
}

// Listed implements harvester.Progress
func (p *ProgressDisplay) Listed(total int, status peopledoc.ListStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	line := fmt.Sprintf("%s %d documents found", Green("✓"), total)
	if status == peopledoc.StatusPartial {
		line += " " + Yellow("(listing stopped early)")
	}
	fmt.Fprintln(p.out, line)
}

// DocumentStarted implements harvester.Progress
func (p *ProgressDisplay) DocumentStarted(index int, desc peopledoc.Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = desc.Filename
	if !p.verbose {
		p.printProgress()
	}
}

// DocumentFinished implements harvester.Progress
func (p *ProgressDisplay) DocumentFinished(index int, result downloader.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.current = ""
	switch {
	case result.Err != nil:
		p.failed++
	case result.Skipped:
		p.skipped++
	default:
		p.saved++
		p.bytes += result.Entry.Size
	}

	if !p.verbose {
		p.printProgress()
		return
	}

	name := result.Descriptor.Filename
	switch {
	case result.Err != nil:
		fmt.Fprintf(p.out, "%s %s • %v\n", Red("✗"), name, result.Err)
	case result.Skipped:
		fmt.Fprintf(p.out, "%s %s • %s\n", Dim("="), name, Dim("already saved"))
	default:
		fmt.Fprintf(p.out, "%s %s • %s\n", Green("✓"), name, FormatBytes(result.Entry.Size))
	}
}

// Finished implements harvester.Progress
func (p *ProgressDisplay) Finished(report *harvester.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := report.FinishedAt.Sub(report.StartedAt)
	fmt.Fprintf(p.out, "\n\n%s Saved %d of %d documents for %s\n",
		Green("✓"), report.Saved, report.Documents, report.Username)
	fmt.Fprintf(p.out, "  %s %s in %s\n", Dim("•"), FormatBytes(p.bytes), formatDuration(elapsed))
	if report.Skipped > 0 {
		fmt.Fprintf(p.out, "  %s %d already saved\n", Dim("•"), report.Skipped)
	}
	if report.Failed > 0 {
		fmt.Fprintf(p.out, "  %s %s\n", Dim("•"), Red(fmt.Sprintf("%d failed", report.Failed)))
	}
	if report.Partial {
		fmt.Fprintf(p.out, "  %s %s\n", Dim("•"), Yellow("listing incomplete: "+fmt.Sprint(report.ListErr)))
	}
	if report.ManifestPath != "" {
		fmt.Fprintf(p.out, "  %s manifest %s\n", Dim("•"), report.ManifestPath)
	}
}

func (p *ProgressDisplay) printProgress() {
	filled := 0
	if p.total > 0 {
		filled = p.done * barWidth / p.total
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("\r%s [%s] %d/%d • %s",
		Cyan(p.username), bar, p.done, p.total, FormatBytes(p.bytes))
	if p.current != "" {
		line += " • " + p.current
	}
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d errors", p.failed))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
