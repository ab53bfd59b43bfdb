package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Logo is the banner printed before a run
const Logo = `
 ┌─┐┌┬┐┬ ┬┌─┐┬─┐┬  ┬┌─┐┌─┐┌┬┐
 ├─┘ ││├─┤├─┤├┬┘└┐┌┘├┤ └─┐ │
 ┴  ─┴┘┴ ┴┴ ┴┴└─ └┘ └─┘└─┘ ┴
  MyPeopleDoc vault harvester
`

var (
	cyan    = lipgloss.Color("#00D7FF")
	yellow  = lipgloss.Color("#FFD700")
	red     = lipgloss.Color("#FF5F5F")
	green   = lipgloss.Color("#5FFF87")
	magenta = lipgloss.Color("#D787FF")
	grey    = lipgloss.Color("#8A8A8A")

	logoStyle      = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(cyan)
	valueStyle     = lipgloss.NewStyle().Foreground(yellow)
	errorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	successStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(yellow)
	highlightStyle = lipgloss.NewStyle().Foreground(magenta).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(grey)
)

// Out is where the Print helpers write
var Out io.Writer = os.Stdout

// Style helpers for inline use
func Cyan(s string) string    { return labelStyle.Render(s) }
func Yellow(s string) string  { return valueStyle.Render(s) }
func Red(s string) string     { return errorStyle.Render(s) }
func Green(s string) string   { return successStyle.Render(s) }
func Magenta(s string) string { return highlightStyle.Render(s) }
func Dim(s string) string     { return dimStyle.Render(s) }

// PrintLogo prints the banner
func PrintLogo() {
	fmt.Fprint(Out, logoStyle.Render(Logo)+"\n")
}

// PrintError prints an error message, with an optional cause
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Out, errorStyle.Render("✗ "+msg))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	fmt.Fprintln(Out, successStyle.Render("✓ "+msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label, value string) {
	fmt.Fprintf(Out, "%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

// PrintWarning prints a warning, with an optional cause
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Out, warningStyle.Render("⚠ "+msg))
}

// PrintHighlight prints a highlighted message
func PrintHighlight(msg string) {
	fmt.Fprintln(Out, highlightStyle.Render(msg))
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
