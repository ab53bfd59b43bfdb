package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"pdharvest/pkg/peopledoc"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier prints notifications and, when a sender is available, mirrors
// them to the desktop. It also serves as the authenticator's login hooks.
type Notifier struct {
	sender      NotificationSender
	out         io.Writer
	autoSuccess bool
}

var _ peopledoc.LoginNotifier = (*Notifier)(nil)

// NewNotifier picks a sender for the current platform. With desktop false
// notifications are only printed.
func NewNotifier(desktop bool) *Notifier {
	var sender NotificationSender
	if desktop {
		switch runtime.GOOS {
		case "linux":
			sender = &LinuxNotificationSender{}
		case "darwin":
			sender = &MacOSNotificationSender{}
		}
	}
	return NewNotifierWithSender(sender, os.Stdout)
}

// NewNotifierWithSender creates a Notifier with an explicit sender; sender may be nil
func NewNotifierWithSender(sender NotificationSender, out io.Writer) *Notifier {
	return &Notifier{sender: sender, out: out, autoSuccess: true}
}

// DeactivateAutoSuccessfulLogin implements peopledoc.LoginNotifier. After
// it, a login is only announced through NotifySuccessfulLogin.
func (n *Notifier) DeactivateAutoSuccessfulLogin() {
	n.autoSuccess = false
}

// NotifySuccessfulLogin implements peopledoc.LoginNotifier
func (n *Notifier) NotifySuccessfulLogin() {
	n.SendSuccess("PeopleDoc", "Logged in")
}

// AutoSuccessfulLogin reports whether a reused session should still be
// announced as a successful login
func (n *Notifier) AutoSuccessfulLogin() bool {
	return n.autoSuccess
}

// SendNotification prints an informational notification
func (n *Notifier) SendNotification(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Cyan(title), Yellow(message))
	n.send(title, message)
}

// SendError prints an error notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

// SendSuccess prints a success notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// desktop delivery is best effort
		_ = n.sender.Send(title, message)
	}
}
