// Package twofactor delivers one-time codes to the authenticator.
//
// The delivery channel is chosen once at startup from a Mode: interactive
// runs read the code from the terminal, production runs wait for the SMS
// code to be dropped into a file by whatever relays it.
package twofactor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"pdharvest/pkg/logger"
)

// Mode selects how two-factor codes are obtained
type Mode int

const (
	// Production waits for an externally delivered code
	Production Mode = iota
	// Interactive reads the code from the terminal
	Interactive
)

func (m Mode) String() string {
	switch m {
	case Interactive:
		return "interactive"
	default:
		return "production"
	}
}

// ParseMode resolves a configured mode name. "standalone" and "development"
// are accepted as interactive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interactive", "standalone", "development":
		return Interactive, nil
	case "production", "":
		return Production, nil
	default:
		return Production, fmt.Errorf("invalid two-factor mode %q", s)
	}
}

// Channel yields a two-factor code. WaitForCode may block until a human
// or relay provides one; it returns early only when ctx is done.
type Channel interface {
	WaitForCode(ctx context.Context) (string, error)
}

// ChannelFunc adapts a function to Channel
type ChannelFunc func(ctx context.Context) (string, error)

// WaitForCode implements Channel
func (f ChannelFunc) WaitForCode(ctx context.Context) (string, error) {
	return f(ctx)
}

// New returns the channel for mode
func New(mode Mode, codeFile string, in io.Reader, out io.Writer, log logger.Logger) (Channel, error) {
	switch mode {
	case Interactive:
		return NewTerminalChannel(in, out), nil
	default:
		if codeFile == "" {
			return nil, fmt.Errorf("a code file is required in %s mode", mode)
		}
		return NewFileChannel(codeFile, log), nil
	}
}
