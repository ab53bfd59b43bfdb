package twofactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TerminalChannel reads a code typed on the terminal, terminated by EOF (Ctrl+D)
type TerminalChannel struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalChannel creates a channel reading from in and prompting on out
func NewTerminalChannel(in io.Reader, out io.Writer) *TerminalChannel {
	return &TerminalChannel{in: in, out: out}
}

// WaitForCode reads in until EOF and returns the trimmed content.
//
// The read runs on its own goroutine and cannot be interrupted: when ctx is
// done WaitForCode returns at once, but that goroutine keeps reading in (and
// discards what it gets) until in reaches EOF or fails. Callers that go on
// using in after a cancellation must close it first.
func (c *TerminalChannel) WaitForCode(ctx context.Context) (string, error) {
	fmt.Fprintln(c.out, "Input otp code and submit by typing Ctrl + D twice")

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		data, err := io.ReadAll(c.in)
		done <- result{code: strings.TrimSpace(string(data)), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("failed to read code: %w", r.err)
		}
		if r.code == "" {
			return "", errors.New("no code entered")
		}
		return r.code, nil
	}
}
