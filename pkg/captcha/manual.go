package captcha

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Manual asks an operator to solve the challenge in a browser and paste the token
type Manual struct {
	in  io.Reader
	out io.Writer
}

// NewManual creates a prompt-based solver reading tokens from in
func NewManual(in io.Reader, out io.Writer) *Manual {
	return &Manual{in: in, out: out}
}

// Solve prints the challenge and reads one line holding the token
func (m *Manual) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	fmt.Fprintf(m.out, "Solve the reCAPTCHA on %s (site key %s) and paste the response token:\n", pageURL, siteKey)

	type result struct {
		token string
		err   error
	}
	done := make(chan result, 1)

	go func() {
		line, err := bufio.NewReader(m.in).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			done <- result{err: fmt.Errorf("failed to read captcha token: %w", err)}
			return
		}
		done <- result{token: strings.TrimSpace(line)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if r.token == "" {
			return "", errors.New("empty captcha token")
		}
		return r.token, nil
	}
}
