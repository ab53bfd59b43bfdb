// Package captcha obtains reCAPTCHA tokens for the PeopleDoc login form.
//
// The authenticator only sees the Solver interface. Two implementations are
// provided: AntiCaptcha, which delegates to the anti-captcha.com task API,
// and Manual, which asks an operator to paste a token solved in a browser.
package captcha

import (
	"context"
	"fmt"
	"os"
	"strings"

	"pdharvest/pkg/config"
	"pdharvest/pkg/logger"
)

// Solver returns a response token for the reCAPTCHA identified by siteKey on pageURL.
// Implementations may block for as long as solving takes; they must honour ctx.
type Solver interface {
	Solve(ctx context.Context, siteKey, pageURL string) (string, error)
}

// SolverFunc adapts a function to Solver
type SolverFunc func(ctx context.Context, siteKey, pageURL string) (string, error)

// Solve implements Solver
func (f SolverFunc) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	return f(ctx, siteKey, pageURL)
}

// New builds the solver selected in configuration
func New(cfg config.CaptchaConfig, log logger.Logger) (Solver, error) {
	switch strings.ToLower(cfg.Provider) {
	case "anticaptcha":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("captcha api key is required for provider %q", cfg.Provider)
		}
		return NewAntiCaptcha(cfg, log), nil
	case "manual":
		return NewManual(os.Stdin, os.Stderr), nil
	default:
		return nil, fmt.Errorf("unknown captcha provider %q", cfg.Provider)
	}
}
