package peopledoc

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"pdharvest/pkg/auth"
	"pdharvest/pkg/captcha"
	errs "pdharvest/pkg/errors"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/session"
	"pdharvest/pkg/twofactor"
)

// AuthState is the position of the login state machine
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateCaptchaSolved
	StateCredentialsSubmitted
	StateTwoFactorPending
	StateTwoFactorSubmitted
	StateAuthenticated
	StateFailed
)

func (s AuthState) String() string {
	switch s {
	case StateCaptchaSolved:
		return "captcha_solved"
	case StateCredentialsSubmitted:
		return "credentials_submitted"
	case StateTwoFactorPending:
		return "two_factor_pending"
	case StateTwoFactorSubmitted:
		return "two_factor_submitted"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unauthenticated"
	}
}

// LoginNotifier is told when an interactive login starts and when it succeeds
type LoginNotifier interface {
	DeactivateAutoSuccessfulLogin()
	NotifySuccessfulLogin()
}

// NopNotifier ignores login notifications
type NopNotifier struct{}

func (NopNotifier) DeactivateAutoSuccessfulLogin() {}
func (NopNotifier) NotifySuccessfulLogin()         {}

// Authenticator drives the PeopleDoc login flow on a Client
type Authenticator struct {
	client   *Client
	solver   captcha.Solver
	codes    twofactor.Channel
	store    session.Store
	notifier LoginNotifier
	siteKey  string
	logger   logger.Logger

	state AuthState
}

// NewAuthenticator wires the login flow. store and notifier may be nil.
func NewAuthenticator(client *Client, solver captcha.Solver, codes twofactor.Channel, store session.Store, notifier LoginNotifier, log logger.Logger) *Authenticator {
	if log == nil {
		log = logger.GetLogger()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Authenticator{
		client:   client,
		solver:   solver,
		codes:    codes,
		store:    store,
		notifier: notifier,
		siteKey:  DefaultSiteKey,
		logger:   log.WithField("component", "authenticator"),
	}
}

// WithSiteKey overrides the reCAPTCHA site key
func (a *Authenticator) WithSiteKey(siteKey string) *Authenticator {
	if siteKey != "" {
		a.siteKey = siteKey
	}
	return a
}

// State returns the state reached by the last Authenticate call
func (a *Authenticator) State() AuthState {
	return a.state
}

// RestoreSession loads the saved session for username into the client.
// A missing or unreadable session is not an error; login simply starts fresh.
func (a *Authenticator) RestoreSession(username string) {
	if a.store == nil {
		return
	}

	s, err := a.store.Load(username)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			a.logger.WithError(err).Warn("failed to load saved session")
		}
		return
	}
	if err := a.client.Restore(s); err != nil {
		a.logger.WithError(err).Warn("failed to restore saved session")
	}
}

// Authenticate makes sure the client holds a live session. It returns nil
// immediately when the current session is still valid; otherwise it runs
// the CAPTCHA, credential and optional two-factor steps. Every failure is a
// LoginFailed error.
func (a *Authenticator) Authenticate(ctx context.Context, creds auth.Account) error {
	a.state = StateUnauthenticated

	if a.client.IsSessionValid(ctx) {
		a.state = StateAuthenticated
		a.logger.Info("session still valid, skipping login")
		return nil
	}

	a.notifier.DeactivateAutoSuccessfulLogin()

	challenge := a.CaptchaChallenge()
	token, err := a.solver.Solve(ctx, challenge.SiteKey, challenge.PageURL)
	if err != nil {
		return a.fail("captcha could not be solved", err)
	}
	a.state = StateCaptchaSolved

	var login loginResponse
	form := url.Values{}
	form.Set("captcha", token)
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	err = a.client.PostForm(ctx, a.client.Endpoints().LoginURL(), form,
		map[string]string{APIVersionHeader: a.client.apiVersion}, &login)
	a.state = StateCredentialsSubmitted
	if err != nil {
		return a.fail("credentials rejected", err)
	}
	if login.RedirectURL == "" {
		return a.fail("login response has no redirect_url", nil)
	}

	redirect, err := a.client.Endpoints().Resolve(login.RedirectURL)
	if err != nil {
		return a.fail("invalid redirect_url", err)
	}
	landing, err := a.client.Follow(ctx, redirect)
	if err != nil {
		return a.fail("failed to follow login redirect", err)
	}

	challenge = a.client.Endpoints().DetectChallenge(landing)
	if challenge.Kind == ChallengeTwoFactor {
		if err := a.submitTwoFactor(ctx, challenge.Identifier); err != nil {
			return err
		}
	}

	a.saveSession(creds.Username)
	a.state = StateAuthenticated
	a.notifier.NotifySuccessfulLogin()

	a.logger.InfoWithFields("login succeeded", map[string]interface{}{
		"two_factor": challenge.Kind == ChallengeTwoFactor,
	})
	return nil
}

func (a *Authenticator) submitTwoFactor(ctx context.Context, identifier string) error {
	a.state = StateTwoFactorPending
	if a.codes == nil {
		return a.fail("two-factor code required but no code channel configured", nil)
	}

	code, err := a.codes.WaitForCode(ctx)
	if err != nil {
		return a.fail("two-factor code unavailable", err)
	}
	code = strings.TrimSpace(code)

	a.logger.InfoWithFields("2FA code received", map[string]interface{}{
		"code": strings.Repeat("*", len(code)),
	})

	form := url.Values{}
	form.Set("code", code)
	form.Set("trusted_device", "false")

	err = a.client.PostForm(ctx, a.client.Endpoints().TwoFactorURL(identifier), form, nil, nil)
	a.state = StateTwoFactorSubmitted
	if err != nil {
		return a.fail("two-factor code rejected", err)
	}
	return nil
}

func (a *Authenticator) saveSession(username string) {
	if a.store == nil {
		return
	}
	s := a.client.Snapshot(username)
	if err := a.store.Save(s); err != nil {
		a.logger.WithError(err).Warn("failed to save session")
		return
	}
	a.logger.DebugWithFields("session saved", map[string]interface{}{
		"version": s.Version,
	})
}

func (a *Authenticator) fail(message string, cause error) error {
	a.logger.WithError(cause).ErrorWithFields("login failed", map[string]interface{}{
		"state":  a.state.String(),
		"reason": message,
	})
	a.state = StateFailed
	return errs.LoginFailed(message, cause)
}

// DetectChallenge inspects the URL the login redirect landed on
func (e Endpoints) DetectChallenge(landing string) Challenge {
	if !strings.Contains(landing, twoFactorMarker) {
		return Challenge{Kind: ChallengeNone}
	}

	identifier := strings.TrimPrefix(landing, e.TwoFactorPrefix())
	if identifier == landing {
		// landed on another host; take whatever follows the marker
		marker := twoFactorMarker + "/"
		if idx := strings.Index(landing, marker); idx >= 0 {
			identifier = landing[idx+len(marker):]
		}
	}
	return Challenge{Kind: ChallengeTwoFactor, Identifier: identifier}
}

// CaptchaChallenge is the challenge presented by the login form
func (a *Authenticator) CaptchaChallenge() Challenge {
	return Challenge{Kind: ChallengeCaptcha, SiteKey: a.siteKey, PageURL: a.client.BaseURL()}
}
