package peopledoc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"pdharvest/pkg/config"
	errs "pdharvest/pkg/errors"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/ratelimit"
	"pdharvest/pkg/session"
)

// Client is an HTTP session against PeopleDoc. It owns the cookie jar that
// carries authentication between calls.
type Client struct {
	httpClient *http.Client
	jar        *recordingJar
	headers    map[string]string
	endpoints  Endpoints
	apiVersion string
	limiter    ratelimit.Limiter
	logger     logger.Logger

	sessionVersion int
}

// NewClient creates a PeopleDoc client from configuration. A nil limiter
// disables pacing; a nil logger uses the global one.
func NewClient(cfg config.PeopleDocConfig, limiter ratelimit.Limiter, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	jar := newRecordingJar(inner)

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	headers := map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		jar:        jar,
		headers:    headers,
		endpoints:  NewEndpoints(cfg.BaseURL),
		apiVersion: apiVersion,
		limiter:    limiter,
		logger:     log.WithField("component", "peopledoc"),
	}, nil
}

// BaseURL returns the configured service root
func (c *Client) BaseURL() string {
	return c.endpoints.BaseURL
}

// Endpoints returns the URL builder bound to this client
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// SetHeader sets a default header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers. Headers in
// extra override the defaults.
func (c *Client) doRequest(req *http.Request, extra map[string]string) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, "request cancelled while rate limited", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WithError(err).ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, "network error", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, 0, "failed to create request", err)
	}
	return req, nil
}

// GetJSON performs a GET request, decodes a 2xx JSON body into target and
// returns the response headers.
func (c *Client) GetJSON(ctx context.Context, rawURL string, target interface{}) (http.Header, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(req, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}
	if err := c.decodeJSON(resp, target); err != nil {
		return nil, err
	}
	return resp.Header, nil
}

// PostForm submits form url-encoded and decodes a 2xx JSON body into target
// when target is non-nil.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string, target interface{}) error {
	req, err := c.newRequest(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return c.decodeJSON(resp, target)
}

// Follow GETs rawURL following redirects and returns the URL the client
// finally landed on, fragment included.
func (c *Client) Follow(ctx context.Context, rawURL string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.doRequest(req, map[string]string{"Accept": "text/html,application/xhtml+xml,*/*"})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if err := c.checkResponseStatus(resp); err != nil {
		return "", err
	}
	return resp.Request.URL.String(), nil
}

// Fetch opens a 2xx response body for rawURL. The caller closes it.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(req, headers)
	if err != nil {
		return nil, err
	}
	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) decodeJSON(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.WithError(err).ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL.String(),
			"status":       resp.StatusCode,
			"body_preview": bodyPreview,
		})
		return errs.Wrap(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON", err)
	}
	return nil
}

// checkResponseStatus maps non-2xx responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	errType := errs.FromStatus(resp.StatusCode)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}
	if errType == errs.ErrorTypeServerError {
		c.logger.ErrorWithFields("server error", fields)
	} else {
		c.logger.WarnWithFields("unexpected status", fields)
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return errs.New(errType, resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
}

// Snapshot captures every live cookie, with its attributes, as a new
// session version for username
func (c *Client) Snapshot(username string) *session.Session {
	c.sessionVersion++
	return &session.Session{
		Username: username,
		Version:  c.sessionVersion,
		Cookies:  c.jar.snapshot(),
		SavedAt:  time.Now(),
	}
}

// Restore loads a saved session into the cookie jar
func (c *Client) Restore(s *session.Session) error {
	if s == nil {
		return nil
	}
	base, err := url.Parse(c.endpoints.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	c.jar.restore(base, s.HTTPCookies(time.Now()))
	c.sessionVersion = s.Version

	c.logger.DebugWithFields("session restored", map[string]interface{}{
		"version": s.Version,
		"cookies": len(s.Cookies),
	})
	return nil
}

// SessionVersion returns the version of the last restored or snapshotted session
func (c *Client) SessionVersion() int {
	return c.sessionVersion
}
