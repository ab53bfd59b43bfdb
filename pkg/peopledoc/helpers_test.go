package peopledoc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pdharvest/internal/testutil"
	"pdharvest/pkg/captcha"
	"pdharvest/pkg/config"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/twofactor"
)

const (
	testUser     = "jane@example.com"
	testPassword = "hunter2"
)

func newFakeServer(t *testing.T) *testutil.PeopleDocServer {
	t.Helper()
	srv := testutil.NewPeopleDocServer(testUser, testPassword)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, log logger.Logger) *Client {
	t.Helper()
	if log == nil {
		log = logger.NewNopLogger()
	}
	client, err := NewClient(config.PeopleDocConfig{
		BaseURL:    baseURL,
		APIVersion: DefaultAPIVersion,
		Timeout:    5 * time.Second,
		UserAgent:  "pdharvest-test",
	}, nil, log)
	require.NoError(t, err)
	return client
}

// recordingSolver counts solves and returns a fixed token or error
type recordingSolver struct {
	mu      sync.Mutex
	calls   int
	siteKey string
	pageURL string
	token   string
	err     error
}

func (s *recordingSolver) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.siteKey = siteKey
	s.pageURL = pageURL
	return s.token, s.err
}

var _ captcha.Solver = (*recordingSolver)(nil)

// recordingChannel counts code requests
type recordingChannel struct {
	calls int
	code  string
	err   error
}

func (c *recordingChannel) WaitForCode(ctx context.Context) (string, error) {
	c.calls++
	return c.code, c.err
}

var _ twofactor.Channel = (*recordingChannel)(nil)

// recordingNotifier records hook calls in order
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) DeactivateAutoSuccessfulLogin() {
	n.events = append(n.events, "deactivate")
}

func (n *recordingNotifier) NotifySuccessfulLogin() {
	n.events = append(n.events, "success")
}

var errSolverDown = errors.New("solver down")
