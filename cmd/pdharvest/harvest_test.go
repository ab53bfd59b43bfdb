package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdharvest/internal/testutil"
	"pdharvest/pkg/auth"
	"pdharvest/pkg/config"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/metadata"
	"pdharvest/pkg/peopledoc"
	"pdharvest/pkg/session"
	"pdharvest/pkg/ui"
)

const (
	testUser     = "jane@example.com"
	testPassword = "hunter2"
)

func testConfig(t *testing.T, srv *testutil.PeopleDocServer) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PDHARVEST_PASSPHRASE", "test-passphrase")

	c := config.DefaultConfig()
	c.PeopleDoc.BaseURL = srv.URL()
	c.Captcha.Provider = "manual"
	c.TwoFactor.Mode = "interactive"
	c.Session.Path = filepath.Join(t.TempDir(), "sessions")
	c.RateLimit.RequestsPerSecond = 0
	c.Output.BaseDirectory = filepath.Join(t.TempDir(), "out")
	require.NoError(t, c.Validate())
	return c
}

func saveSession(t *testing.T, c *config.Config, cookie *http.Cookie) {
	t.Helper()
	store, err := session.NewStore(c.Session)
	require.NoError(t, err)
	require.NoError(t, store.Save(&session.Session{
		Username: testUser,
		Cookies:  session.FromHTTPCookies([]*http.Cookie{cookie}),
	}))
}

func TestBuildHarvesterRunsWithSavedSession(t *testing.T) {
	srv := testutil.NewPeopleDocServer(testUser, testPassword)
	defer srv.Close()
	srv.SetDocuments([]testutil.Document{
		{ID: "10", Title: "Payslip", Name: "payslip.pdf", Content: "jan"},
		{ID: "11", Title: "Contract", Name: "contract.pdf", Content: "signed"},
	})

	c := testConfig(t, srv)
	saveSession(t, c, srv.SessionCookie())

	h, cleanup, err := buildHarvester(c, peopledoc.NopNotifier{}, nil, logger.NewNopLogger())
	require.NoError(t, err)
	defer cleanup()

	report, err := h.Run(context.Background(), auth.Account{Username: testUser, Password: testPassword})
	require.NoError(t, err)

	assert.Zero(t, srv.LoginPosts(), "a valid saved session skips login")
	assert.Equal(t, 2, report.Saved)
	assert.Zero(t, report.Failed)

	for _, name := range []string{"payslip.pdf", "contract.pdf"} {
		_, err := os.Stat(filepath.Join(c.Output.BaseDirectory, peopledoc.SubPath, name))
		assert.NoError(t, err, name)
	}
	assert.True(t, metadata.Exists(c.Output.BaseDirectory))
}

func TestBuildHarvesterSkipsManifestWhenDisabled(t *testing.T) {
	srv := testutil.NewPeopleDocServer(testUser, testPassword)
	defer srv.Close()
	srv.SetDocuments([]testutil.Document{{ID: "1", Name: "a.pdf", Content: "a"}})

	c := testConfig(t, srv)
	c.Output.WriteManifest = false
	saveSession(t, c, srv.SessionCookie())

	h, cleanup, err := buildHarvester(c, peopledoc.NopNotifier{}, nil, logger.NewNopLogger())
	require.NoError(t, err)
	defer cleanup()

	report, err := h.Run(context.Background(), auth.Account{Username: testUser, Password: testPassword})
	require.NoError(t, err)
	assert.Empty(t, report.ManifestPath)
	assert.False(t, metadata.Exists(c.Output.BaseDirectory))
}

func TestBuildHarvesterRejectsMissingCaptchaKey(t *testing.T) {
	srv := testutil.NewPeopleDocServer(testUser, testPassword)
	defer srv.Close()

	c := testConfig(t, srv)
	c.Captcha.Provider = "anticaptcha"
	c.Captcha.APIKey = ""

	_, _, err := buildHarvester(c, peopledoc.NopNotifier{}, nil, logger.NewNopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "captcha")
}

func TestNewCodeChannelDefaultsCodeFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	c := config.DefaultConfig()
	c.TwoFactor.Mode = "production"
	c.TwoFactor.CodeFile = ""

	codes, err := newCodeChannel(c, logger.NewNopLogger())
	require.NoError(t, err)
	assert.NotNil(t, codes)

	c.TwoFactor.Mode = "sometimes"
	_, err = newCodeChannel(c, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestCanUseDashboard(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		mode     string
		want     bool
	}{
		{"unattended", "anticaptcha", "production", true},
		{"manual captcha", "manual", "production", false},
		{"interactive codes", "anticaptcha", "interactive", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.DefaultConfig()
			c.Captcha.Provider = tt.provider
			c.TwoFactor.Mode = tt.mode
			assert.Equal(t, tt.want, canUseDashboard(c))
		})
	}
}

func TestResolveAccountFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PDHARVEST_PASSPHRASE", "test-passphrase")
	t.Setenv("PDHARVEST_USERNAME", testUser)
	t.Setenv("PDHARVEST_PASSWORD", testPassword)

	account, err := resolveAccount("")
	require.NoError(t, err)
	assert.Equal(t, testUser, account.Username)
	assert.Equal(t, testPassword, account.Password)
}

func TestCollectFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "harvest"}
	registerHarvestFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--output", "/tmp/out", "--max-attempts", "5", "--mode", "interactive"}))

	flags := collectFlags(cmd)
	assert.Equal(t, "/tmp/out", flags["output"])
	assert.Equal(t, 5, flags["max-attempts"])
	assert.Equal(t, "interactive", flags["mode"])
	assert.NotContains(t, flags, "captcha-provider")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "abcd...wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}

func TestMain(m *testing.M) {
	ui.Out = os.Stderr
	os.Exit(m.Run())
}
