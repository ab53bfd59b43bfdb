package peopledoc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdharvest/pkg/config"
	errs "pdharvest/pkg/errors"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/session"
)

type countingLimiter struct {
	waits int32
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	atomic.AddInt32(&l.waits, 1)
	return ctx.Err()
}

func TestDocumentsURL(t *testing.T) {
	e := NewEndpoints("https://www.mypeopledoc.com/")

	assert.Equal(t,
		"https://www.mypeopledoc.com/api/documents?deleted=false&order=desc&page=3&per_page=1000&sort=valid_at",
		e.DocumentsURL(3, 1000))
	assert.Equal(t, "https://www.mypeopledoc.com/api/auth/login", e.LoginURL())
	assert.Equal(t, "https://www.mypeopledoc.com/api/auth/2fa/abc", e.TwoFactorURL("abc"))
	assert.Equal(t, "https://www.mypeopledoc.com/api/documents/42/download", e.DownloadURL("42"))
	assert.Equal(t, "https://www.mypeopledoc.com/#/login/2fa/", e.TwoFactorPrefix())

	resolved, err := e.Resolve("/connect?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://www.mypeopledoc.com/connect?x=1", resolved)

	resolved, err = e.Resolve("https://other.example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/a", resolved)
}

func TestGetJSONStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantType errs.ErrorType
	}{
		{http.StatusUnauthorized, errs.ErrorTypeAuth},
		{http.StatusForbidden, errs.ErrorTypeAuth},
		{http.StatusNotFound, errs.ErrorTypeNotFound},
		{http.StatusTooManyRequests, errs.ErrorTypeRateLimit},
		{http.StatusBadGateway, errs.ErrorTypeServerError},
		{http.StatusTeapot, errs.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, nil)
			var out []Document
			_, err := client.GetJSON(context.Background(), server.URL+"/api/documents", &out)

			require.Error(t, err)
			assert.Equal(t, tt.wantType, errs.TypeOf(err))
		})
	}
}

func TestGetJSONParsingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	tl := logger.NewTestLogger()
	client := newTestClient(t, server.URL, tl)
	var out []Document
	_, err := client.GetJSON(context.Background(), server.URL, &out)

	assert.Equal(t, errs.ErrorTypeParsing, errs.TypeOf(err))
	assert.True(t, tl.HasMessage("failed to parse JSON response"))
}

func TestNetworkErrorIsTyped(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client := newTestClient(t, base, nil)
	_, err := client.GetJSON(context.Background(), base, &struct{}{})
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
	assert.False(t, client.IsSessionValid(context.Background()))
}

func TestClientSendsHeadersAndPacesRequests(t *testing.T) {
	var gotUA, gotVersion, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotVersion = r.Header.Get(APIVersionHeader)
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"redirect_url":"/"}`))
	}))
	defer server.Close()

	limiter := &countingLimiter{}
	client, err := NewClient(config.PeopleDocConfig{
		BaseURL:   server.URL,
		UserAgent: "pdharvest-test",
		Timeout:   5 * time.Second,
	}, limiter, logger.NewNopLogger())
	require.NoError(t, err)

	var out loginResponse
	form := url.Values{"username": {"jane"}}
	require.NoError(t, client.PostForm(context.Background(), server.URL, form, map[string]string{APIVersionHeader: "8103"}, &out))

	assert.Equal(t, "/", out.RedirectURL)
	assert.Equal(t, "pdharvest-test", gotUA)
	assert.Equal(t, "8103", gotVersion)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, int32(1), atomic.LoadInt32(&limiter.waits))
}

func TestFollowReturnsLandingURL(t *testing.T) {
	srv := newFakeServer(t)
	client := newTestClient(t, srv.URL(), nil)

	landing, err := client.Follow(context.Background(), srv.URL()+"/connect/redirect?to="+url.QueryEscape("/#/login/2fa/xyz"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL()+"/#/login/2fa/xyz", landing)
}

func TestFetchDownloadsBody(t *testing.T) {
	srv := newFakeServer(t)
	srv.GenerateDocuments(1)
	client := authenticatedClient(t, srv, nil)

	body, err := client.Fetch(context.Background(), client.Endpoints().DownloadURL("1"), map[string]string{"Accept": "*/*"})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "content of 1", string(data))
	assert.Equal(t, "*/*", srv.LastDownloadAccept())

	_, err = client.Fetch(context.Background(), client.Endpoints().DownloadURL("missing"), nil)
	assert.Equal(t, errs.ErrorTypeNotFound, errs.TypeOf(err))
}

func TestSnapshotRestore(t *testing.T) {
	srv := newFakeServer(t)
	client := newTestClient(t, srv.URL(), nil)
	assert.False(t, client.IsSessionValid(context.Background()))

	require.NoError(t, client.Restore(&session.Session{
		Username: testUser,
		Version:  7,
		Cookies:  session.FromHTTPCookies([]*http.Cookie{srv.SessionCookie()}),
	}))
	assert.Equal(t, 7, client.SessionVersion())
	assert.True(t, client.IsSessionValid(context.Background()))

	snap := client.Snapshot(testUser)
	assert.Equal(t, 8, snap.Version)
	assert.Equal(t, testUser, snap.Username)
	require.Len(t, snap.Cookies, 1)
	assert.Equal(t, srv.SessionCookie().Value, snap.Cookies[0].Value)

	fresh := newTestClient(t, srv.URL(), nil)
	require.NoError(t, fresh.Restore(snap))
	assert.True(t, fresh.IsSessionValid(context.Background()))

	require.NoError(t, fresh.Restore(nil))
}

func TestIsSessionValidAcceptsAnyTwoHundred(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	assert.True(t, newTestClient(t, server.URL, nil).IsSessionValid(context.Background()))
}
