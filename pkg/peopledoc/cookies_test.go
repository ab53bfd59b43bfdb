package peopledoc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdharvest/pkg/session"
)

// newCookieServer sets a long-lived root cookie and an /api scoped cookie on
// /login, and echoes the cookie names it receives on /api/echo
func newCookieServer(t *testing.T, expires time.Time) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "v", Path: "/", Expires: expires, HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "api", Value: "a", Path: "/api"})
		http.SetCookie(w, &http.Cookie{Name: "stale", Value: "s", Path: "/", Expires: time.Now().Add(-time.Hour)})
	})
	mux.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		var names []string
		for _, c := range r.Cookies() {
			names = append(names, c.Name)
		}
		sort.Strings(names)
		_, _ = io.WriteString(w, strings.Join(names, ","))
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "api", Path: "/api", MaxAge: -1})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fetchString(t *testing.T, c *Client, url string) string {
	t.Helper()
	body, err := c.Fetch(context.Background(), url, nil)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	return string(data)
}

func cookieByName(cookies []session.Cookie, name string) (session.Cookie, bool) {
	for _, c := range cookies {
		if c.Name == name {
			return c, true
		}
	}
	return session.Cookie{}, false
}

func TestSnapshotKeepsCookieAttributes(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	srv := newCookieServer(t, expires)

	client := newTestClient(t, srv.URL, nil)
	fetchString(t, client, srv.URL+"/login")

	snap := client.Snapshot(testUser)
	require.Len(t, snap.Cookies, 2, "expired cookies are not captured")

	sid, ok := cookieByName(snap.Cookies, "sid")
	require.True(t, ok)
	assert.Equal(t, "v", sid.Value)
	assert.Equal(t, "/", sid.Path)
	assert.Equal(t, "127.0.0.1", sid.Domain)
	assert.True(t, sid.HttpOnly)
	assert.WithinDuration(t, expires, sid.Expires, time.Second)

	api, ok := cookieByName(snap.Cookies, "api")
	require.True(t, ok)
	assert.Equal(t, "/api", api.Path)
	assert.True(t, api.Expires.IsZero())
}

func TestSessionSurvivesSaveLoadRestore(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	srv := newCookieServer(t, expires)

	client := newTestClient(t, srv.URL, nil)
	fetchString(t, client, srv.URL+"/login")

	store := session.NewFileStoreWithPassphrase(t.TempDir(), "test-passphrase")
	require.NoError(t, store.Save(client.Snapshot(testUser)))

	loaded, err := store.Load(testUser)
	require.NoError(t, err)

	fresh := newTestClient(t, srv.URL, nil)
	require.NoError(t, fresh.Restore(loaded))
	assert.Equal(t, "api,sid", fetchString(t, fresh, srv.URL+"/api/echo"))

	again := fresh.Snapshot(testUser)
	require.Len(t, again.Cookies, 2)
	sid, _ := cookieByName(again.Cookies, "sid")
	assert.True(t, sid.HttpOnly)
	assert.WithinDuration(t, expires, sid.Expires, time.Second)
	api, _ := cookieByName(again.Cookies, "api")
	assert.Equal(t, "/api", api.Path)
}

func TestRestoreSkipsExpiredCookies(t *testing.T) {
	srv := newCookieServer(t, time.Now().Add(time.Hour))

	client := newTestClient(t, srv.URL, nil)
	require.NoError(t, client.Restore(&session.Session{
		Username: testUser,
		Cookies: []session.Cookie{
			{Name: "sid", Value: "v", Path: "/", Expires: time.Now().Add(-time.Minute)},
			{Name: "api", Value: "a", Path: "/api"},
		},
	}))

	assert.Equal(t, "api", fetchString(t, client, srv.URL+"/api/echo"))
	require.Len(t, client.Snapshot(testUser).Cookies, 1)
}

func TestSnapshotDropsDeletedCookies(t *testing.T) {
	srv := newCookieServer(t, time.Now().Add(time.Hour))

	client := newTestClient(t, srv.URL, nil)
	fetchString(t, client, srv.URL+"/login")
	fetchString(t, client, srv.URL+"/logout")

	snap := client.Snapshot(testUser)
	require.Len(t, snap.Cookies, 1)
	assert.Equal(t, "sid", snap.Cookies[0].Name)
}

func TestCookieDefaults(t *testing.T) {
	u := mustParseURL(t, "https://www.mypeopledoc.com/api/auth/login")

	assert.Equal(t, "/api/auth", cookiePath(u, &http.Cookie{}))
	assert.Equal(t, "/", cookiePath(mustParseURL(t, "https://www.mypeopledoc.com/login"), &http.Cookie{}))
	assert.Equal(t, "/x", cookiePath(u, &http.Cookie{Path: "/x"}))

	assert.Equal(t, "www.mypeopledoc.com", cookieDomain(u, &http.Cookie{}))
	assert.Equal(t, ".mypeopledoc.com", cookieDomain(u, &http.Cookie{Domain: "mypeopledoc.com"}))
	assert.Equal(t, ".mypeopledoc.com", cookieDomain(u, &http.Cookie{Domain: ".mypeopledoc.com"}))
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
