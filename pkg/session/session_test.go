package session

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdharvest/pkg/config"
)

func sampleSession() *Session {
	return &Session{
		Username: "jane@example.com",
		Version:  3,
		Cookies: []Cookie{
			{Name: "mpd_session", Value: "abc", Domain: "www.mypeopledoc.com", Path: "/", Secure: true, HttpOnly: true},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStoreWithPassphrase(dir, "pass")

	_, err := store.Load("jane@example.com")
	assert.ErrorIs(t, err, ErrNoSession)

	s := sampleSession()
	require.NoError(t, store.Save(s))
	assert.False(t, s.SavedAt.IsZero())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "jane@example.com.session", files[0].Name())

	raw, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "mpd_session")

	loaded, err := store.Load("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Version)
	assert.Equal(t, s.Cookies, loaded.Cookies)

	require.NoError(t, store.Clear("jane@example.com"))
	require.NoError(t, store.Clear("jane@example.com"))
	_, err = store.Load("jane@example.com")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStoreRejectsAnonymousSession(t *testing.T) {
	store := NewFileStoreWithPassphrase(t.TempDir(), "pass")
	assert.Error(t, store.Save(&Session{}))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(sampleSession()))

	loaded, err := store.Load("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.Cookies[0].Value)
	assert.Equal(t, 1, store.Saves)

	require.NoError(t, store.Clear("jane@example.com"))
	_, err = store.Load("jane@example.com")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCookieConversion(t *testing.T) {
	now := time.Now()
	cookies := []*http.Cookie{
		{Name: "live", Value: "1", Expires: now.Add(time.Hour)},
		{Name: "stale", Value: "2", Expires: now.Add(-time.Hour)},
		{Name: "session", Value: "3"},
	}

	s := &Session{Cookies: FromHTTPCookies(cookies)}
	require.Len(t, s.Cookies, 3)

	restored := s.HTTPCookies(now)
	names := make([]string, 0, len(restored))
	for _, c := range restored {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"live", "session"}, names)
}

func TestNewStore(t *testing.T) {
	t.Setenv("PDHARVEST_PASSPHRASE", "pass")

	store, err := NewStore(config.SessionConfig{Store: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = NewStore(config.SessionConfig{Store: "keyring"})
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, store)

	_, err = NewStore(config.SessionConfig{Store: "s3"})
	assert.Error(t, err)
}
