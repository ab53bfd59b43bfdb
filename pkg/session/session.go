// Package session persists the authenticated PeopleDoc cookie jar between runs.
//
// A Session is an explicit, versioned value: the HTTP client snapshots its
// cookie jar into one after a successful login, and restores from one before
// the first authenticated call of the next run.
package session

import (
	"errors"
	"net/http"
	"time"
)

// ErrNoSession is returned by Store.Load when nothing was saved for a user
var ErrNoSession = errors.New("no saved session")

// Cookie is the persisted form of an http.Cookie
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// Session is a snapshot of an authenticated cookie jar
type Session struct {
	Username string    `json:"username"`
	Version  int       `json:"version"`
	Cookies  []Cookie  `json:"cookies"`
	SavedAt  time.Time `json:"saved_at"`
}

// Store persists sessions keyed by username
type Store interface {
	Load(username string) (*Session, error)
	Save(s *Session) error
	Clear(username string) error
}

// FromHTTPCookies converts jar cookies into their persisted form
func FromHTTPCookies(cookies []*http.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	return out
}

// HTTPCookies converts the session back into cookies for a jar, skipping
// any that have already expired.
func (s *Session) HTTPCookies(now time.Time) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	return out
}
