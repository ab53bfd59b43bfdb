package peopledoc

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"pdharvest/pkg/session"
)

// recordingJar is a cookie jar that also keeps every cookie it accepts with
// its attributes. cookiejar.Jar only hands back name and value, and only for
// cookies whose path matches the URL asked for, so snapshots come from here.
type recordingJar struct {
	http.CookieJar

	mu      sync.Mutex
	cookies map[string]session.Cookie
	now     func() time.Time
}

func newRecordingJar(inner http.CookieJar) *recordingJar {
	return &recordingJar{
		CookieJar: inner,
		cookies:   make(map[string]session.Cookie),
		now:       time.Now,
	}
}

// SetCookies implements http.CookieJar
func (j *recordingJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.CookieJar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, c := range cookies {
		rec := session.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   cookieDomain(u, c),
			Path:     cookiePath(u, c),
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.MaxAge > 0 {
			rec.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}

		key := rec.Name + "|" + rec.Domain + "|" + rec.Path
		if c.MaxAge < 0 || (!rec.Expires.IsZero() && !rec.Expires.After(now)) {
			delete(j.cookies, key)
			continue
		}
		j.cookies[key] = rec
	}
}

// snapshot returns the live cookies ordered by domain, path and name
func (j *recordingJar) snapshot() []session.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	out := make([]session.Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Domain != out[b].Domain {
			return out[a].Domain < out[b].Domain
		}
		if out[a].Path != out[b].Path {
			return out[a].Path < out[b].Path
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// restore loads saved cookies, each against a URL built from its own domain
// and path. A leading dot marks a domain cookie; anything else is host-only.
// Cookies saved without a domain are bound to base.
func (j *recordingJar) restore(base *url.URL, cookies []*http.Cookie) {
	for _, c := range cookies {
		target := &url.URL{Scheme: base.Scheme, Host: base.Hostname(), Path: c.Path}
		if target.Path == "" {
			target.Path = "/"
		}
		if c.Secure {
			target.Scheme = "https"
		}

		restored := *c
		switch {
		case c.Domain == "":
		case strings.HasPrefix(c.Domain, "."):
			restored.Domain = strings.TrimPrefix(c.Domain, ".")
			target.Host = restored.Domain
		default:
			restored.Domain = ""
			target.Host = c.Domain
		}
		j.SetCookies(target, []*http.Cookie{&restored})
	}
}

// cookieDomain returns ".domain" for domain cookies and the request host for
// host-only ones
func cookieDomain(u *url.URL, c *http.Cookie) string {
	host := strings.ToLower(u.Hostname())
	domain := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
	if domain == "" || domain == host && isIPHost(host) {
		return host
	}
	return "." + domain
}

// cookiePath applies the RFC 6265 default-path rule
func cookiePath(u *url.URL, c *http.Cookie) string {
	if strings.HasPrefix(c.Path, "/") {
		return c.Path
	}
	p := u.Path
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

func isIPHost(host string) bool {
	return net.ParseIP(host) != nil
}
