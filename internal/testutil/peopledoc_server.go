// Package testutil provides an in-process fake of the PeopleDoc API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
)

const sessionCookie = "mpd_session"

// Document is a listing record served by the fake
type Document struct {
	ID          string
	Title       string
	Name        string
	ProfileName string
	Content     string
}

// PeopleDocServer simulates the PeopleDoc endpoints the harvester uses
type PeopleDocServer struct {
	server *httptest.Server

	mu           sync.Mutex
	documents    []Document
	sessionToken string

	// behaviour knobs
	username         string
	password         string
	captchaToken     string
	loginStatus      int
	twoFactorID      string
	twoFactorCode    string
	pageFailures     map[int]int
	downloadFailures map[string][]int

	// observations
	probeRequests      int
	pageRequests       []int
	loginPosts         int
	lastLoginForm      url.Values
	lastLoginVersion   string
	twoFactorPosts     int
	lastTwoFactorForm  url.Values
	downloadRequests   map[string]int
	lastDownloadAccept string
}

// NewPeopleDocServer starts a fake accepting username/password and captcha token "captcha-ok"
func NewPeopleDocServer(username, password string) *PeopleDocServer {
	s := &PeopleDocServer{
		username:         username,
		password:         password,
		captchaToken:     "captcha-ok",
		sessionToken:     "session-1",
		pageFailures:     make(map[int]int),
		downloadFailures: make(map[string][]int),
		downloadRequests: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleApp)
	mux.HandleFunc("GET /connect/redirect", s.handleRedirect)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/2fa/{id}", s.handleTwoFactor)
	mux.HandleFunc("GET /api/documents", s.handleDocuments)
	mux.HandleFunc("GET /api/documents/{id}/download", s.handleDownload)

	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the fake
func (s *PeopleDocServer) URL() string { return s.server.URL }

// Close shuts the fake down
func (s *PeopleDocServer) Close() { s.server.Close() }

// SetDocuments replaces the listing
func (s *PeopleDocServer) SetDocuments(docs []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = docs
}

// GenerateDocuments replaces the listing with n numbered documents
func (s *PeopleDocServer) GenerateDocuments(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		id := strconv.Itoa(i + 1)
		docs[i] = Document{
			ID:      id,
			Title:   "Document " + id,
			Name:    "doc-" + id + ".pdf",
			Content: "content of " + id,
		}
	}
	s.SetDocuments(docs)
	return docs
}

// RequireTwoFactor makes logins land on a 2FA challenge with identifier id accepting code
func (s *PeopleDocServer) RequireTwoFactor(id, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.twoFactorID = id
	s.twoFactorCode = code
}

// SetLoginStatus forces the login endpoint to answer with status
func (s *PeopleDocServer) SetLoginStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginStatus = status
}

// FailPage makes the given listing page answer with status
func (s *PeopleDocServer) FailPage(page, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageFailures[page] = status
}

// FailDownload queues statuses returned by successive downloads of id before it succeeds
func (s *PeopleDocServer) FailDownload(id string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadFailures[id] = append(s.downloadFailures[id], statuses...)
}

// SessionCookie returns a cookie the fake currently accepts
func (s *PeopleDocServer) SessionCookie() *http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &http.Cookie{Name: sessionCookie, Value: s.sessionToken, Path: "/"}
}

// ExpireSessions invalidates every issued session cookie
func (s *PeopleDocServer) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := strconv.Atoi(s.sessionToken[len("session-"):])
	s.sessionToken = "session-" + strconv.Itoa(n+1)
}

// ProbeRequests counts one-document listing probes
func (s *PeopleDocServer) ProbeRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probeRequests
}

// PageRequests returns the listing pages requested, in order, probes excluded
func (s *PeopleDocServer) PageRequests() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.pageRequests...)
}

// LoginPosts counts credential submissions
func (s *PeopleDocServer) LoginPosts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginPosts
}

// LastLogin returns the last credential form and X-VERSION-MPD header
func (s *PeopleDocServer) LastLogin() (url.Values, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLoginForm, s.lastLoginVersion
}

// TwoFactorPosts counts code submissions
func (s *PeopleDocServer) TwoFactorPosts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.twoFactorPosts
}

// LastTwoFactorForm returns the last code submission form
func (s *PeopleDocServer) LastTwoFactorForm() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTwoFactorForm
}

// DownloadRequests counts downloads of id
func (s *PeopleDocServer) DownloadRequests(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadRequests[id]
}

// LastDownloadAccept returns the Accept header of the last download
func (s *PeopleDocServer) LastDownloadAccept() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDownloadAccept
}

func (s *PeopleDocServer) authenticated(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == s.sessionToken
}

func (s *PeopleDocServer) issueSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: s.sessionToken, Path: "/", HttpOnly: true})
}

func (s *PeopleDocServer) handleApp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte("<html><body>PeopleDoc</body></html>"))
}

func (s *PeopleDocServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, r.URL.Query().Get("to"), http.StatusFound)
}

func (s *PeopleDocServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loginPosts++
	_ = r.ParseForm()
	s.lastLoginForm = r.PostForm
	s.lastLoginVersion = r.Header.Get("X-VERSION-MPD")

	if s.loginStatus != 0 {
		w.WriteHeader(s.loginStatus)
		return
	}
	if r.PostForm.Get("captcha") != s.captchaToken ||
		r.PostForm.Get("username") != s.username ||
		r.PostForm.Get("password") != s.password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	landing := "/#/documents"
	if s.twoFactorID != "" {
		landing = "/#/login/2fa/" + s.twoFactorID
	} else {
		s.issueSession(w)
	}

	redirect := "/connect/redirect?" + url.Values{"to": {landing}}.Encode()
	writeJSON(w, http.StatusOK, map[string]string{"redirect_url": redirect})
}

func (s *PeopleDocServer) handleTwoFactor(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.twoFactorPosts++
	_ = r.ParseForm()
	s.lastTwoFactorForm = r.PostForm

	if r.PathValue("id") != s.twoFactorID ||
		r.PostForm.Get("code") != s.twoFactorCode ||
		r.PostForm.Get("trusted_device") != "false" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid code"})
		return
	}

	s.issueSession(w)
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (s *PeopleDocServer) handleDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if page < 1 || perPage < 1 || q.Get("deleted") != "false" || q.Get("order") != "desc" || q.Get("sort") != "valid_at" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if perPage == 1 {
		s.probeRequests++
	} else {
		s.pageRequests = append(s.pageRequests, page)
	}

	if !s.authenticated(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged"})
		return
	}
	if status, ok := s.pageFailures[page]; ok && perPage > 1 {
		w.WriteHeader(status)
		return
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(s.documents) {
		start = len(s.documents)
	}
	if end > len(s.documents) {
		end = len(s.documents)
	}

	totalPages := (len(s.documents) + perPage - 1) / perPage
	if totalPages > 1 {
		pageURL := func(p int) string {
			v := url.Values{}
			v.Set("deleted", "false")
			v.Set("order", "desc")
			v.Set("page", strconv.Itoa(p))
			v.Set("per_page", strconv.Itoa(perPage))
			v.Set("sort", "valid_at")
			return fmt.Sprintf("<%s/api/documents?%s>", s.server.URL, v.Encode())
		}
		link := pageURL(1) + `; rel="first", ` + pageURL(totalPages) + `; rel="last"`
		if page < totalPages {
			link = pageURL(page+1) + `; rel="next", ` + link
		}
		w.Header().Set("Link", link)
	}

	records := make([]map[string]interface{}, 0, end-start)
	for _, d := range s.documents[start:end] {
		rec := map[string]interface{}{
			"id":       d.ID,
			"title":    d.Title,
			"name":     d.Name,
			"deleted":  false,
			"valid_at": "2024-01-01T00:00:00Z",
		}
		if d.ProfileName != "" {
			rec["profile"] = map[string]string{"name": d.ProfileName}
		}
		records = append(records, rec)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *PeopleDocServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	s.downloadRequests[id]++
	s.lastDownloadAccept = r.Header.Get("Accept")

	if !s.authenticated(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if queued := s.downloadFailures[id]; len(queued) > 0 {
		s.downloadFailures[id] = queued[1:]
		w.WriteHeader(queued[0])
		return
	}

	for _, d := range s.documents {
		if d.ID == id {
			content := d.Content
			if content == "" {
				content = "content of " + id
			}
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte(content))
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
