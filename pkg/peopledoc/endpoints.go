package peopledoc

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the PeopleDoc web application
	DefaultBaseURL = "https://www.mypeopledoc.com"

	// DefaultSiteKey is the reCAPTCHA site key of the login form
	DefaultSiteKey = "6LeIGcYbAAAAAEbeaSXsiS5Yk4qTfY7GjdF7wDxA"

	// APIVersionHeader carries the front-end API version on login
	APIVersionHeader = "X-VERSION-MPD"

	// DefaultAPIVersion is the front-end API version the login endpoint expects
	DefaultAPIVersion = "8103"

	// LoginEndpoint accepts the credential form
	LoginEndpoint = "/api/auth/login"

	// TwoFactorEndpoint is suffixed with the challenge identifier
	TwoFactorEndpoint = "/api/auth/2fa/"

	// DocumentsEndpoint lists documents and, suffixed with an id, downloads them
	DocumentsEndpoint = "/api/documents"

	// DefaultPageSize is the largest page the listing endpoint serves
	DefaultPageSize = 1000

	// SubPath is the folder documents are filed under
	SubPath = "MyPeopleDoc"

	twoFactorMarker = "/login/2fa"
)

// Endpoints builds PeopleDoc URLs against a base URL
type Endpoints struct {
	BaseURL string
}

// NewEndpoints trims any trailing slash from baseURL
func NewEndpoints(baseURL string) Endpoints {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Endpoints{BaseURL: strings.TrimRight(baseURL, "/")}
}

// DocumentsURL returns the listing URL for a 1-based page
func (e Endpoints) DocumentsURL(page, perPage int) string {
	params := url.Values{}
	params.Set("deleted", "false")
	params.Set("order", "desc")
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort", "valid_at")

	return fmt.Sprintf("%s%s?%s", e.BaseURL, DocumentsEndpoint, params.Encode())
}

// LoginURL returns the credential submission URL
func (e Endpoints) LoginURL() string {
	return e.BaseURL + LoginEndpoint
}

// TwoFactorURL returns the code submission URL for a challenge identifier
func (e Endpoints) TwoFactorURL(identifier string) string {
	return e.BaseURL + TwoFactorEndpoint + identifier
}

// DownloadURL returns the binary download URL of a document
func (e Endpoints) DownloadURL(id string) string {
	return fmt.Sprintf("%s%s/%s/download", e.BaseURL, DocumentsEndpoint, id)
}

// TwoFactorPrefix is the landing URL prefix preceding a challenge identifier
func (e Endpoints) TwoFactorPrefix() string {
	return e.BaseURL + "/#" + twoFactorMarker + "/"
}

// Resolve makes ref absolute against the base URL
func (e Endpoints) Resolve(ref string) (string, error) {
	base, err := url.Parse(e.BaseURL + "/")
	if err != nil {
		return "", err
	}
	target, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(target).String(), nil
}
