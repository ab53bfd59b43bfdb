package peopledoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a document identifier. The API has served both numeric and string
// ids; both decode to their string form.
type ID string

// UnmarshalJSON accepts a JSON string or number
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("document id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Profile is the employer profile a document was issued under
type Profile struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

// Document is one record of the listing endpoint
type Document struct {
	ID        ID       `json:"id"`
	Title     string   `json:"title"`
	Name      string   `json:"name"`
	Profile   *Profile `json:"profile,omitempty"`
	Deleted   bool     `json:"deleted"`
	ValidAt   string   `json:"valid_at,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	Size      int64    `json:"size,omitempty"`
	MimeType  string   `json:"mime_type,omitempty"`
}

// RequestOptions are extra parameters for the download request
type RequestOptions struct {
	Headers map[string]string `json:"headers,omitempty"`
}

// Descriptor describes a file to download and where to file it.
// VendorRef is the document id and is the deduplication key.
type Descriptor struct {
	Title          string         `json:"title"`
	SubPath        string         `json:"sub_path"`
	FileURL        string         `json:"file_url"`
	Filename       string         `json:"filename"`
	VendorRef      string         `json:"vendor_ref"`
	RequestOptions RequestOptions `json:"request_options"`
}

// loginResponse is the body of a successful credential submission
type loginResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// PageCursor tracks the listing walk
type PageCursor struct {
	Page    int
	HasMore bool
}

// NewPageCursor starts at page 1
func NewPageCursor() PageCursor {
	return PageCursor{Page: 1, HasMore: true}
}

// Advance moves to the next page when more remain
func (c *PageCursor) Advance(hasMore bool) {
	c.HasMore = hasMore
	if hasMore {
		c.Page++
	}
}

// ChallengeKind enumerates what the login flow asks for next
type ChallengeKind int

const (
	ChallengeNone ChallengeKind = iota
	ChallengeCaptcha
	ChallengeTwoFactor
)

func (k ChallengeKind) String() string {
	switch k {
	case ChallengeCaptcha:
		return "captcha"
	case ChallengeTwoFactor:
		return "two_factor"
	default:
		return "none"
	}
}

// Challenge is a step the login flow must clear
type Challenge struct {
	Kind ChallengeKind
	// SiteKey and PageURL are set for ChallengeCaptcha
	SiteKey string
	PageURL string
	// Identifier is set for ChallengeTwoFactor
	Identifier string
}
