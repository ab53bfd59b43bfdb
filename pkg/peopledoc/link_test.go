package peopledoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasNextLink(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"absent", "", false},
		{"next and last", `<https://x/api/documents?page=2>; rel="next", <https://x/api/documents?page=5>; rel="last"`, true},
		{"last page", `<https://x/api/documents?page=1>; rel="first", <https://x/api/documents?page=5>; rel="last"`, false},
		{"next not first", `<https://x/?page=1>; rel="prev", <https://x/?page=3>; rel="next"`, true},
		{"multiple rel types", `<https://x/?page=3>; rel="next last"`, true},
		{"unparseable but advertises next", `https://x/?page=3; rel="next"`, true},
		{"nextish relation", `<https://x/?page=3>; rel="nextpage"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasNextLink(tt.header))
		})
	}
}

func TestParseLinks(t *testing.T) {
	links := ParseLinks(`<https://x/?page=2>; rel="next", <https://x/?page=9>; rel="Last"`)

	assert.Equal(t, "https://x/?page=2", links["next"])
	assert.Equal(t, "https://x/?page=9", links["last"])
	assert.Empty(t, ParseLinks(""))
}
