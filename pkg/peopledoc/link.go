package peopledoc

import (
	"regexp"
	"strings"
)

// linkRegex matches Link header entries: <url>; rel="type"
var linkRegex = regexp.MustCompile(`<([^>]+)>;\s*rel="([^"]+)"`)

// ParseLinks extracts URLs from a Link header keyed by relation.
// A rel attribute may hold several space-separated relation types.
func ParseLinks(header string) map[string]string {
	links := make(map[string]string)
	if header == "" {
		return links
	}

	for _, part := range strings.Split(header, ",") {
		matches := linkRegex.FindStringSubmatch(strings.TrimSpace(part))
		if len(matches) != 3 {
			continue
		}
		for _, rel := range strings.Fields(matches[2]) {
			links[strings.ToLower(rel)] = matches[1]
		}
	}

	return links
}

// HasNextLink reports whether a Link header advertises a next page.
// Headers that do not parse cleanly fall back to a rel="next" substring check.
func HasNextLink(header string) bool {
	if header == "" {
		return false
	}
	if _, ok := ParseLinks(header)["next"]; ok {
		return true
	}
	return strings.Contains(header, `rel="next"`)
}
