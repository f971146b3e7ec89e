// Package filename derives a best-effort file name from a download URL.
package filename

import (
	"net/url"
	"strings"
)

const (
	InvalidInput = "Invalid URL input"
	Unknown      = "Unknown filename"
	ParseFailed  = "Failed to parse URL"
)

// FromURL returns the last path segment of rawURL exactly as it appears in
// the URL, percent-escapes included. Query and fragment are dropped.
// It never fails: malformed input yields one of the sentinel strings.
func FromURL(rawURL string) string {
	if !looksLikeURL(rawURL) {
		return InvalidInput
	}

	scheme, rest, _ := strings.Cut(rawURL, "://")
	rest, _, _ = strings.Cut(rest, "#")
	rest, _, _ = strings.Cut(rest, "?")
	host, path, _ := strings.Cut(rest, "/")

	// Only the authority is validated; the path is kept raw.
	if _, err := url.Parse(scheme + "://" + host); err != nil {
		return ParseFailed
	}

	last := path[strings.LastIndex(path, "/")+1:]
	if last == "" {
		return Unknown
	}
	return last
}

// looksLikeURL requires a scheme and host; anything else is not a download URL.
func looksLikeURL(rawURL string) bool {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" || trimmed != rawURL {
		return false
	}
	i := strings.Index(rawURL, "://")
	if i <= 0 {
		return false
	}
	rest := rawURL[i+3:]
	return rest != "" && rest[0] != '/'
}
