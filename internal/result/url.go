package result

import (
	"net/url"
	"strings"
)

// ArchivePrefix is prepended to a URL to build its Wayback Machine link.
const ArchivePrefix = "http://web.archive.org/web/*/"

// CleanURL percent-decodes a URL as scraped from a backend page, trims
// surrounding whitespace and drops one trailing slash.
func CleanURL(raw string) string {
	s := strings.TrimSpace(raw)
	if dec, err := url.PathUnescape(s); err == nil {
		s = dec
	}
	return strings.TrimSuffix(s, "/")
}

// Canonicalize reduces a URL to the key used for exact-duplicate detection:
// no scheme, no leading "www.", no trailing slash, lower case.
func Canonicalize(raw string) string {
	s := strings.ToLower(CleanURL(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimRight(s, "/")
}

// Host returns the canonical host of a URL ("www." stripped, lower case).
func Host(raw string) string {
	c := Canonicalize(raw)
	if i := strings.IndexAny(c, "/?#"); i >= 0 {
		c = c[:i]
	}
	return c
}

// NormalizeTitle lowercases a title and collapses runs of whitespace.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// ArchiveLink returns the Wayback Machine link for a URL.
func ArchiveLink(raw string) string {
	return ArchivePrefix + raw
}
