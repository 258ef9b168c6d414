package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Bookmark represents one saved item of the bookmarks collection.
//
// A Bookmark is always a parsed view of a remote record: it is rebuilt from
// scratch on every collection snapshot and never patched in place.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the store when the record is created.
	// It is never generated by the client.
	ID string `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Text is the raw user input. Never empty or blank.
	Text string `json:"text"`

	// Timestamp is the creation time in milliseconds since epoch,
	// assigned at write time.
	Timestamp int64 `json:"timestamp"`

	// IsURL is derived from Text by ClassifyURL when the record is written.
	IsURL bool `json:"isUrl"`
}

// CreatedAt returns Timestamp as a time.Time.
func (b Bookmark) CreatedAt() time.Time {
	return time.UnixMilli(b.Timestamp)
}

// Href returns the URL a client should open for this bookmark.
func (b Bookmark) Href() string {
	return DisplayURL(b.Text)
}

// IsBlank reports whether text is empty or whitespace only.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// ClassifyURL reports whether text looks like a URL.
//
// This is a heuristic, not a URL parse: matching is case-sensitive on literal
// substrings, so "cost.comparison" is classified as a URL too.
func ClassifyURL(text string) bool {
	return strings.HasPrefix(text, "http://") ||
		strings.HasPrefix(text, "https://") ||
		strings.HasPrefix(text, "www.") ||
		strings.Contains(text, ".com") ||
		strings.Contains(text, ".org") ||
		strings.Contains(text, ".net")
}

// DisplayURL prepends https:// when text carries no http(s) scheme.
// The stored text is never rewritten.
func DisplayURL(text string) string {
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		return text
	}
	return "https://" + text
}

// SortNewestFirst orders bookmarks by Timestamp descending.
// The sort is stable: equal timestamps keep their input order.
func SortNewestFirst(bookmarks []Bookmark) {
	slices.SortStableFunc(bookmarks, func(a, b Bookmark) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
}
