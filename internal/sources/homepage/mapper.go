package homepage

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

// ErrNoBookmarks is returned when a file holds no usable href.
var ErrNoBookmarks = errors.New("no valid bookmarks found in config")

// Entry is one importable bookmark.
type Entry struct {
	Category string
	Name     string // abbr when present, bookmark name otherwise
	Href     string
}

// MapBookmarks flattens the config in file order. Entries without href are
// skipped and repeated hrefs are kept once.
func MapBookmarks(config BookmarksConfig) ([]Entry, error) {
	entries := make([]Entry, 0)
	seen := make(map[string]struct{})

	for _, category := range config {
		// A category item normally holds a single key; sort for a stable order.
		for _, categoryName := range slices.Sorted(maps.Keys(category)) {
			for _, bookmarkMap := range category[categoryName] {
				for _, bookmarkName := range slices.Sorted(maps.Keys(bookmarkMap)) {
					entryList := bookmarkMap[bookmarkName]
					// Each bookmark has a list with a single entry
					if len(entryList) == 0 {
						continue
					}
					entry := entryList[0]

					href := strings.TrimSpace(entry.Href)
					if href == "" {
						continue
					}
					if _, dup := seen[href]; dup {
						continue
					}
					seen[href] = struct{}{}

					name := entry.Abbr
					if name == "" {
						name = bookmarkName
					}

					entries = append(entries, Entry{
						Category: categoryName,
						Name:     name,
						Href:     href,
					})
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoBookmarks
	}

	return entries, nil
}
