package homepage

import (
	"errors"
	"testing"
)

func TestMapBookmarks(t *testing.T) {
	config := BookmarksConfig{
		{
			"Developer": {
				{"Github": {{Abbr: "GH", Href: "https://github.com/"}}},
				{"Docs": {{Href: " https://go.dev/doc "}}},
			},
		},
		{
			"Social": {
				{"Reddit": {{Href: "https://reddit.com/"}}},
			},
		},
	}

	entries, err := MapBookmarks(config)
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}

	want := []Entry{
		{Category: "Developer", Name: "GH", Href: "https://github.com/"},
		{Category: "Developer", Name: "Docs", Href: "https://go.dev/doc"},
		{Category: "Social", Name: "Reddit", Href: "https://reddit.com/"},
	}
	if len(entries) != len(want) {
		t.Fatalf("MapBookmarks() returned %d entries, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("MapBookmarks()[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestMapBookmarksSkipsEmptyAndDuplicates(t *testing.T) {
	config := BookmarksConfig{
		{
			"Links": {
				{"Empty": {{Abbr: "E"}}},
				{"NoEntry": {}},
				{"First": {{Href: "https://example.com"}}},
				{"Again": {{Href: "https://example.com"}}},
			},
		},
	}

	entries, err := MapBookmarks(config)
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "First" {
		t.Errorf("MapBookmarks() = %+v, want only First", entries)
	}
}

func TestMapBookmarksEmptyConfig(t *testing.T) {
	_, err := MapBookmarks(BookmarksConfig{})
	if !errors.Is(err, ErrNoBookmarks) {
		t.Errorf("MapBookmarks() error = %v, want ErrNoBookmarks", err)
	}
}
