package domain

import (
	"testing"
	"time"
)

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"example.com", true},
		{"hello world", false},
		{"www.x.io", true},
		{"http://localhost:8080", true},
		{"https://go.dev", true},
		{"golang.org/x/term", true},
		{"speedtest.net", true},
		{"HTTPS://GO.DEV", false},
		{"see EXAMPLE.COM", false},
		{"cost.comparison", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ClassifyURL(tt.text); got != tt.want {
				t.Errorf("ClassifyURL(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	for _, text := range []string{"", " ", "   ", "\t\n"} {
		if !IsBlank(text) {
			t.Errorf("IsBlank(%q) = false, want true", text)
		}
	}
	if IsBlank(" a ") {
		t.Error("IsBlank(\" a \") = true, want false")
	}
}

func TestDisplayURL(t *testing.T) {
	tests := map[string]string{
		"example.com":         "https://example.com",
		"www.x.io":            "https://www.x.io",
		"http://example.com":  "http://example.com",
		"https://example.com": "https://example.com",
	}
	for in, want := range tests {
		if got := DisplayURL(in); got != want {
			t.Errorf("DisplayURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSortNewestFirst(t *testing.T) {
	bookmarks := []Bookmark{
		{ID: "a", Timestamp: 100},
		{ID: "b", Timestamp: 200},
		{ID: "c", Timestamp: 100},
		{ID: "d", Timestamp: 300},
		{ID: "e", Timestamp: 200},
	}

	SortNewestFirst(bookmarks)

	want := []string{"d", "b", "e", "a", "c"}
	for i, id := range want {
		if bookmarks[i].ID != id {
			t.Fatalf("SortNewestFirst() position %d = %s, want %s (full order %v)", i, bookmarks[i].ID, id, ids(bookmarks))
		}
	}
}

func TestBookmarkCreatedAt(t *testing.T) {
	b := Bookmark{Timestamp: 1_700_000_000_123}
	if got := b.CreatedAt().UnixMilli(); got != b.Timestamp {
		t.Errorf("CreatedAt().UnixMilli() = %d, want %d", got, b.Timestamp)
	}
	if !b.CreatedAt().Equal(time.UnixMilli(1_700_000_000_123)) {
		t.Errorf("CreatedAt() = %v", b.CreatedAt())
	}
}

func ids(bookmarks []Bookmark) []string {
	out := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		out = append(out, b.ID)
	}
	return out
}
