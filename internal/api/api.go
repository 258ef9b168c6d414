// Package api holds the JSON documents exchanged between bookmarkd and its
// clients.
package api

import (
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/synchronizer"
)

// Bookmark is one item as served to clients. Href is set for URL items only.
type Bookmark struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp int64     `json:"timestamp"`
	IsURL     bool      `json:"isUrl"`
	Href      string    `json:"href,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Error mirrors synchronizer.StateError on the wire.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// State is the synchronizer state served by GET /api/bookmarks and pushed on
// the stream.
type State struct {
	Status    string     `json:"status"`
	Items     []Bookmark `json:"items"`
	Error     *Error     `json:"error,omitempty"`
	Version   uint64     `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
	Query     string     `json:"query,omitempty"`
}

// AddRequest is the body of POST /api/bookmarks.
type AddRequest struct {
	Text string `json:"text"`
}

// Message is a short status reply.
type Message struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// FromState converts a synchronizer state. items replaces st.Items so that a
// filtered or ranked list can be served.
func FromState(st synchronizer.State, items []domain.Bookmark) State {
	out := State{
		Status:    st.Status.String(),
		Items:     make([]Bookmark, 0, len(items)),
		Version:   st.Version,
		UpdatedAt: st.UpdatedAt,
	}
	for _, b := range items {
		out.Items = append(out.Items, FromBookmark(b))
	}
	if st.Error != nil {
		out.Error = &Error{Kind: st.Error.Kind.String(), Message: st.Error.Message}
	}
	return out
}

// FromBookmark converts one bookmark.
func FromBookmark(b domain.Bookmark) Bookmark {
	out := Bookmark{
		ID:        b.ID,
		Text:      b.Text,
		Timestamp: b.Timestamp,
		IsURL:     b.IsURL,
		CreatedAt: b.CreatedAt().UTC(),
	}
	if b.IsURL {
		out.Href = b.Href()
	}
	return out
}
