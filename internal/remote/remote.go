// Package remote defines the contract of a realtime key-value store holding
// bookmark records: full-collection snapshot subscriptions plus push/remove
// writes. Backends live under internal/store.
package remote

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

// CollectionBookmarks is the default collection path.
const CollectionBookmarks = "bookmarks"

// Child is one record of a collection snapshot.
type Child struct {
	ID     string
	Fields domain.Record
}

// Snapshot enumerates every child of a collection at one point in time,
// ordered by key. It is complete, never a diff.
type Snapshot struct {
	Path       string
	Children   []Child
	ReceivedAt time.Time
}

// Event is one item of a subscription stream: either a snapshot or a
// terminal error. The stream is closed after an error event.
type Event struct {
	Snapshot *Snapshot
	Err      error
}

// Subscription is a live, server-pushed stream of collection snapshots.
//
// Delivery is at-least-once: the same content may be delivered again.
// Cancel stops the stream and closes Events; calling it more than once is safe.
type Subscription interface {
	Events() <-chan Event
	Cancel()
}

// Store is the client side of a remote realtime collection store.
type Store interface {
	// Subscribe starts a snapshot stream for path. The first event carries
	// the current content of the collection.
	Subscribe(ctx context.Context, path string) (Subscription, error)

	// PushNew appends record to path and returns the id assigned by the store.
	// Ids are unique and sort in creation order.
	PushNew(ctx context.Context, path string, record domain.Record) (string, error)

	// Remove deletes one record. Removing an unknown id succeeds.
	Remove(ctx context.Context, path, id string) error
}
