// Package firestore implements remote.Store on Cloud Firestore. A collection
// path maps to a Firestore collection; each bookmark is one document whose id
// is a ULID so document-id order is creation order.
package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"
	"google.golang.org/api/iterator"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

const subscriptionBuffer = 16

// Store handles Firestore operations for bookmark collections
type Store struct {
	client *firestore.Client
	logger logger.Logger
}

// NewStore creates a new Firestore store
func NewStore(client *firestore.Client, log logger.Logger) *Store {
	return &Store{client: client, logger: log}
}

// PushNew creates a document under a fresh ULID
func (s *Store) PushNew(ctx context.Context, path string, record domain.Record) (string, error) {
	id := ulid.Make().String()
	if _, err := s.client.Collection(path).Doc(id).Create(ctx, map[string]any(record)); err != nil {
		return "", classify("failed to push record", err)
	}
	return id, nil
}

// Remove deletes one document. Firestore treats missing documents as deleted.
func (s *Store) Remove(ctx context.Context, path, id string) error {
	if _, err := s.client.Collection(path).Doc(id).Delete(ctx); err != nil {
		return classify("failed to remove record", err)
	}
	return nil
}

// Subscribe streams query snapshots of the whole collection ordered by id.
// Errors from the listener arrive as a terminal event.
func (s *Store) Subscribe(ctx context.Context, path string) (remote.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("subscribe cancelled", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(path).OrderBy(firestore.DocumentID, firestore.Asc).Snapshots(subCtx)

	sub := &subscription{
		events: make(chan remote.Event, subscriptionBuffer),
		cancel: cancel,
	}
	go sub.run(subCtx, path, it)

	return sub, nil
}

type subscription struct {
	events chan remote.Event
	cancel context.CancelFunc
}

func (sub *subscription) Events() <-chan remote.Event {
	return sub.events
}

// Cancel stops the listener. The iterator itself is stopped by run, since
// Stop must not race with Next.
func (sub *subscription) Cancel() {
	sub.cancel()
}

func (sub *subscription) run(ctx context.Context, path string, it *firestore.QuerySnapshotIterator) {
	defer close(sub.events)
	defer it.Stop()
	defer sub.cancel()

	for {
		qs, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, iterator.Done) {
				return
			}
			sub.offer(remote.Event{Err: classify("subscription lost", err)})
			return
		}

		docs, err := qs.Documents.GetAll()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			sub.offer(remote.Event{Err: classify("failed to read snapshot", err)})
			return
		}

		sub.offer(remote.Event{Snapshot: toSnapshot(path, docs, qs.ReadTime)})
	}
}

// offer drops the oldest queued event when the buffer is full. run is the
// only sender.
func (sub *subscription) offer(ev remote.Event) {
	select {
	case sub.events <- ev:
		return
	default:
	}
	select {
	case <-sub.events:
	default:
	}
	sub.events <- ev
}

func toSnapshot(path string, docs []*firestore.DocumentSnapshot, readAt time.Time) *remote.Snapshot {
	children := make([]remote.Child, 0, len(docs))
	for _, doc := range docs {
		children = append(children, remote.Child{ID: doc.Ref.ID, Fields: domain.Record(doc.Data())})
	}
	if readAt.IsZero() {
		readAt = time.Now()
	}
	return &remote.Snapshot{Path: path, Children: children, ReceivedAt: readAt}
}
