// Package memory provides an in-process realtime store. It backs local
// development (BOOKMARKD_STORE_BACKEND=memory) and is the store double used by
// tests, with hooks to inject failures and raw records.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

// Op names a store operation for failure injection.
type Op string

const (
	OpSubscribe Op = "subscribe"
	OpPush      Op = "push"
	OpRemove    Op = "remove"
)

// subscriptionBuffer bounds the events queued for a slow reader.
// Snapshots are complete, so dropping an older one loses nothing.
const subscriptionBuffer = 16

// Store keeps collections in memory and fans snapshots out to subscribers.
type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	failures    map[Op][]error
	now         func() time.Time
}

type collection struct {
	records map[string]domain.Record
	subs    map[*subscription]struct{}
}

// NewStore creates an empty memory store
func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
		failures:    make(map[Op][]error),
		now:         time.Now,
	}
}

// Subscribe implements remote.Store.
func (s *Store) Subscribe(ctx context.Context, path string) (remote.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, remote.NewError(remote.Cancelled, "subscribe cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailureLocked(OpSubscribe); err != nil {
		return nil, err
	}

	c := s.collectionLocked(path)
	sub := &subscription{
		store:  s,
		path:   path,
		events: make(chan remote.Event, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	c.subs[sub] = struct{}{}
	sub.offer(remote.Event{Snapshot: c.snapshot(path, s.now())})

	go func() {
		select {
		case <-ctx.Done():
			sub.Cancel()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// PushNew implements remote.Store. Ids are ULIDs.
func (s *Store) PushNew(ctx context.Context, path string, record domain.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", remote.NewError(remote.Cancelled, "push cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailureLocked(OpPush); err != nil {
		return "", err
	}

	id := ulid.Make().String()
	c := s.collectionLocked(path)
	c.records[id] = maps.Clone(record)
	c.broadcast(path, s.now())

	return id, nil
}

// Remove implements remote.Store. Unknown ids succeed without notification.
func (s *Store) Remove(ctx context.Context, path, id string) error {
	if err := ctx.Err(); err != nil {
		return remote.NewError(remote.Cancelled, "remove cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailureLocked(OpRemove); err != nil {
		return err
	}

	c := s.collectionLocked(path)
	if _, ok := c.records[id]; !ok {
		return nil
	}
	delete(c.records, id)
	c.broadcast(path, s.now())

	return nil
}

// ─────────────────────────────────────────────────────────────────
// Test and seeding hooks
// ─────────────────────────────────────────────────────────────────

// Put writes a raw record under a caller-chosen id and notifies subscribers.
// Unlike PushNew it accepts any field shapes, including malformed ones.
func (s *Store) Put(path, id string, record domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collectionLocked(path)
	c.records[id] = maps.Clone(record)
	c.broadcast(path, s.now())
}

// Fail queues err as the result of the next call of op.
func (s *Store) Fail(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[op] = append(s.failures[op], err)
}

// Break terminates every subscription on path with err.
func (s *Store) Break(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collectionLocked(path)
	for sub := range c.subs {
		sub.offer(remote.Event{Err: err})
		sub.closeLocked()
		delete(c.subs, sub)
	}
}

// Subscribers returns the number of live subscriptions on path.
func (s *Store) Subscribers(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.collectionLocked(path).subs)
}

// Records returns a copy of the records stored under path.
func (s *Store) Records(path string) map[string]domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collectionLocked(path)
	out := make(map[string]domain.Record, len(c.records))
	for id, rec := range c.records {
		out[id] = maps.Clone(rec)
	}
	return out
}

func (s *Store) takeFailureLocked(op Op) error {
	queued := s.failures[op]
	if len(queued) == 0 {
		return nil
	}
	s.failures[op] = queued[1:]
	return queued[0]
}

func (s *Store) collectionLocked(path string) *collection {
	c, ok := s.collections[path]
	if !ok {
		c = &collection{
			records: make(map[string]domain.Record),
			subs:    make(map[*subscription]struct{}),
		}
		s.collections[path] = c
	}
	return c
}

func (c *collection) snapshot(path string, now time.Time) *remote.Snapshot {
	ids := slices.Sorted(maps.Keys(c.records))
	children := make([]remote.Child, 0, len(ids))
	for _, id := range ids {
		children = append(children, remote.Child{ID: id, Fields: maps.Clone(c.records[id])})
	}
	return &remote.Snapshot{Path: path, Children: children, ReceivedAt: now}
}

func (c *collection) broadcast(path string, now time.Time) {
	for sub := range c.subs {
		sub.offer(remote.Event{Snapshot: c.snapshot(path, now)})
	}
}

// subscription is attached to a collection until cancelled or broken.
// offer and closeLocked run under the store mutex.
type subscription struct {
	store  *Store
	path   string
	events chan remote.Event
	done   chan struct{}
	closed bool
}

func (sub *subscription) Events() <-chan remote.Event {
	return sub.events
}

func (sub *subscription) Cancel() {
	sub.store.mu.Lock()
	defer sub.store.mu.Unlock()

	if sub.closed {
		return
	}
	delete(sub.store.collectionLocked(sub.path).subs, sub)
	sub.closeLocked()
}

func (sub *subscription) offer(ev remote.Event) {
	if sub.closed {
		return
	}
	select {
	case sub.events <- ev:
		return
	default:
	}
	// Full: drop the oldest queued event. Only offer sends, so room is guaranteed.
	select {
	case <-sub.events:
	default:
	}
	sub.events <- ev
}

func (sub *subscription) closeLocked() {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.events)
	close(sub.done)
}
