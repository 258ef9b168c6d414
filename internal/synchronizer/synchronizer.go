// Package synchronizer keeps a live, ordered view of the bookmarks held by a
// remote store and forwards add/delete writes to it.
//
// All transitions run on one loop goroutine. Store calls and subscription
// streams run on helper goroutines and report back through the loop's inbox,
// tagged with the subscription generation they belong to so that results from
// a torn-down subscription are ignored.
package synchronizer

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

const (
	inboxSize          = 64
	defaultWatchBuffer = 16

	// maxPendingWrites bounds the writes held while a store is being acquired.
	maxPendingWrites = 1024
)

// Acquirer hands out a store handle.
type Acquirer interface {
	Acquire(ctx context.Context) (remote.Store, error)
}

// AcquireFunc adapts a function to Acquirer.
type AcquireFunc func(ctx context.Context) (remote.Store, error)

func (f AcquireFunc) Acquire(ctx context.Context) (remote.Store, error) {
	return f(ctx)
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithPath sets the collection path (default "bookmarks").
func WithPath(path string) Option {
	return func(s *Synchronizer) { s.path = path }
}

// WithClock replaces time.Now for write timestamps and record fallbacks.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// WithWatchBuffer sets how many states a slow observer may lag behind.
func WithWatchBuffer(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.watchBuffer = n
		}
	}
}

type Synchronizer struct {
	acquirer    Acquirer
	logger      logger.Logger
	path        string
	now         func() time.Time
	watchBuffer int

	ctx       context.Context
	cancel    context.CancelFunc
	inbox     chan func()
	done      chan struct{}
	closeOnce sync.Once

	// loop goroutine only
	store      remote.Store
	sub        remote.Subscription
	generation uint64
	state      State
	acquiring  bool
	pending    []pendingWrite

	mu       sync.RWMutex
	current  State
	watchers map[*watcher]struct{}
	closed   bool
}

// New starts the synchronizer; it immediately tries to acquire a store.
func New(acquirer Acquirer, log logger.Logger, opts ...Option) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		acquirer:    acquirer,
		logger:      log,
		path:        remote.CollectionBookmarks,
		now:         time.Now,
		watchBuffer: defaultWatchBuffer,
		ctx:         ctx,
		cancel:      cancel,
		inbox:       make(chan func(), inboxSize),
		done:        make(chan struct{}),
		watchers:    make(map[*watcher]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = State{Status: StatusUninitialized, UpdatedAt: s.now()}
	s.current = s.state

	go s.run()
	return s
}

// State returns the current state.
func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Watch returns a channel receiving the current state and then every
// transition. A watcher that falls behind loses the oldest pending states.
// The channel is closed by the returned stop func or by Close.
func (s *Synchronizer) Watch() (<-chan State, func()) {
	w := &watcher{ch: make(chan State, s.watchBuffer)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(w.ch)
		return w.ch, func() {}
	}
	s.watchers[w] = struct{}{}
	w.offer(s.current.clone())

	return w.ch, func() { s.unwatch(w) }
}

// Add stores text as a new bookmark. Blank text is ignored and reported as
// false; otherwise the write is queued and the result shows up in a later
// snapshot, or as a Failed state.
func (s *Synchronizer) Add(text string) bool {
	if domain.IsBlank(text) {
		s.logger.Debug("ignoring blank bookmark")
		return false
	}
	return s.post(func() { s.push(text) })
}

// Delete removes the bookmark with the given id. An empty id would address
// the whole collection and is ignored.
func (s *Synchronizer) Delete(id string) bool {
	if id == "" {
		s.logger.Debug("ignoring delete without id")
		return false
	}
	return s.post(func() { s.remove(id) })
}

// Retry drops the current subscription and acquires and subscribes again.
func (s *Synchronizer) Retry() {
	s.post(func() {
		s.logger.Info("retrying store synchronization")
		s.transition(StatusUninitialized, s.state.Items, nil)
		s.connect()
	})
}

// Close stops the loop, cancels the subscription and closes every watcher.
// In-flight writes finish on their own; their outcome is discarded.
func (s *Synchronizer) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		for w := range s.watchers {
			close(w.ch)
			delete(s.watchers, w)
		}
	})
}

// ─────────────────────────────────────────────────────────────────
// Loop
// ─────────────────────────────────────────────────────────────────

func (s *Synchronizer) run() {
	defer close(s.done)

	s.connect()
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-s.ctx.Done():
			s.teardown()
			return
		}
	}
}

// post hands fn to the loop. It fails once the synchronizer is closed.
func (s *Synchronizer) post(fn func()) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case s.inbox <- fn:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// teardown cancels the live subscription and invalidates everything tagged
// with the current generation.
func (s *Synchronizer) teardown() {
	if s.sub != nil {
		s.sub.Cancel()
		s.sub = nil
	}
	s.generation++
}

func (s *Synchronizer) connect() {
	s.teardown()
	gen := s.generation
	s.acquiring = true

	go func() {
		store, err := s.acquirer.Acquire(s.ctx)
		s.post(func() { s.onAcquired(gen, store, err) })
	}()
}

func (s *Synchronizer) onAcquired(gen uint64, store remote.Store, err error) {
	if gen != s.generation {
		return
	}
	s.acquiring = false
	if err != nil {
		s.store = nil
		s.fail(AcquisitionFailure, err.Error())
		s.failPending(err)
		return
	}

	s.store = store
	s.transition(StatusLoading, s.state.Items, nil)
	s.flushPending(store)

	go func() {
		sub, err := store.Subscribe(s.ctx, s.path)
		if !s.post(func() { s.onSubscribed(gen, sub, err) }) && sub != nil {
			sub.Cancel()
		}
	}()
}

func (s *Synchronizer) onSubscribed(gen uint64, sub remote.Subscription, err error) {
	if gen != s.generation {
		if sub != nil {
			sub.Cancel()
		}
		return
	}
	if err != nil {
		s.fail(SubscriptionFailure, err.Error())
		return
	}

	s.sub = sub
	go s.forward(gen, sub)
}

func (s *Synchronizer) forward(gen uint64, sub remote.Subscription) {
	for ev := range sub.Events() {
		if !s.post(func() { s.onEvent(gen, ev) }) {
			return
		}
	}
	s.post(func() { s.onClosed(gen) })
}

func (s *Synchronizer) onEvent(gen uint64, ev remote.Event) {
	if gen != s.generation {
		return
	}
	if ev.Err != nil {
		s.teardown()
		s.fail(SubscriptionFailure, ev.Err.Error())
		return
	}
	if ev.Snapshot != nil {
		s.apply(ev.Snapshot)
	}
}

func (s *Synchronizer) onClosed(gen uint64) {
	if gen != s.generation {
		return
	}
	s.teardown()
	s.fail(SubscriptionFailure, "subscription closed by store")
}

// apply turns a snapshot into the item list. Records that cannot be parsed
// are skipped; they never fail the snapshot.
func (s *Synchronizer) apply(snap *remote.Snapshot) {
	now := s.now()
	items := make([]domain.Bookmark, 0, len(snap.Children))
	skipped := 0
	for _, child := range snap.Children {
		b, err := domain.ParseRecord(child.ID, child.Fields, now)
		if err != nil {
			skipped++
			s.logger.Debug("skipping record",
				logger.String("id", child.ID),
				logger.Error(err))
			continue
		}
		items = append(items, b)
	}
	domain.SortNewestFirst(items)

	if skipped > 0 {
		s.logger.Warn("snapshot contained unreadable records",
			logger.String("path", snap.Path),
			logger.Int("skipped", skipped))
	}
	s.transition(StatusReady, items, nil)
}

// pendingWrite is an add (record set) or a delete (id set) issued while no
// store handle was available yet.
type pendingWrite struct {
	record domain.Record
	id     string
}

func (w pendingWrite) failure(reason string) string {
	if w.record != nil {
		return "Error adding bookmark: " + reason
	}
	return "Error deleting bookmark: " + reason
}

func (s *Synchronizer) push(text string) {
	s.write(pendingWrite{record: domain.NewRecord(text, s.now())})
}

func (s *Synchronizer) remove(id string) {
	s.write(pendingWrite{id: id})
}

// write sends w to the store, or holds it until the acquisition in flight
// completes. Without a store and without an acquisition it fails at once.
func (s *Synchronizer) write(w pendingWrite) {
	if s.store != nil {
		s.send(s.store, w)
		return
	}
	if !s.acquiring {
		s.fail(WriteFailure, w.failure("store unavailable"))
		return
	}
	if len(s.pending) >= maxPendingWrites {
		s.fail(WriteFailure, w.failure("too many writes waiting for the store"))
		return
	}
	s.pending = append(s.pending, w)
	s.logger.Debug("write queued until the store is acquired",
		logger.Int("pending", len(s.pending)))
}

func (s *Synchronizer) send(store remote.Store, w pendingWrite) {
	go func() {
		if w.record != nil {
			id, err := store.PushNew(context.Background(), s.path, w.record)
			if err != nil {
				s.post(func() { s.fail(WriteFailure, w.failure(err.Error())) })
				return
			}
			s.logger.Debug("bookmark added", logger.String("id", id))
			return
		}

		if err := store.Remove(context.Background(), s.path, w.id); err != nil {
			s.post(func() { s.fail(WriteFailure, w.failure(err.Error())) })
			return
		}
		s.logger.Debug("bookmark deleted", logger.String("id", w.id))
	}()
}

func (s *Synchronizer) flushPending(store remote.Store) {
	if len(s.pending) == 0 {
		return
	}
	s.logger.Info("sending writes queued during acquisition",
		logger.Int("writes", len(s.pending)))
	for _, w := range s.pending {
		s.send(store, w)
	}
	s.pending = nil
}

// failPending reports every held write as failed, once the acquisition they
// were waiting for has failed.
func (s *Synchronizer) failPending(cause error) {
	for _, w := range s.pending {
		s.fail(WriteFailure, w.failure("store unavailable: "+cause.Error()))
	}
	s.pending = nil
}

func (s *Synchronizer) fail(kind ErrorKind, message string) {
	s.logger.Warn("synchronization failed",
		logger.String("kind", kind.String()),
		logger.String("error", message))
	s.transition(StatusFailed, s.state.Items, &StateError{Kind: kind, Message: message})
}

func (s *Synchronizer) transition(status Status, items []domain.Bookmark, serr *StateError) {
	s.state = State{
		Status:    status,
		Items:     items,
		Error:     serr,
		Version:   s.state.Version + 1,
		UpdatedAt: s.now(),
	}
	s.logger.Debug("state transition",
		logger.String("status", status.String()),
		logger.Int("items", len(items)),
		logger.Uint64("version", s.state.Version))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.state
	for w := range s.watchers {
		w.offer(s.state.clone())
	}
}

func (s *Synchronizer) unwatch(w *watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watchers[w]; !ok {
		return
	}
	delete(s.watchers, w)
	close(w.ch)
}

// watcher is fed under Synchronizer.mu, so offer has a single sender.
type watcher struct {
	ch chan State
}

func (w *watcher) offer(st State) {
	select {
	case w.ch <- st:
		return
	default:
	}
	select {
	case <-w.ch:
	default:
	}
	w.ch <- st
}
