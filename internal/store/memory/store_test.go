package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

const path = remote.CollectionBookmarks

func nextEvent(t *testing.T, sub remote.Subscription) (remote.Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription event")
		return remote.Event{}, false
	}
}

func TestSubscribeDeliversCurrentContent(t *testing.T) {
	store := NewStore()
	store.Put(path, "b", domain.Record{"text": "second"})
	store.Put(path, "a", domain.Record{"text": "first"})

	sub, err := store.Subscribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Cancel()

	ev, ok := nextEvent(t, sub)
	assert.Equal(t, true, ok)
	assert.Equal(t, nil, ev.Err)
	assert.Equal(t, 2, len(ev.Snapshot.Children))
	assert.Equal(t, "a", ev.Snapshot.Children[0].ID)
	assert.Equal(t, "b", ev.Snapshot.Children[1].ID)
}

func TestPushNewAssignsOrderedIDs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first, err := store.PushNew(ctx, path, domain.Record{"text": "one"})
	if err != nil {
		t.Fatalf("PushNew() error = %v", err)
	}
	second, err := store.PushNew(ctx, path, domain.Record{"text": "two"})
	if err != nil {
		t.Fatalf("PushNew() error = %v", err)
	}

	if first == "" || second == "" || first == second {
		t.Fatalf("PushNew() ids = %q, %q; want distinct non-empty", first, second)
	}
	if !(first < second) {
		t.Errorf("PushNew() ids not in creation order: %q >= %q", first, second)
	}
	assert.Equal(t, 2, len(store.Records(path)))
}

func TestPushNotifiesSubscribers(t *testing.T) {
	store := NewStore()
	sub, err := store.Subscribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Cancel()

	ev, _ := nextEvent(t, sub)
	assert.Equal(t, 0, len(ev.Snapshot.Children))

	id, err := store.PushNew(context.Background(), path, domain.NewRecord("note", time.UnixMilli(1)))
	if err != nil {
		t.Fatalf("PushNew() error = %v", err)
	}

	ev, _ = nextEvent(t, sub)
	assert.Equal(t, 1, len(ev.Snapshot.Children))
	assert.Equal(t, id, ev.Snapshot.Children[0].ID)
	assert.Equal(t, "note", ev.Snapshot.Children[0].Fields["text"])
}

func TestRemoveUnknownIDSucceeds(t *testing.T) {
	store := NewStore()
	if err := store.Remove(context.Background(), path, "does-not-exist"); err != nil {
		t.Errorf("Remove() of unknown id error = %v, want nil", err)
	}
}

func TestRemoveDeletesRecord(t *testing.T) {
	store := NewStore()
	store.Put(path, "a", domain.Record{"text": "note"})

	if err := store.Remove(context.Background(), path, "a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	assert.Equal(t, 0, len(store.Records(path)))
}

func TestFailInjectsOneError(t *testing.T) {
	store := NewStore()
	injected := remote.NewError(remote.PermissionDenied, "Permission denied", nil)
	store.Fail(OpPush, injected)

	_, err := store.PushNew(context.Background(), path, domain.Record{"text": "x"})
	assert.Equal(t, true, errors.Is(err, remote.ErrPermissionDenied))

	_, err = store.PushNew(context.Background(), path, domain.Record{"text": "x"})
	assert.Equal(t, nil, err)
}

func TestBreakTerminatesSubscription(t *testing.T) {
	store := NewStore()
	sub, err := store.Subscribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	nextEvent(t, sub)

	store.Break(path, remote.NewError(remote.Cancelled, "listener revoked", nil))

	ev, ok := nextEvent(t, sub)
	assert.Equal(t, true, ok)
	assert.Equal(t, true, errors.Is(ev.Err, remote.ErrCancelled))

	_, ok = nextEvent(t, sub)
	assert.Equal(t, false, ok)
	assert.Equal(t, 0, store.Subscribers(path))

	// Cancel after Break is a no-op.
	sub.Cancel()
}

func TestCancelIsIdempotent(t *testing.T) {
	store := NewStore()
	sub, err := store.Subscribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	assert.Equal(t, 1, store.Subscribers(path))

	sub.Cancel()
	sub.Cancel()
	assert.Equal(t, 0, store.Subscribers(path))
}

func TestContextCancelDetachesSubscription(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := store.Subscribe(ctx, path)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				assert.Equal(t, 0, store.Subscribers(path))
				return
			}
		case <-deadline:
			t.Fatal("subscription was not closed after context cancellation")
		}
	}
}

func TestSlowSubscriberKeepsLatestSnapshot(t *testing.T) {
	store := NewStore()
	sub, err := store.Subscribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Cancel()

	for i := 0; i < subscriptionBuffer*2; i++ {
		store.Put(path, string(rune('a'+i%26))+string(rune('a'+i/26)), domain.Record{"text": "x"})
	}

	var last remote.Event
	for len(sub.Events()) > 0 {
		last = <-sub.Events()
	}
	assert.Equal(t, subscriptionBuffer*2, len(last.Snapshot.Children))
}
