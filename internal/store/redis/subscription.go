package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

// subscriptionBuffer bounds the snapshots queued for a slow reader.
const subscriptionBuffer = 16

type loadFunc func(ctx context.Context) (*remote.Snapshot, error)

// subscription pumps change notifications into snapshots. run is the only
// sender on events and closes it on exit.
type subscription struct {
	events chan remote.Event
	cancel context.CancelFunc
	once   sync.Once
}

func (sub *subscription) Events() <-chan remote.Event {
	return sub.events
}

func (sub *subscription) Cancel() {
	sub.once.Do(sub.cancel)
}

func (sub *subscription) run(ctx context.Context, ps *redis.PubSub, load loadFunc) {
	defer close(sub.events)
	defer sub.cancel()

	if !sub.reload(ctx, load) {
		return
	}

	for {
		if _, err := ps.ReceiveMessage(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			sub.offer(remote.Event{Err: classify("subscription lost", err)})
			return
		}
		if !sub.reload(ctx, load) {
			return
		}
	}
}

// reload emits a fresh snapshot, or a terminal error event.
func (sub *subscription) reload(ctx context.Context, load loadFunc) bool {
	snap, err := load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		sub.offer(remote.Event{Err: err})
		return false
	}
	sub.offer(remote.Event{Snapshot: snap})
	return true
}

// offer drops the oldest queued event when the buffer is full.
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
