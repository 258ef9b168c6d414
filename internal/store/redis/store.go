package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

// Store is a remote.Store on top of Redis. A collection is a HASH of
// id → JSON record; every write publishes the touched id on the collection's
// changes channel so subscribers reload.
type Store struct {
	client *redis.Client
	logger logger.Logger
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log,
		now:    time.Now,
	}
}

// PushNew stores record under a fresh ULID and notifies subscribers
func (s *Store) PushNew(ctx context.Context, path string, record domain.Record) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	id := ulid.Make().String()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, CollectionKey(path), id, data)
		pipe.Publish(ctx, ChangesChannel(path), id)
		return nil
	})
	if err != nil {
		return "", classify("failed to push record", err)
	}

	return id, nil
}

// Remove deletes one record and notifies subscribers
func (s *Store) Remove(ctx context.Context, path, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, CollectionKey(path), id)
		pipe.Publish(ctx, ChangesChannel(path), id)
		return nil
	})
	if err != nil {
		return classify("failed to remove record", err)
	}

	return nil
}

// Subscribe listens on the changes channel, then emits the current content of
// the collection and a fresh snapshot after every change notification.
func (s *Store) Subscribe(ctx context.Context, path string) (remote.Subscription, error) {
	ps := s.client.Subscribe(ctx, ChangesChannel(path))

	// Wait for the subscription confirmation so failures surface here.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, classify("failed to subscribe", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		events: make(chan remote.Event, subscriptionBuffer),
		cancel: cancel,
	}

	// ReceiveMessage does not observe ctx; closing the PubSub unblocks it.
	go func() {
		<-subCtx.Done()
		_ = ps.Close()
	}()

	go sub.run(subCtx, ps, func(ctx context.Context) (*remote.Snapshot, error) {
		return s.load(ctx, path)
	})

	return sub, nil
}

// load reads the whole collection. Children whose value is not a JSON object
// are still enumerated, with no fields.
func (s *Store) load(ctx context.Context, path string) (*remote.Snapshot, error) {
	raw, err := s.client.HGetAll(ctx, CollectionKey(path)).Result()
	if err != nil {
		return nil, classify("failed to load collection", err)
	}

	ids := slices.Sorted(maps.Keys(raw))
	children := make([]remote.Child, 0, len(ids))
	for _, id := range ids {
		fields, err := decodeRecord(raw[id])
		if err != nil {
			s.logger.Debug("undecodable record",
				logger.String("path", path),
				logger.String("id", id),
				logger.Error(err),
			)
		}
		children = append(children, remote.Child{ID: id, Fields: fields})
	}

	return &remote.Snapshot{Path: path, Children: children, ReceivedAt: s.now()}, nil
}

// decodeRecord keeps numbers as json.Number so integer timestamps survive.
func decodeRecord(data string) (domain.Record, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var rec domain.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}
