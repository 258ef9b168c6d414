// Package backend selects and owns the remote store. A Handle is created once
// by the composition root and handed to the synchronizer, which acquires the
// store through it; there is no process-wide "initialized" state.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/MrSnakeDoc/bookmarkd/internal/config"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	redisconn "github.com/MrSnakeDoc/bookmarkd/internal/redis"
	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
	firestorestore "github.com/MrSnakeDoc/bookmarkd/internal/store/firestore"
	"github.com/MrSnakeDoc/bookmarkd/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/bookmarkd/internal/store/redis"
)

// ErrNotConnected is returned by Ping before the first successful Acquire.
var ErrNotConnected = errors.New("backend not connected")

// conn is one live connection to a backend.
type conn struct {
	store remote.Store
	ping  func(ctx context.Context) error
	close func() error
}

type dialFunc func(ctx context.Context) (*conn, error)

// Handle lazily connects to the configured backend and caches the store.
type Handle struct {
	kind   string
	dial   dialFunc
	logger logger.Logger

	mu   sync.Mutex
	conn *conn
}

// Initialize validates the backend choice. No connection is made until Acquire.
func Initialize(cfg *config.Config, log logger.Logger) (*Handle, error) {
	var dial dialFunc
	switch cfg.StoreBackend {
	case config.BackendRedis:
		dial = dialRedis(cfg, log)
	case config.BackendFirestore:
		dial = dialFirestore(cfg, log)
	case config.BackendMemory:
		dial = dialMemory(memory.NewStore())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return newHandle(cfg.StoreBackend, dial, log), nil
}

func newHandle(kind string, dial dialFunc, log logger.Logger) *Handle {
	return &Handle{kind: kind, dial: dial, logger: log}
}

// Kind returns the backend name.
func (h *Handle) Kind() string {
	return h.kind
}

// Acquire returns the store, connecting on first use. A cached connection is
// pinged first and replaced when it no longer answers.
func (h *Handle) Acquire(ctx context.Context) (remote.Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn != nil {
		err := h.conn.ping(ctx)
		if err == nil {
			return h.conn.store, nil
		}
		h.logger.Warn("backend connection lost, reconnecting",
			logger.String("backend", h.kind),
			logger.Error(err))
		h.closeLocked()
	}

	c, err := h.dial(ctx)
	if err != nil {
		return nil, err
	}
	h.conn = c
	h.logger.Info("backend connected", logger.String("backend", h.kind))

	return c.store, nil
}

// Ping checks the current connection without reconnecting.
func (h *Handle) Ping(ctx context.Context) error {
	h.mu.Lock()
	c := h.conn
	h.mu.Unlock()

	if c == nil {
		return ErrNotConnected
	}
	return c.ping(ctx)
}

// Close releases the connection. The handle may be acquired again afterwards.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.closeLocked()
}

func (h *Handle) closeLocked() error {
	if h.conn == nil {
		return nil
	}
	err := h.conn.close()
	h.conn = nil
	return err
}

func dialMemory(store *memory.Store) dialFunc {
	return func(ctx context.Context) (*conn, error) {
		return &conn{
			store: store,
			ping:  func(context.Context) error { return nil },
			close: func() error { return nil },
		}, nil
	}
}

func dialRedis(cfg *config.Config, log logger.Logger) dialFunc {
	opts := redisconn.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}

	return func(ctx context.Context) (*conn, error) {
		client, err := redisconn.New(ctx, opts, log)
		if err != nil {
			return nil, remote.NewError(remote.ConnectionUnavailable, err.Error(), err)
		}
		return &conn{
			store: redisstore.NewStore(client, log),
			ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close: client.Close,
		}, nil
	}
}

func dialFirestore(cfg *config.Config, log logger.Logger) dialFunc {
	var opts []option.ClientOption
	if cfg.FirestoreCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
	}
	collection := cfg.Collection

	return func(ctx context.Context) (*conn, error) {
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject, opts...)
		if err != nil {
			return nil, remote.NewError(remote.ConnectionUnavailable,
				fmt.Sprintf("failed to create firestore client: %v", err), err)
		}
		return &conn{
			store: firestorestore.NewStore(client, log),
			ping: func(ctx context.Context) error {
				_, err := client.Collection(collection).Limit(1).Documents(ctx).Next()
				if err != nil && !errors.Is(err, iterator.Done) {
					return err
				}
				return nil
			},
			close: client.Close,
		}, nil
	}
}
