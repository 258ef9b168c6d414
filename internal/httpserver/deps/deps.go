package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/synchronizer"
)

// Bookmarks is the live collection served by the API.
type Bookmarks interface {
	State() synchronizer.State
	Watch() (<-chan synchronizer.State, func())
	Add(text string) bool
	Delete(id string) bool
	Retry()
}

// Backend reports on the remote store.
type Backend interface {
	Kind() string
	Ping(ctx context.Context) error
}

// Importer runs a bookmark import on demand.
type Importer interface {
	Trigger() bool
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time // for testing, defaults to time.Now
	AllowedHosts       []string         // Host headers allowed to access the server
	AllowedCIDRS       []string         // IPs allowed to access the server
	TrustProxy         bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RequestTimeout     time.Duration    // per-request timeout, streaming routes excluded
	StreamPingInterval time.Duration    // websocket keepalive interval
	RateLimitBurst     int              // write requests allowed in a burst per client IP
	RateLimitPerMin    int              // write token refill per client IP per minute
	Bookmarks          Bookmarks        // synchronized bookmark collection
	Backend            Backend          // remote store handle
	Importer           Importer         // nil when no import file is configured
}
