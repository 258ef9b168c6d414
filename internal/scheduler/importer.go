package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookmarkd/internal/synchronizer"
)

// ErrNotReady is returned by Import while the collection is not loaded.
var ErrNotReady = errors.New("collection not ready")

// queuedTTL is how long an imported href that has not shown up in the
// collection yet is kept from being added again. A failed add is retried by
// the first import after it expires.
const queuedTTL = 10 * time.Minute

// Target is the bookmark collection the importer writes into.
type Target interface {
	State() synchronizer.State
	Watch() (<-chan synchronizer.State, func())
	Add(text string) bool
}

// Importer periodically adds the hrefs of a Homepage bookmarks.yaml that are
// not in the collection yet. Imports are plain adds: they show up once the
// store echoes them back.
type Importer struct {
	loader        *homepage.Loader
	target        Target
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	now           func() time.Time

	mu     sync.Mutex
	queued map[string]time.Time // href -> when it was added, until seen in a snapshot
	done          chan struct{}
	manualTrigger chan struct{}
}

// NewImporter creates a new bookmark importer
func NewImporter(
	bookmarkFile string,
	target Target,
	log logger.Logger,
	interval time.Duration,
) *Importer {
	return &Importer{
		loader:        homepage.NewLoader(bookmarkFile),
		target:        target,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		now:           time.Now,
		queued:        make(map[string]time.Time),
		done:          make(chan struct{}),
		manualTrigger: make(chan struct{}, 1),
	}
}

// Start waits for the collection to be ready, imports once, then re-imports
// on every tick and manual trigger.
func (im *Importer) Start(ctx context.Context) {
	go func() {
		defer close(im.done)

		if !im.waitReady(ctx) {
			return
		}
		im.run(ctx)

		ticker := time.NewTicker(im.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				im.run(ctx)
			case <-im.manualTrigger:
				im.logger.Info("manual bookmark import triggered")
				im.run(ctx)
			case <-im.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Trigger requests an import. It returns false when one is already pending.
func (im *Importer) Trigger() bool {
	select {
	case im.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop stops the importer. Safe to call more than once.
func (im *Importer) Stop() {
	im.stopOnce.Do(func() {
		close(im.stopCh)
	})
}

// Done is closed once the importer goroutine exits.
func (im *Importer) Done() <-chan struct{} {
	return im.done
}

func (im *Importer) run(ctx context.Context) {
	added, err := im.Import(ctx)
	if err != nil {
		im.logger.Error("failed to import bookmarks",
			logger.String("file", im.loader.Path()),
			logger.Error(err))
		return
	}
	im.logger.Info("imported bookmarks",
		logger.String("file", im.loader.Path()),
		logger.Int("added", added))
}

func (im *Importer) waitReady(ctx context.Context) bool {
	states, stop := im.target.Watch()
	defer stop()

	for {
		select {
		case st, ok := <-states:
			if !ok {
				return false
			}
			if st.Status == synchronizer.StatusReady {
				return true
			}
		case <-im.stopCh:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// Import adds every href of the file whose exact text is not in the
// collection and returns how many adds were queued. Hrefs added by an
// earlier run that the collection does not show yet are skipped.
func (im *Importer) Import(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	st := im.target.State()
	if st.Status != synchronizer.StatusReady {
		return 0, fmt.Errorf("%w: status %s", ErrNotReady, st.Status)
	}

	config, err := im.loader.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	entries, err := homepage.MapBookmarks(config)
	if err != nil {
		return 0, fmt.Errorf("failed to map bookmarks: %w", err)
	}

	existing := make(map[string]struct{}, len(st.Items))
	for _, b := range st.Items {
		existing[strings.TrimSpace(b.Text)] = struct{}{}
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	now := im.now()
	for href, at := range im.queued {
		if _, seen := existing[href]; seen || now.Sub(at) >= queuedTTL {
			delete(im.queued, href)
		}
	}

	added := 0
	for _, entry := range entries {
		if _, ok := existing[entry.Href]; ok {
			continue
		}
		if _, ok := im.queued[entry.Href]; ok {
			continue
		}
		if im.target.Add(entry.Href) {
			existing[entry.Href] = struct{}{}
			im.queued[entry.Href] = now
			added++
			im.logger.Debug("queued bookmark import",
				logger.String("category", entry.Category),
				logger.String("name", entry.Name),
				logger.String("href", entry.Href))
		}
	}

	return added, nil
}
