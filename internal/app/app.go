package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/backend"
	"github.com/MrSnakeDoc/bookmarkd/internal/config"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/scheduler"
	"github.com/MrSnakeDoc/bookmarkd/internal/synchronizer"
	"github.com/MrSnakeDoc/bookmarkd/internal/utils"
	"github.com/MrSnakeDoc/bookmarkd/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	handle   *backend.Handle
	sync     *synchronizer.Synchronizer
	importer *scheduler.Importer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// The store is not contacted here: the synchronizer connects lazily
	// and surfaces failures in its state, so the API comes up regardless.
	handle, err := backend.Initialize(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to initialize store backend: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("store backend configured",
		logger.String("backend", handle.Kind()),
		logger.String("collection", cfg.Collection))

	sync := synchronizer.New(handle, loggerClient, synchronizer.WithPath(cfg.Collection))

	// Initialize bookmark importer (if an import file is configured)
	var importer *scheduler.Importer
	if cfg.ImportFile != "" {
		loggerClient.Info("import file configured, initializing importer",
			logger.String("file", cfg.ImportFile))
		importer = scheduler.NewImporter(cfg.ImportFile, sync, loggerClient, cfg.ImportInterval)
	} else {
		loggerClient.Info("import file not configured, import disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		RequestTimeout:     cfg.RequestTimeout,
		StreamPingInterval: cfg.StreamPingInterval,
		RateLimitBurst:     cfg.RateLimitBurst,
		RateLimitPerMin:    cfg.RateLimitPerMin,
		Bookmarks:          sync,
		Backend:            handle,
	}
	// A typed nil would make the import route think it is enabled.
	if importer != nil {
		d.Importer = importer
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		handle:   handle,
		sync:     sync,
		importer: importer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting bookmarkd v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("bookmarkd %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start importer (waits for the first Ready state, then imports periodically)
	if a.importer != nil {
		a.importer.Start(ctx)
		a.logger.Info("importer started",
			logger.Duration("interval", a.cfg.ImportInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.shutdownSync()
		return err
	}

	if a.importer != nil {
		a.importer.Stop()
		<-a.importer.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.shutdownSync()

	a.logger.Info("✅ bookmarkd stopped cleanly")
	return nil
}

// shutdownSync closes the synchronizer, which ends every watch stream,
// then releases the store connection.
func (a *App) shutdownSync() {
	a.sync.Close()
	utils.MustClose(a.handle, "store backend", a.logger)
	a.logger.Info("✅ store connection released")
}
