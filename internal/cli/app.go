package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/gatehook/internal/adapters/file"
	"github.com/aretw0/gatehook/internal/adapters/redis"
	"github.com/aretw0/gatehook/internal/config"
	"github.com/aretw0/gatehook/internal/hooks"
	"github.com/aretw0/gatehook/internal/metrics"
	"github.com/aretw0/gatehook/pkg/persistence/middleware"
	"github.com/aretw0/gatehook/pkg/ports"
	"github.com/aretw0/gatehook/pkg/session"
)

// App holds the wired stores and services of one gatehook process.
type App struct {
	Config   *config.Config
	Store    ports.StateStore
	Ledger   ports.LedgerStore
	Loops    ports.ActiveLoopSource
	Sessions *session.Manager
	Catalog  *hooks.FileCatalog
	Metrics  *metrics.Recorder
	Logger   *slog.Logger

	raw     ports.StateStore
	closers []io.Closer
}

// Open wires an App from cfg. The logger may be nil.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(false)
	}
	app := &App{
		Config:  cfg,
		Loops:   file.NewControlFile(cfg.ControlFilePath()),
		Metrics: metrics.NewRecorder(),
		Logger:  logger,
	}

	var locker ports.DistributedLocker
	switch cfg.Store {
	case config.StoreRedis:
		opts := []redis.Option{redis.WithPrefix(cfg.Redis.Prefix)}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		app.Store = store
		app.Ledger = redis.NewLedger(store.Client(), store.Prefix())
		locker = redis.NewLocker(store.Client(), store.Prefix())
		app.closers = append(app.closers, store)
	default:
		app.Store = file.New(cfg.SessionsDir())
		app.Ledger = file.NewLedger(cfg.LoopsDir())
		locker = file.NewLocker(cfg.SessionsDir())
	}

	app.raw = app.Store
	app.Store = middleware.Chain(app.Store, middleware.NewObserveMiddleware(app.Metrics))
	app.Sessions = session.NewManager(app.Store,
		session.WithLocker(locker),
		session.WithLockTTL(cfg.LockTTL),
		session.WithLogger(logger),
	)

	catalog, err := hooks.LoadCatalog(cfg.Catalog)
	if err != nil {
		// A broken catalog only costs prompt lookups.
		logger.Warn("prompt catalog not loaded", "path", cfg.Catalog, "err", err)
	}
	app.Catalog = catalog
	return app, nil
}

// Hooks builds the hook set over the App's stores.
func (a *App) Hooks(recorder hooks.Recorder) *hooks.Hooks {
	opts := []hooks.Option{
		hooks.WithLedger(a.Ledger, a.Loops),
		hooks.WithPolicy(a.Config.GatePolicy()),
		hooks.WithRules(a.Config.Tracker),
		hooks.WithMemoryNotes(a.Config.MemoryNotes),
		hooks.WithLogger(a.Logger),
	}
	if a.Catalog != nil {
		opts = append(opts, hooks.WithCatalog(a.Catalog))
	}
	if recorder != nil {
		opts = append(opts, hooks.WithRecorder(recorder))
	}
	return hooks.New(a.Sessions, opts...)
}

// StateCollector exposes the stored sessions and ledgers as gauges.
func (a *App) StateCollector() *metrics.StateCollector {
	return metrics.NewStateCollector(a.raw, a.Ledger)
}

// Watcher returns the store's change feed when it has one.
func (a *App) Watcher() (*file.Store, bool) {
	fs, ok := a.raw.(*file.Store)
	return fs, ok
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load reads the config of dir and opens the App.
func Load(dir, configPath string, logger *slog.Logger) (*App, error) {
	cfg, err := config.Load(dir, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return Open(cfg, logger)
}
