// Package app builds and holds the long-lived services of a progresswatch
// process: configuration, logger, metrics registry and session audit store.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/config"
	"github.com/JakeFAU/convert-progress/internal/logging"
	"github.com/JakeFAU/convert-progress/internal/storage/memory"
	"github.com/JakeFAU/convert-progress/internal/storage/postgres"
	"github.com/JakeFAU/convert-progress/internal/store"
)

// App holds the long-lived services shared by every subcommand.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Sessions store.SessionRepository

	closers []func()
}

// NewApp loads configuration from cfgPath and builds the shared services.
func NewApp(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.Build(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
	}
	app.AddCloser(func() { _ = logger.Sync() })

	if cfg.DB.DSN == "" {
		app.Sessions = memory.NewSessionStore()
		return app, nil
	}
	pg, err := postgres.NewSessionStore(ctx, postgres.SessionStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("connect session store: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		app.Close()
		return nil, fmt.Errorf("ensure session schema: %w", err)
	}
	app.Sessions = pg
	app.AddCloser(pg.Close)
	logger.Info("session audit trail in postgres", zap.String("table", cfg.DB.Table))
	return app, nil
}

// AddCloser registers fn to run on Close, before anything registered earlier.
func (a *App) AddCloser(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases services in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
