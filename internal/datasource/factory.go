package datasource

import (
	"context"
	"fmt"
	"time"

	"tutorbook/internal/config"
	"tutorbook/internal/core"
	applog "tutorbook/internal/log"
	"tutorbook/internal/storage"
)

// New builds the source selected by cfg.DataSource. Live sources fall back
// to the demo data per collection, fixture sources serve the demo data or
// the configured fixture file from memory.
func New(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	kind := Kind(cfg.DataSource)
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid data source: %s", cfg.DataSource)
	}

	demo := Demo(time.Now())

	switch kind {
	case KindLive:
		store, err := storage.Open(ctx, storage.Dialect(cfg.DBDriver), cfg.DSN(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.DBDriver, err)
		}
		logger.Info("Initialized live data source", "driver", cfg.DBDriver)
		return NewSource(KindLive, store, demo, logger), nil
	default:
		seed := demo
		if cfg.FixtureFile != "" {
			var err error
			if seed, err = LoadFixtureFile(cfg.FixtureFile); err != nil {
				return nil, err
			}
		}
		logger.Info("Initialized fixture data source", "fixture_file", cfg.FixtureFile)
		return NewSource(KindFixture, NewMemory(seed), seed, logger), nil
	}
}

var _ Store = (*storage.Store)(nil)
var _ Store = (*Memory)(nil)

// FromSnapshot is a convenience for tests and tools that need a fixture
// source over fixed data.
func FromSnapshot(snap core.Snapshot, logger *applog.Logger) *Source {
	return NewSource(KindFixture, NewMemory(snap), snap, logger)
}
