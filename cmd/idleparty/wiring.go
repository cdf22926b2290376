package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idleparty/internal/config"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
	"github.com/cory-johannsen/idleparty/internal/storage"
	"github.com/cory-johannsen/idleparty/internal/storage/memory"
	"github.com/cory-johannsen/idleparty/internal/storage/postgres"
	"github.com/cory-johannsen/idleparty/internal/storage/redis"
	"github.com/cory-johannsen/idleparty/internal/storage/sqlite"
)

// openStore connects the backend named by cfg.Backend.
//
// Postcondition: the caller owns the returned store and must Close it.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	start := time.Now()
	var (
		store storage.Store
		err   error
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		store = memory.New()
	case config.BackendSQLite:
		store, err = sqlite.Open(ctx, cfg.Storage.SQLitePath)
	case config.BackendPostgres:
		store, err = postgres.Open(ctx, cfg.Database)
	case config.BackendRedis:
		r := cfg.Storage.Redis
		store, err = redis.New(ctx, redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB, TTL: r.TTL})
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Backend, err)
	}
	logger.Info("store opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("slot", cfg.Storage.Slot),
		zap.Duration("elapsed", time.Since(start)),
	)
	return store, nil
}

// loadContent returns the configured balance and roster, falling back to the
// built-in ones for unset paths.
func loadContent(cfg config.GameConfig) (*ruleset.Balance, *ruleset.Roster, error) {
	b := ruleset.Default()
	if cfg.BalancePath != "" {
		var err error
		if b, err = ruleset.LoadBalance(cfg.BalancePath); err != nil {
			return nil, nil, err
		}
	}
	r := ruleset.DefaultRoster()
	if cfg.RosterPath != "" {
		var err error
		if r, err = ruleset.LoadRoster(cfg.RosterPath); err != nil {
			return nil, nil, err
		}
	}
	return b, r, nil
}
