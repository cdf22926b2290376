// Package postgres is the PostgreSQL save store, built on a pgx v5 pool.
// The saves table is created by the migrations in the repository root.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/idleparty/internal/config"
	"github.com/cory-johannsen/idleparty/internal/storage"
)

// Store is a storage.Store backed by the saves table.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pool sized by cfg and verifies the database answers.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Store or a non-nil error.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	s := NewStore(pool)
	if err := s.Ping(ctx, 5*time.Second); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return s, nil
}

// NewStore returns a Store over pool. Closing the Store closes the pool.
//
// Precondition: the saves migration must be applied.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks that the database is reachable within timeout.
func (s *Store) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

// DB exposes the pool for schema setup in tests.
func (s *Store) DB() *pgxpool.Pool { return s.pool }

// Load returns the snapshot saved in slot.
//
// Postcondition: returns storage.ErrNotFound when slot has no row.
func (s *Store) Load(ctx context.Context, slot string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM saves WHERE slot = $1`, slot,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: slot %q", storage.ErrNotFound, slot)
		}
		return nil, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	return data, nil
}

// Save upserts the snapshot for slot.
func (s *Store) Save(ctx context.Context, slot string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO saves (slot, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		slot, data,
	)
	if err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
