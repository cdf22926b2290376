// Package redis is a storage.Store keeping each slot under one Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/idleparty/internal/storage"
)

const keyPrefix = "idleparty:save:"

// Options configures the Redis client.
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL expires idle saves; zero keeps them forever.
	TTL time.Duration
}

// Store saves snapshots as plain string values.
type Store struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// New connects to the server at opts.Addr and verifies it responds.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: address is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts.TTL), nil
}

// NewWithClient wraps an existing client. Closing the Store closes it.
func NewWithClient(client goredis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(slot string) string { return keyPrefix + slot }

// Load returns the snapshot saved in slot.
func (s *Store) Load(ctx context.Context, slot string) ([]byte, error) {
	data, err := s.client.Get(ctx, key(slot)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%w: slot %q", storage.ErrNotFound, slot)
		}
		return nil, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	return data, nil
}

// Save replaces the snapshot in slot.
func (s *Store) Save(ctx context.Context, slot string, data []byte) error {
	if err := s.client.Set(ctx, key(slot), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
