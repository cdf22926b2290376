package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/idleparty/internal/storage"
	"github.com/cory-johannsen/idleparty/internal/storage/redis"
)

func newStore(t *testing.T, ttl time.Duration) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := redis.New(context.Background(), redis.Options{Addr: mr.Addr(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t, 0)

	_, err := s.Load(ctx, "main")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Save(ctx, "main", []byte(`{"stage":5}`)))
	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, `{"stage":5}`, string(got))

	raw, err := mr.Get("idleparty:save:main")
	require.NoError(t, err)
	assert.Equal(t, `{"stage":5}`, raw)
}

func TestStore_TTLExpiresSave(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t, time.Hour)

	require.NoError(t, s.Save(ctx, "main", []byte("x")))
	mr.FastForward(2 * time.Hour)
	_, err := s.Load(ctx, "main")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNew_Errors(t *testing.T) {
	_, err := redis.New(context.Background(), redis.Options{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = redis.New(context.Background(), redis.Options{Addr: addr})
	assert.Error(t, err)
}

func TestStore_LoadPropagatesServerErrors(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t, 0)
	mr.SetError("LOADING")
	_, err := s.Load(ctx, "main")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	mr.SetError("")
}
