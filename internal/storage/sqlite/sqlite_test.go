package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idleparty/internal/storage"
	"github.com/cory-johannsen/idleparty/internal/storage/sqlite"
)

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "saves.db")

	s, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	_, err = s.Load(ctx, storage.DefaultSlot)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, s.Save(ctx, storage.DefaultSlot, []byte(`{"stage":1}`)))
	require.NoError(t, s.Save(ctx, storage.DefaultSlot, []byte(`{"stage":2}`)))
	require.NoError(t, s.Close())

	s, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, storage.DefaultSlot)
	require.NoError(t, err)
	assert.Equal(t, `{"stage":2}`, string(got))
}

func TestStore_Property_SlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	rapid.Check(t, func(rt *rapid.T) {
		want := map[string][]byte{}
		n := rapid.IntRange(1, 20).Draw(rt, "ops")
		for i := 0; i < n; i++ {
			slot := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(rt, "slot")
			data := rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(rt, "data")
			require.NoError(rt, s.Save(ctx, slot, data))
			want[slot] = data
		}
		for slot, data := range want {
			got, err := s.Load(ctx, slot)
			require.NoError(rt, err)
			assert.Equal(rt, data, got)
		}
	})
}
