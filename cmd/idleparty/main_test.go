package main

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/idleparty/internal/config"
	"github.com/cory-johannsen/idleparty/internal/game/engine"
	"github.com/cory-johannsen/idleparty/internal/game/eventlog"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
	"github.com/cory-johannsen/idleparty/internal/storage"
)

func TestOpenStore_LocalBackends(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Config{Storage: config.StorageConfig{
				Backend:    backend,
				Slot:       "default",
				SQLitePath: filepath.Join(t.TempDir(), "saves.db"),
			}}
			ctx := context.Background()
			store, err := openStore(ctx, cfg, zaptest.NewLogger(t))
			require.NoError(t, err)
			defer store.Close()

			_, err = store.Load(ctx, "default")
			assert.ErrorIs(t, err, storage.ErrNotFound)
			require.NoError(t, store.Save(ctx, "default", []byte("{}")))
		})
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := openStore(context.Background(), config.Config{Storage: config.StorageConfig{Backend: "tape"}}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestLoadContent(t *testing.T) {
	b, r, err := loadContent(config.GameConfig{})
	require.NoError(t, err)
	assert.Equal(t, ruleset.Default().FinalStage, b.FinalStage)
	assert.Len(t, r.Members, len(ruleset.DefaultRoster().Members))

	_, _, err = loadContent(config.GameConfig{BalancePath: "/nonexistent/balance.yaml"})
	assert.Error(t, err)
}

func TestSummarize_WritesYAML(t *testing.T) {
	b, r := ruleset.Default(), ruleset.DefaultRoster()
	st := engine.NewState(b, r, time.Now())
	st.Stage = 3
	st.Party.Gold = 77

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, summarize("hero", st, b)))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "hero", out["slot"])
	assert.Equal(t, 3, out["stage"])
	assert.Equal(t, 77, out["gold"])
	members, ok := out["members"].([]any)
	require.True(t, ok)
	assert.Len(t, members, len(r.Members))
}

func TestNarrator_PrintsEntries(t *testing.T) {
	log := eventlog.New(10)
	log.Add(eventlog.KindSave, "Game loaded.")
	var buf safeBuffer

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- narrator(log, &buf).Run(ctx) }()

	assert.Eventually(t, func() bool { return bytes.Contains(buf.Bytes(), []byte("Game loaded.")) },
		time.Second, 5*time.Millisecond)
	log.Add(eventlog.KindCombat, "Warrior hits Goblin for 5 damage.")
	assert.Eventually(t, func() bool { return bytes.Contains(buf.Bytes(), []byte("Goblin")) },
		time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
