package gameloop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/idleparty/internal/clock"
	"github.com/cory-johannsen/idleparty/internal/game/engine"
	"github.com/cory-johannsen/idleparty/internal/game/eventlog"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
	"github.com/cory-johannsen/idleparty/internal/game/save"
	"github.com/cory-johannsen/idleparty/internal/gameloop"
	"github.com/cory-johannsen/idleparty/internal/storage"
	"github.com/cory-johannsen/idleparty/internal/storage/memory"
	"github.com/cory-johannsen/idleparty/internal/storage/mocks"
)

var start = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func lastKind(l *eventlog.Log) eventlog.Kind {
	entries := l.Entries()
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].Kind
}

func TestSave_WritesSnapshotAndLogs(t *testing.T) {
	b, r := ruleset.Default(), ruleset.DefaultRoster()
	c := clock.NewManual(start)
	eng := engine.New(b, r, nil, engine.WithClock(c))
	store := memory.New()
	loop := gameloop.New(eng, store, "slot-a", c, zaptest.NewLogger(t))

	require.NoError(t, loop.Save(context.Background()))
	assert.Equal(t, eventlog.KindSave, lastKind(eng.Log()))

	data, err := store.Load(context.Background(), "slot-a")
	require.NoError(t, err)
	st, err := save.Decode(data, b, r, start, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Stage)
}

func TestSave_StoreFailureIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	boom := errors.New("disk on fire")
	store.EXPECT().Save(gomock.Any(), storage.DefaultSlot, gomock.Any()).Return(boom)

	eng := engine.New(ruleset.Default(), ruleset.DefaultRoster(), nil, engine.WithClock(clock.NewManual(start)))
	loop := gameloop.New(eng, store, "", nil, nil)

	err := loop.Save(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, eventlog.KindError, lastKind(eng.Log()))
}

func TestLoad(t *testing.T) {
	b, r := ruleset.Default(), ruleset.DefaultRoster()
	saved := engine.NewState(b, r, start)
	saved.Stage = 4
	good, err := save.Encode(saved, start)
	require.NoError(t, err)

	tests := []struct {
		name  string
		data  []byte
		err   error
		stage int
		kind  eventlog.Kind
	}{
		{"missing", nil, storage.ErrNotFound, 1, eventlog.KindSystem},
		{"backend error", nil, errors.New("connection refused"), 1, eventlog.KindError},
		{"corrupt", []byte("{{"), nil, 1, eventlog.KindError},
		{"saved game", good, nil, 4, eventlog.KindSave},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			store.EXPECT().Load(gomock.Any(), "main").Return(tc.data, tc.err)
			log := eventlog.New(10)

			st := gameloop.Load(context.Background(), store, "main", b, r, start, log, zaptest.NewLogger(t))
			require.NotNil(t, st)
			assert.Equal(t, tc.stage, st.Stage)
			assert.Equal(t, tc.kind, lastKind(log))
		})
	}
}

func TestRun_TicksAndSavesOnShutdown(t *testing.T) {
	b := ruleset.Default()
	b.TickInterval = time.Millisecond
	b.AutosaveInterval = 5 * time.Millisecond
	b.AutoUpgradeInterval = 2 * time.Millisecond
	r := ruleset.DefaultRoster()
	st := engine.NewState(b, r, time.Now())
	st.Party.Gold = 10_000

	eng := engine.New(b, r, st)
	store := memory.New()
	loop := gameloop.New(eng, store, "run", nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	assert.Eventually(t, func() bool {
		_, err := store.Load(context.Background(), "run")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond, "autosave should write the slot")
	assert.Eventually(t, func() bool {
		return eng.Snapshot().Party.Gold < 10_000
	}, 2*time.Second, 5*time.Millisecond, "auto-upgrade should spend gold")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	data, err := store.Load(context.Background(), "run")
	require.NoError(t, err)
	out, err := save.Decode(data, b, r, time.Now(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, eng.Snapshot().Party.Upgrades, out.Party.Upgrades)
}

func TestRun_AutoStageAdvancesAfterBoss(t *testing.T) {
	b := ruleset.Default()
	b.TickInterval = time.Millisecond
	b.AutoStageDelay = time.Millisecond
	r := ruleset.DefaultRoster()
	st := engine.NewState(b, r, time.Now())
	st.Phase = engine.PhaseCleared
	st.Enemy = nil

	eng := engine.New(b, r, st)
	store := memory.New()
	loop := gameloop.New(eng, store, "stage", nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return eng.Snapshot().Stage == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		_, err := store.Load(context.Background(), "stage")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond, "stage change is a checkpoint")
}

func TestNew_PanicsWithoutStore(t *testing.T) {
	eng := engine.New(ruleset.Default(), ruleset.DefaultRoster(), nil)
	assert.Panics(t, func() { gameloop.New(eng, nil, "", nil, nil) })
}
