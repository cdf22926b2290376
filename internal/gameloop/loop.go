// Package gameloop drives an Engine in real time and persists it.
package gameloop

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idleparty/internal/clock"
	"github.com/cory-johannsen/idleparty/internal/game/engine"
	"github.com/cory-johannsen/idleparty/internal/game/eventlog"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
	"github.com/cory-johannsen/idleparty/internal/game/save"
	"github.com/cory-johannsen/idleparty/internal/storage"
)

// shutdownSaveTimeout bounds the final save after the loop's context ends.
const shutdownSaveTimeout = 5 * time.Second

// Loop runs the tick, autosave, auto-upgrade and auto-stage timers for one
// engine and writes snapshots to a store.
type Loop struct {
	eng    *engine.Engine
	store  storage.Store
	slot   string
	clock  clock.Clock
	logger *zap.Logger
}

// New returns a Loop persisting eng to slot in store.
//
// Precondition: eng and store must be non-nil.
func New(eng *engine.Engine, store storage.Store, slot string, c clock.Clock, logger *zap.Logger) *Loop {
	if eng == nil || store == nil {
		panic("gameloop.New: engine and store must not be nil")
	}
	if slot == "" {
		slot = storage.DefaultSlot
	}
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{eng: eng, store: store, slot: slot, clock: c, logger: logger}
}

// Run drives the engine until ctx is cancelled, then saves once more.
//
// Postcondition: returns ctx.Err() after the final save was attempted.
func (l *Loop) Run(ctx context.Context) error {
	b := l.eng.Balance()
	tick := time.NewTicker(b.TickInterval)
	defer tick.Stop()
	autosave := time.NewTicker(b.AutosaveInterval)
	defer autosave.Stop()
	upgrade := time.NewTicker(b.AutoUpgradeInterval)
	defer upgrade.Stop()

	// advance is non-nil while an auto-stage advance is pending.
	var advance <-chan time.Time
	var advanceTimer *time.Timer
	defer func() {
		if advanceTimer != nil {
			advanceTimer.Stop()
		}
	}()

	l.logger.Info("game loop started",
		zap.String("slot", l.slot),
		zap.Duration("tick", b.TickInterval),
	)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("game loop stopping")
			l.eng.Close()
			saveCtx, cancel := context.WithTimeout(context.Background(), shutdownSaveTimeout)
			_ = l.Save(saveCtx)
			cancel()
			return ctx.Err()
		case <-tick.C:
			l.eng.Tick()
			l.checkpoint(ctx)
			if advance == nil && l.eng.AutoStageReady() {
				advanceTimer = time.NewTimer(b.AutoStageDelay)
				advance = advanceTimer.C
			}
		case <-advance:
			advance, advanceTimer = nil, nil
			if l.eng.AutoAdvance() {
				l.logger.Debug("auto-stage advanced")
			}
			l.checkpoint(ctx)
		case <-upgrade.C:
			if t, ok := l.eng.AutoUpgrade(); ok {
				l.logger.Debug("auto-upgrade bought", zap.String("upgrade", string(t)))
			}
		case <-autosave.C:
			_ = l.Save(ctx)
		}
	}
}

// checkpoint saves when the engine asked for it since the last check.
func (l *Loop) checkpoint(ctx context.Context) {
	if l.eng.TakeCheckpoint() {
		_ = l.Save(ctx)
	}
}

// Save writes the current state to the store. The outcome is recorded in the
// engine's event log either way.
func (l *Loop) Save(ctx context.Context) error {
	data, err := save.Encode(l.eng.Snapshot(), l.clock.Now())
	if err == nil {
		err = l.store.Save(ctx, l.slot, data)
	}
	if err != nil {
		l.eng.Log().Add(eventlog.KindError, "Saving the game failed.")
		l.logger.Error("saving game", zap.String("slot", l.slot), zap.Error(err))
		return err
	}
	l.eng.Log().Add(eventlog.KindSave, "Game saved.")
	l.logger.Debug("game saved", zap.String("slot", l.slot), zap.Int("bytes", len(data)))
	return nil
}

// Load reads slot from store. A missing or unreadable snapshot yields a fresh
// game; the reason is written to log.
//
// Postcondition: never returns nil.
func Load(ctx context.Context, store storage.Store, slot string, b *ruleset.Balance, roster *ruleset.Roster,
	now time.Time, log *eventlog.Log, logger *zap.Logger) *engine.State {
	data, err := store.Load(ctx, slot)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Add(eventlog.KindSystem, "No saved game found. A new adventure begins!")
		return engine.NewState(b, roster, now)
	case err != nil:
		logger.Error("loading game", zap.String("slot", slot), zap.Error(err))
		log.Add(eventlog.KindError, "The saved game could not be read. Starting a new game.")
		return engine.NewState(b, roster, now)
	}
	st, err := save.Decode(data, b, roster, now, logger.With(zap.String("slot", slot)))
	if err != nil {
		logger.Error("decoding saved game", zap.String("slot", slot), zap.Error(err))
		log.Add(eventlog.KindError, "The saved game is damaged. Starting a new game.")
		return engine.NewState(b, roster, now)
	}
	log.Addf(eventlog.KindSave, "Game loaded. Welcome back to stage %d!", st.Stage)
	return st
}
