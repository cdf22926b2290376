// Package save converts engine state to and from the persisted snapshot
// format, reconciling loaded snapshots against the current roster and balance.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idleparty/internal/game/enemy"
	"github.com/cory-johannsen/idleparty/internal/game/engine"
	"github.com/cory-johannsen/idleparty/internal/game/party"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

// Version is the snapshot format written by Encode.
const Version = 1

var (
	// ErrUnsupportedVersion is returned for snapshots newer than Version.
	ErrUnsupportedVersion = errors.New("save: unsupported snapshot version")
	// ErrCorrupt is returned when a snapshot parses but is unusable.
	ErrCorrupt = errors.New("save: corrupt snapshot")
)

// Snapshot is the persisted form of a game. Encounter phase is stored as the
// three progression flags; the phase is derived from them on load.
type Snapshot struct {
	Version          int                `json:"version"`
	SavedAt          time.Time          `json:"savedAt"`
	Party            *party.Party       `json:"party"`
	Stage            int                `json:"stage"`
	Enemy            *enemy.Enemy       `json:"enemy,omitempty"`
	BattlesUntilBoss int                `json:"battlesUntilBoss"`
	BossActive       bool               `json:"bossActive"`
	BossDefeated     bool               `json:"bossDefeated"`
	NGPlusAvailable  bool               `json:"ngPlusAvailable"`
	Wiped            bool               `json:"wiped"`
	Automation       *engine.Automation `json:"automation,omitempty"`
}

// FromState builds a snapshot of st taken at now.
func FromState(st *engine.State, now time.Time) Snapshot {
	a := st.Automation
	return Snapshot{
		Version:          Version,
		SavedAt:          now,
		Party:            st.Party,
		Stage:            st.Stage,
		Enemy:            st.Enemy,
		BattlesUntilBoss: st.BattlesUntilBoss,
		BossActive:       st.BossActive(),
		BossDefeated:     st.BossDefeated(),
		NGPlusAvailable:  st.NGPlusAvailable(),
		Wiped:            st.Wiped,
		Automation:       &a,
	}
}

// Encode serializes st.
//
// Precondition: st must not be mutated concurrently; pass an Engine snapshot.
func Encode(st *engine.State, now time.Time) ([]byte, error) {
	data, err := json.Marshal(FromState(st, now))
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses data and restores it into a State consistent with b and
// roster. now becomes the reference time for enemy attacks and regen.
//
// Precondition: logger must be non-nil.
// Postcondition: on error the returned State is nil.
func Decode(data []byte, b *ruleset.Balance, roster *ruleset.Roster, now time.Time, logger *zap.Logger) (*engine.State, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return Restore(s, b, roster, now, logger)
}

// Restore turns a parsed snapshot into engine state. Members are reconciled
// against roster: unknown members are dropped, new roster members are added
// fresh, and health is clamped to each member's effective maximum. Inventory
// beyond b.MaxInventory is discarded with a warning.
//
// Precondition: logger must be non-nil.
func Restore(s Snapshot, b *ruleset.Balance, roster *ruleset.Roster, now time.Time, logger *zap.Logger) (*engine.State, error) {
	if s.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if s.Party == nil {
		return nil, fmt.Errorf("%w: no party", ErrCorrupt)
	}

	p := s.Party
	p.Members = reconcile(p.Members, roster, b, p)
	p.MaxInventory = b.MaxInventory
	if p.Inventory == nil {
		p.Inventory = []*party.Item{}
	}
	if n := len(p.Inventory) - p.MaxInventory; n > 0 {
		logger.Warn("saved inventory over capacity; discarding extra items",
			zap.Int("capacity", p.MaxInventory),
			zap.Int("discarded", n),
		)
		p.Inventory = p.Inventory[:p.MaxInventory]
	}
	p.Gold = max(0, p.Gold)
	p.NGPlusLevel = max(0, p.NGPlusLevel)

	st := &engine.State{
		Party:             p,
		Stage:             min(max(1, s.Stage), b.FinalStage),
		BattlesUntilBoss:  s.BattlesUntilBoss,
		Phase:             phaseOf(s),
		Wiped:             s.Wiped,
		Automation:        engine.Automation{AutoUpgrade: true, AutoStage: true, AutoEquip: true},
		LastEnemyAttackAt: now,
		LastHealAt:        now,
	}
	if s.Automation != nil {
		st.Automation = *s.Automation
	}
	if st.BattlesUntilBoss > b.BossThreshold || (st.BattlesUntilBoss <= 0 && st.Phase != engine.PhaseBoss) {
		st.BattlesUntilBoss = b.BossThreshold
	}
	st.Enemy = restoreEnemy(s.Enemy, st, b, now)
	if !p.AnyFighting() {
		st.Wiped = true
	}
	return st, nil
}

// phaseOf derives the encounter phase from the persisted flags. An exhausted
// countdown on an undefeated stage resumes the boss fight.
func phaseOf(s Snapshot) engine.Phase {
	switch {
	case s.NGPlusAvailable:
		return engine.PhaseNGPlus
	case s.BossActive:
		return engine.PhaseBoss
	case s.BossDefeated:
		return engine.PhaseCleared
	case s.BattlesUntilBoss <= 0:
		return engine.PhaseBoss
	}
	return engine.PhaseRegular
}

// restoreEnemy keeps a saved enemy that matches the phase and stage, and
// otherwise generates the one the phase calls for.
func restoreEnemy(saved *enemy.Enemy, st *engine.State, b *ruleset.Balance, now time.Time) *enemy.Enemy {
	ng := st.Party.NGPlusLevel
	fits := saved.Alive() && saved.Stage == st.Stage && saved.NGPlus == ng &&
		saved.CurrentHealth <= saved.MaxHealth
	switch st.Phase {
	case engine.PhaseNGPlus:
		return nil
	case engine.PhaseBoss:
		if fits && saved.IsBoss {
			return saved
		}
		return enemy.Boss(b, st.Stage, ng, now)
	case engine.PhaseCleared:
		if fits && !saved.IsBoss {
			return saved
		}
		return nil
	}
	if fits && !saved.IsBoss {
		return saved
	}
	return enemy.Regular(b, st.Stage, ng, now)
}

func reconcile(saved []*party.Member, roster *ruleset.Roster, b *ruleset.Balance, p *party.Party) []*party.Member {
	byID := make(map[string]*party.Member, len(saved))
	for _, m := range saved {
		if m != nil {
			byID[m.ID] = m
		}
	}
	out := make([]*party.Member, 0, len(roster.Members))
	for _, t := range roster.Members {
		m, ok := byID[t.ID]
		if !ok {
			m = party.NewMember(t)
			m.CurrentHealth = party.EffectiveStats(b, p.Upgrades, m, true).MaxHealth
			out = append(out, m)
			continue
		}
		m.Name = t.Name
		m.Class = t.Class
		m.UnlockStage = t.UnlockStage
		m.Level = max(1, m.Level)
		m.XP = max(0, m.XP)
		if m.XPToNextLevel <= 0 {
			m.XPToNextLevel = t.XPToNextLevel
		}
		m.LastAttackAt = time.Time{}
		maxHealth := party.EffectiveStats(b, p.Upgrades, m, false).MaxHealth
		m.CurrentHealth = min(max(0, m.CurrentHealth), maxHealth)
		if m.CurrentHealth <= 0 {
			m.Active = false
		}
		out = append(out, m)
	}
	return out
}
