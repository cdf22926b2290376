package engine

import (
	"time"

	"github.com/cory-johannsen/idleparty/internal/game/enemy"
	"github.com/cory-johannsen/idleparty/internal/game/party"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

// Automation holds the player's automation toggles.
type Automation struct {
	AutoUpgrade bool `json:"autoUpgrade"`
	AutoStage   bool `json:"autoStage"`
	AutoEquip   bool `json:"autoEquip"`
}

// AutomationKind names one automation toggle.
type AutomationKind string

const (
	AutomationUpgrade AutomationKind = "upgrade"
	AutomationStage   AutomationKind = "stage"
	AutomationEquip   AutomationKind = "equip"
)

// State is the complete mutable game state owned by an Engine.
//
// Invariant: Stage >= 1; Enemy is nil only while the stage is cleared or a
// New Game Plus is pending.
type State struct {
	Party            *party.Party `json:"party"`
	Stage            int          `json:"stage"`
	Enemy            *enemy.Enemy `json:"enemy,omitempty"`
	BattlesUntilBoss int          `json:"battlesUntilBoss"`
	Phase            Phase        `json:"phase"`
	Wiped            bool         `json:"wiped"`
	Automation       Automation   `json:"automation"`

	LastEnemyAttackAt time.Time `json:"lastEnemyAttackAt"`
	LastHealAt        time.Time `json:"lastHealAt"`
}

// NewState returns the state of a brand-new game: a fresh party at stage 1
// facing a regular enemy, with every automation enabled.
func NewState(b *ruleset.Balance, roster *ruleset.Roster, now time.Time) *State {
	return &State{
		Party:             party.New(roster, b),
		Stage:             1,
		Enemy:             enemy.Regular(b, 1, 0, now),
		BattlesUntilBoss:  b.BossThreshold,
		Phase:             PhaseRegular,
		Automation:        Automation{AutoUpgrade: true, AutoStage: true, AutoEquip: true},
		LastEnemyAttackAt: now,
		LastHealAt:        now,
	}
}

// BossActive reports whether a boss fight is in progress.
func (s *State) BossActive() bool { return s.Phase == PhaseBoss }

// BossDefeated reports whether the current stage's boss has fallen.
func (s *State) BossDefeated() bool { return s.Phase == PhaseCleared || s.Phase == PhaseNGPlus }

// NGPlusAvailable reports whether the final boss has fallen and the next
// New Game Plus cycle is waiting to start.
func (s *State) NGPlusAvailable() bool { return s.Phase == PhaseNGPlus }

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Party = s.Party.Clone()
	c.Enemy = s.Enemy.Clone()
	return &c
}
