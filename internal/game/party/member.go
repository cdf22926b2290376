package party

import (
	"math"
	"time"

	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

// Member is one adventurer in the party.
//
// Invariant: 0 <= CurrentHealth <= effective max health; CurrentHealth <= 0
// implies !Active.
type Member struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Class ruleset.Class `json:"class"`

	Level         int `json:"level"`
	XP            int `json:"xp"`
	XPToNextLevel int `json:"xpToNextLevel"`

	BaseMaxHealth   int     `json:"baseMaxHealth"`
	BaseAttack      int     `json:"baseAttack"`
	BaseDefense     int     `json:"baseDefense"`
	BaseAttackSpeed float64 `json:"baseAttackSpeed"`
	BaseWeaponDice  string  `json:"baseWeaponDice"`

	CurrentHealth int       `json:"currentHealth"`
	Unlocked      bool      `json:"unlocked"`
	Active        bool      `json:"active"`
	LastAttackAt  time.Time `json:"lastAttackAt"`
	UnlockStage   int       `json:"unlockStage"`

	Equipment Equipment `json:"equipment"`
}

// NewMember creates a level-1 member from t wearing its starter gear.
// Members with an unlock stage of 1 or less start unlocked and active.
//
// Postcondition: CurrentHealth is left at zero; the caller sets it from
// EffectiveStats once the owning party exists.
func NewMember(t ruleset.MemberTemplate) *Member {
	m := &Member{
		ID:              t.ID,
		Name:            t.Name,
		Class:           t.Class,
		Level:           1,
		XPToNextLevel:   t.XPToNextLevel,
		BaseMaxHealth:   t.BaseMaxHealth,
		BaseAttack:      t.BaseAttack,
		BaseDefense:     t.BaseDefense,
		BaseAttackSpeed: t.BaseAttackSpeed,
		BaseWeaponDice:  t.BaseWeaponDice,
		UnlockStage:     t.UnlockStage,
	}
	if t.UnlockStage <= 1 {
		m.Unlocked = true
		m.Active = true
	}
	for _, st := range t.Starter {
		if st.Slot.Valid() {
			m.Equipment.Set(st.Slot, NewItem(st))
		}
	}
	return m
}

// Fighting reports whether the member currently takes part in combat.
func (m *Member) Fighting() bool {
	return m.Unlocked && m.Active
}

// GainXP adds xp and applies every level-up it earns. Each level adds the
// balance's per-level stats, raises the threshold by the xp multiplier and
// heals the member to the new effective max health, which maxHealth computes.
//
// Precondition: xp >= 0; maxHealth must be non-nil.
// Postcondition: m.XP < m.XPToNextLevel; returns the number of levels gained.
func (m *Member) GainXP(xp int, b *ruleset.Balance, maxHealth func(*Member) int) int {
	m.XP += xp
	gained := 0
	for m.XPToNextLevel > 0 && m.XP >= m.XPToNextLevel {
		m.XP -= m.XPToNextLevel
		m.Level++
		m.BaseMaxHealth += b.LevelHealth
		m.BaseAttack += b.LevelAttack
		m.BaseDefense += b.LevelDefense
		m.XPToNextLevel = int(math.Floor(float64(m.XPToNextLevel) * b.XPMultiplier))
		m.CurrentHealth = maxHealth(m)
		gained++
	}
	return gained
}

// Clone returns a deep copy of m.
func (m *Member) Clone() *Member {
	c := *m
	c.Equipment = m.Equipment.Clone()
	return &c
}
