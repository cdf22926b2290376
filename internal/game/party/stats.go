package party

import (
	"math"
	"time"

	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

// Stats is a member's fully derived combat profile. It is never persisted.
type Stats struct {
	MaxHealth   int     `json:"maxHealth"`
	AttackSpeed float64 `json:"attackSpeed"`
	ArmorClass  int     `json:"armorClass"`
	AttackBonus int     `json:"attackBonus"`
	DamageBonus int     `json:"damageBonus"`
	WeaponDice  string  `json:"weaponDice"`
}

// minAttackSpeed is the floor applied to every computed attack speed.
const minAttackSpeed = 0.1

// EffectiveStats composes m's base stats, the party upgrades and m's
// equipment into a Stats value.
//
// With forInitialHealth set, upgrades and the speed, attack and damage
// contributions of items are skipped; item health, armor class and the weapon
// dice override still apply.
//
// Attack speed is clamped to what the speed upgrade can reach at its max
// level plus the weapon, armor and accessory speed. Shield speed still adds
// to the unclamped value but does not raise the limit.
//
// Precondition: b and m must be non-nil.
// Postcondition: MaxHealth >= 1 and AttackSpeed >= 0.1.
func EffectiveStats(b *ruleset.Balance, up Upgrades, m *Member, forInitialHealth bool) Stats {
	s := Stats{
		MaxHealth:   m.BaseMaxHealth,
		AttackSpeed: m.BaseAttackSpeed,
		ArmorClass:  b.BaseAC + floorDiv(m.BaseDefense, 3),
		AttackBonus: floorDiv(m.Level, 2) + int(math.Floor(float64(m.BaseAttack)/4-1)),
		DamageBonus: max(0, int(math.Floor(float64(m.BaseAttack)/3-2))),
		WeaponDice:  m.BaseWeaponDice,
	}

	if !forInitialHealth {
		if u, ok := b.Upgrade(ruleset.UpgradeMaxHealth); ok {
			s.MaxHealth += int(math.Floor(float64(up.MaxHealth) * u.PerLevel))
		}
		if u, ok := b.Upgrade(ruleset.UpgradeDefense); ok {
			s.ArmorClass += int(math.Floor(float64(up.Defense) * u.PerLevel))
		}
		if u, ok := b.Upgrade(ruleset.UpgradeAttack); ok {
			s.AttackBonus += int(math.Floor(float64(up.Attack) * u.PerLevel))
			s.DamageBonus += int(math.Floor(float64(up.Attack) * u.SecondaryPerLevel))
		}
		if u, ok := b.Upgrade(ruleset.UpgradeAttackSpeed); ok {
			s.AttackSpeed += float64(up.AttackSpeed) * u.PerLevel
		}
	}

	var itemSpeed float64
	for _, it := range m.Equipment.Items() {
		s.MaxHealth += it.MaxHealth
		s.ArmorClass += it.ArmorClass
		if it.Slot != ruleset.SlotShield {
			itemSpeed += it.AttackSpeed
		}
		if !forInitialHealth {
			s.AttackBonus += it.AttackBonus
			s.DamageBonus += it.DamageBonus
			s.AttackSpeed += it.AttackSpeed
		}
		if it.Slot == ruleset.SlotWeapon && it.WeaponDice != "" {
			s.WeaponDice = it.WeaponDice
		}
	}

	s.MaxHealth = max(1, s.MaxHealth)
	s.AttackSpeed = math.Max(minAttackSpeed, s.AttackSpeed)

	if u, ok := b.Upgrade(ruleset.UpgradeAttackSpeed); ok && u.MaxLevel > 0 {
		limit := m.BaseAttackSpeed + float64(u.MaxLevel)*u.PerLevel + itemSpeed
		s.AttackSpeed = math.Max(minAttackSpeed, math.Min(s.AttackSpeed, limit))
	}
	return s
}

// Stats is shorthand for EffectiveStats with the party's own upgrades.
func (p *Party) Stats(b *ruleset.Balance, m *Member) Stats {
	return EffectiveStats(b, p.Upgrades, m, false)
}

// AttackCooldown is the minimum time between two attacks at s.AttackSpeed
// attacks per second.
func (s Stats) AttackCooldown() time.Duration {
	return time.Duration(float64(time.Second) / s.AttackSpeed)
}

func floorDiv(a, b int) int {
	return int(math.Floor(float64(a) / float64(b)))
}
