// Package combat resolves single d20 attacks between a party member and an
// enemy, and provides the one-shot timer used to revive a wiped party.
package combat

// Outcome classifies the result of one attack roll.
type Outcome int

const (
	CritHit Outcome = iota
	Hit
	Miss
	CritMiss
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case CritHit:
		return "critical hit"
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case CritMiss:
		return "critical miss"
	default:
		return "unknown"
	}
}

// Landed reports whether the attack dealt damage.
func (o Outcome) Landed() bool {
	return o == CritHit || o == Hit
}

// Profile is the offensive side of a combatant: everything an attack roll
// and a damage roll need.
type Profile struct {
	Name        string
	AttackBonus int
	DamageBonus int
	// WeaponDice is an "NdM" expression; an unparseable value means flat
	// damage bonus only.
	WeaponDice string
}

// Rules are the natural d20 faces that always hit or always miss.
type Rules struct {
	CritHit  int
	CritMiss int
}
