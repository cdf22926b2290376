package combat

import (
	"fmt"

	"github.com/cory-johannsen/idleparty/internal/game/dice"
)

// AttackResult holds the outcome of a single attack action.
type AttackResult struct {
	// AttackerName and TargetName are copied for log rendering.
	AttackerName string
	TargetName   string
	// AttackRoll is the raw d20 result before modifiers.
	AttackRoll int
	// AttackBonus is the attacker's bonus added to the roll.
	AttackBonus int
	// TargetAC is the armor class the roll was compared against.
	TargetAC int
	Outcome  Outcome
	// DiceTotal is the weapon dice sum, both rolls on a critical hit.
	DiceTotal int
	// Damage is max(1, DiceTotal + damage bonus) on a landed attack, else 0.
	Damage int
	// Detail describes the damage roll for the log.
	Detail string
}

// AttackTotal is the d20 roll plus the attack bonus.
func (r AttackResult) AttackTotal() int {
	return r.AttackRoll + r.AttackBonus
}

// Summary renders the attack roll, e.g. "(d20: 14 + 2 = 16 vs AC 11)".
func (r AttackResult) Summary() string {
	return fmt.Sprintf("(d20: %d %+d = %d vs AC %d)", r.AttackRoll, r.AttackBonus, r.AttackTotal(), r.TargetAC)
}

// ResolveAttack rolls a d20 for attacker against targetAC and, on a hit,
// rolls weapon damage.
//
// A roll equal to rules.CritMiss always misses and a roll equal to
// rules.CritHit always hits; otherwise the attack hits when roll + attack
// bonus >= targetAC. A critical hit rolls the weapon dice twice; the flat
// damage bonus is added once.
//
// Precondition: roller must be non-nil.
// Postcondition: Damage >= 1 iff Outcome.Landed(); otherwise Damage == 0.
func ResolveAttack(roller *dice.Roller, attacker Profile, targetName string, targetAC int, rules Rules) AttackResult {
	d20 := roller.D20()
	res := AttackResult{
		AttackerName: attacker.Name,
		TargetName:   targetName,
		AttackRoll:   d20,
		AttackBonus:  attacker.AttackBonus,
		TargetAC:     targetAC,
	}
	switch {
	case d20 == rules.CritMiss:
		res.Outcome = CritMiss
	case d20 == rules.CritHit:
		res.Outcome = CritHit
	case d20+attacker.AttackBonus >= targetAC:
		res.Outcome = Hit
	default:
		res.Outcome = Miss
	}
	if !res.Outcome.Landed() {
		return res
	}

	expr, ok := dice.ParseDiceString(attacker.WeaponDice)
	if !ok {
		res.Damage = max(1, attacker.DamageBonus)
		res.Detail = fmt.Sprintf("unusable weapon dice %q, bonus %+d", attacker.WeaponDice, attacker.DamageBonus)
		return res
	}
	first := roller.Roll(expr, attacker.DamageBonus)
	res.DiceTotal = first.DiceTotal()
	res.Detail = fmt.Sprintf("%s: %d", expr, first.DiceTotal())
	if res.Outcome == CritHit {
		extra := roller.Roll(expr, 0)
		res.DiceTotal += extra.DiceTotal()
		res.Detail += fmt.Sprintf(" + %d (critical)", extra.DiceTotal())
	}
	res.Detail += fmt.Sprintf(", bonus %+d", attacker.DamageBonus)
	res.Damage = max(1, res.DiceTotal+attacker.DamageBonus)
	return res
}
