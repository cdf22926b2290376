package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idleparty/internal/game/combat"
	"github.com/cory-johannsen/idleparty/internal/game/dice"
)

// faces replays die faces: each Intn(n) call returns face-1, so a queue of
// {20, 3} means a natural 20 then a 3 on the next die.
type faces []int

func (f *faces) Intn(n int) int {
	if len(*f) == 0 {
		return 0
	}
	v := (*f)[0]
	*f = (*f)[1:]
	return (v - 1) % n
}

func (f *faces) Float64() float64 { return 0 }

func roller(values ...int) *dice.Roller {
	f := faces(values)
	return dice.NewLoggedRoller(&f, zap.NewNop())
}

var rules = combat.Rules{CritHit: 20, CritMiss: 1}

var warrior = combat.Profile{Name: "Brutus", AttackBonus: 2, DamageBonus: 2, WeaponDice: "1d6"}

func TestResolveAttack_Hit(t *testing.T) {
	res := combat.ResolveAttack(roller(9, 4), warrior, "Goblin", 11, rules)
	assert.Equal(t, combat.Hit, res.Outcome)
	assert.Equal(t, 11, res.AttackTotal())
	assert.Equal(t, 4, res.DiceTotal)
	assert.Equal(t, 6, res.Damage)
	assert.Equal(t, "(d20: 9 +2 = 11 vs AC 11)", res.Summary())
	assert.Equal(t, "1d6: 4, bonus +2", res.Detail)
}

func TestResolveAttack_Miss(t *testing.T) {
	res := combat.ResolveAttack(roller(8), warrior, "Goblin", 11, rules)
	assert.Equal(t, combat.Miss, res.Outcome)
	assert.Zero(t, res.Damage)
}

func TestResolveAttack_NaturalOneAlwaysMisses(t *testing.T) {
	strong := combat.Profile{Name: "X", AttackBonus: 100, DamageBonus: 5, WeaponDice: "1d6"}
	res := combat.ResolveAttack(roller(1), strong, "Goblin", 2, rules)
	assert.Equal(t, combat.CritMiss, res.Outcome)
	assert.Zero(t, res.Damage)
}

func TestResolveAttack_NaturalTwentyDoublesDiceOnly(t *testing.T) {
	weak := combat.Profile{Name: "X", AttackBonus: -10, DamageBonus: 3, WeaponDice: "1d6"}
	res := combat.ResolveAttack(roller(20, 5, 2), weak, "Dragon", 40, rules)
	assert.Equal(t, combat.CritHit, res.Outcome)
	assert.Equal(t, 7, res.DiceTotal)
	assert.Equal(t, 10, res.Damage, "5 + 2 + 3, bonus added once")
	assert.Equal(t, "1d6: 5 + 2 (critical), bonus +3", res.Detail)
}

func TestResolveAttack_UnparseableDiceFallsBackToBonus(t *testing.T) {
	p := combat.Profile{Name: "X", AttackBonus: 5, DamageBonus: 4, WeaponDice: "2d6+3"}
	res := combat.ResolveAttack(roller(15), p, "Goblin", 10, rules)
	assert.Equal(t, combat.Hit, res.Outcome)
	assert.Equal(t, 4, res.Damage)

	p.DamageBonus = -3
	res = combat.ResolveAttack(roller(15), p, "Goblin", 10, rules)
	assert.Equal(t, 1, res.Damage)
}

func TestResolveAttack_DamageFloorIsOne(t *testing.T) {
	p := combat.Profile{Name: "X", AttackBonus: 0, DamageBonus: -5, WeaponDice: "1d4"}
	res := combat.ResolveAttack(roller(15, 1), p, "Goblin", 10, rules)
	assert.Equal(t, 1, res.Damage)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "critical hit", combat.CritHit.String())
	assert.Equal(t, "critical miss", combat.CritMiss.String())
	assert.Equal(t, "unknown", combat.Outcome(42).String())
	assert.True(t, combat.Hit.Landed())
	assert.False(t, combat.Miss.Landed())
}

func TestResolveAttack_Property_CritRules(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := combat.Profile{
			Name:        "X",
			AttackBonus: rapid.IntRange(-20, 40).Draw(rt, "atk"),
			DamageBonus: rapid.IntRange(-10, 10).Draw(rt, "dmg"),
			WeaponDice:  rapid.SampledFrom([]string{"1d4", "2d6", "1d12", "bad"}).Draw(rt, "dice"),
		}
		ac := rapid.IntRange(1, 40).Draw(rt, "ac")
		src := dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed"))
		res := combat.ResolveAttack(dice.NewLoggedRoller(src, zap.NewNop()), p, "T", ac, rules)

		switch res.AttackRoll {
		case 1:
			assert.Equal(rt, combat.CritMiss, res.Outcome)
		case 20:
			assert.Equal(rt, combat.CritHit, res.Outcome)
		}
		if res.Outcome.Landed() {
			assert.GreaterOrEqual(rt, res.Damage, 1)
		} else {
			assert.Zero(rt, res.Damage)
		}
	})
}
