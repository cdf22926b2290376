// Package enemy generates regular and boss opponents scaled by stage and
// New Game Plus level.
package enemy

import (
	"fmt"
	"math"
	"time"

	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

// Enemy is a disposable opponent generated per encounter.
type Enemy struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MaxHealth     int    `json:"maxHealth"`
	CurrentHealth int    `json:"currentHealth"`
	Attack        int    `json:"attack"`
	Defense       int    `json:"defense"`
	ArmorClass    int    `json:"armorClass"`
	AttackBonus   int    `json:"attackBonus"`
	DamageBonus   int    `json:"damageBonus"`
	WeaponDice    string `json:"weaponDice"`
	Gold          int    `json:"gold"`
	XP            int    `json:"xp"`
	IsBoss        bool   `json:"isBoss"`
	Stage         int    `json:"stage"`
	NGPlus        int    `json:"ngPlus"`
}

// Alive reports whether the enemy still has health left.
func (e *Enemy) Alive() bool {
	return e != nil && e.CurrentHealth > 0
}

// Clone returns a copy of e. A nil receiver yields nil.
func (e *Enemy) Clone() *Enemy {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// Regular generates the regular enemy for stage at ngPlus.
//
// Precondition: stage >= 1; ngPlus >= 0.
// Postcondition: MaxHealth, Gold and XP are at least the balance base values;
// CurrentHealth == MaxHealth.
func Regular(b *ruleset.Balance, stage, ngPlus int, now time.Time) *Enemy {
	stage = max(1, stage)
	s := scaleStage(b.Enemy, stage)
	return build(b, stage, ngPlus, s, false, now)
}

// Boss generates the stage boss for stage at ngPlus. Boss multipliers apply
// to the stage-scaled values before NG+ scaling.
//
// Precondition: stage >= 1; ngPlus >= 0.
// Postcondition: IsBoss is true; MaxHealth, Gold and XP are at least the
// balance base values.
func Boss(b *ruleset.Balance, stage, ngPlus int, now time.Time) *Enemy {
	stage = max(1, stage)
	s := scaleStage(b.Enemy, stage)
	m := b.Enemy.Boss
	s = scaled{
		health:  floor(float64(s.health) * m.Health),
		attack:  floor(float64(s.attack) * m.Attack),
		defense: floor(float64(s.defense) * m.Defense),
		gold:    floor(float64(s.gold) * m.Gold),
		xp:      floor(float64(s.xp) * m.XP),
	}
	return build(b, stage, ngPlus, s, true, now)
}

// Spawn returns Boss when boss is set, otherwise Regular.
func Spawn(b *ruleset.Balance, stage, ngPlus int, boss bool, now time.Time) *Enemy {
	if boss {
		return Boss(b, stage, ngPlus, now)
	}
	return Regular(b, stage, ngPlus, now)
}

type scaled struct {
	health, attack, defense, gold, xp int
}

func scaleStage(e ruleset.EnemyBalance, stage int) scaled {
	steps := float64(stage - 1)
	return scaled{
		health:  floor(float64(e.BaseHealth) * math.Pow(e.HealthScale, steps)),
		attack:  floor(float64(e.BaseAttack) * math.Pow(e.StatScale, steps)),
		defense: floor(float64(e.BaseDefense) * math.Pow(e.StatScale, steps)),
		gold:    floor(float64(e.BaseGold) * math.Pow(e.RewardScale, steps)),
		xp:      floor(float64(e.BaseXP) * math.Pow(e.RewardScale, steps)),
	}
}

// ngPlusScale applies floor(v * (1 + level*rate)); level zero is a no-op.
func ngPlusScale(v, level int, rate float64) int {
	if level == 0 {
		return v
	}
	return floor(float64(v) * (1 + float64(level)*rate))
}

func build(b *ruleset.Balance, stage, ngPlus int, s scaled, boss bool, now time.Time) *Enemy {
	eb := b.Enemy
	r := eb.NGPlus
	health := ngPlusScale(s.health, ngPlus, r.Health)
	attack := ngPlusScale(s.attack, ngPlus, r.Stats)
	defense := ngPlusScale(s.defense, ngPlus, r.Stats)
	gold := ngPlusScale(s.gold, ngPlus, r.Rewards)
	xp := ngPlusScale(s.xp, ngPlus, r.Rewards)

	bossBonus := 0
	if boss {
		bossBonus = 1
	}
	e := &Enemy{
		MaxHealth:   max(eb.BaseHealth, health),
		Attack:      attack,
		Defense:     defense,
		ArmorClass:  b.BaseAC + floorDiv(defense, 3) + floorDiv(stage, 5),
		AttackBonus: floorDiv(attack, 4) + floorDiv(stage, 4) + bossBonus,
		DamageBonus: max(0, floorDiv(attack, 5)+floorDiv(stage, 5)+bossBonus),
		WeaponDice:  weaponDice(stage, boss),
		Gold:        max(eb.BaseGold, gold),
		XP:          max(eb.BaseXP, xp),
		IsBoss:      boss,
		Stage:       stage,
		NGPlus:      ngPlus,
	}
	e.CurrentHealth = e.MaxHealth

	base := eb.Names[(stage-1)%len(eb.Names)]
	annotation := fmt.Sprintf("Lv %d", stage)
	if ngPlus > 0 {
		annotation += fmt.Sprintf(" NG+%d", ngPlus)
	}
	kind := "enemy"
	if boss {
		kind = "boss"
		e.Name = fmt.Sprintf("%s%s (%s Boss)", eb.BossPrefix, base, annotation)
	} else {
		e.Name = fmt.Sprintf("%s (%s)", base, annotation)
	}
	e.ID = fmt.Sprintf("%s-%d-%d-%d", kind, stage, ngPlus, now.UnixMilli())
	return e
}

func weaponDice(stage int, boss bool) string {
	if boss {
		switch {
		case stage > 15:
			return "2d6"
		case stage > 7:
			return "1d8"
		default:
			return "1d6"
		}
	}
	switch {
	case stage > 20:
		return "1d8"
	case stage > 10:
		return "1d6"
	default:
		return "1d4"
	}
}

func floor(v float64) int {
	return int(math.Floor(v))
}

func floorDiv(a, b int) int {
	return floor(float64(a) / float64(b))
}
