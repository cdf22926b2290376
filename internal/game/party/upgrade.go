package party

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

var (
	// ErrInsufficientGold is returned when a purchase costs more than the party holds.
	ErrInsufficientGold = errors.New("party: insufficient gold")
	// ErrMaxLevel is returned when an upgrade is already at its cap.
	ErrMaxLevel = errors.New("party: upgrade at max level")
	// ErrUnknownUpgrade is returned for an upgrade type the balance does not define.
	ErrUnknownUpgrade = errors.New("party: unknown upgrade")
)

// UpgradeCost returns the gold price of the next level of t.
func (p *Party) UpgradeCost(b *ruleset.Balance, t ruleset.UpgradeType) (int, error) {
	u, ok := b.Upgrade(t)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUpgrade, t)
	}
	return u.Cost(p.Upgrades.Level(t)), nil
}

// BuyUpgrade spends gold on the next level of t. Buying max health raises
// every unlocked member's current health by the max-health gain, capped at
// the new maximum.
//
// Precondition: b must be non-nil.
// Postcondition: on error the party is unchanged; on success Gold >= 0 and
// the upgrade level increased by exactly one.
func (p *Party) BuyUpgrade(b *ruleset.Balance, t ruleset.UpgradeType) (int, error) {
	u, ok := b.Upgrade(t)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUpgrade, t)
	}
	level := p.Upgrades.Level(t)
	if u.Capped(level) {
		return 0, fmt.Errorf("%w: %s is level %d", ErrMaxLevel, u.Name, level)
	}
	cost := u.Cost(level)
	if p.Gold < cost {
		return 0, fmt.Errorf("%w: %s costs %d, have %d", ErrInsufficientGold, u.Name, cost, p.Gold)
	}

	before := make(map[string]int, len(p.Members))
	if t == ruleset.UpgradeMaxHealth {
		for _, m := range p.Members {
			before[m.ID] = p.Stats(b, m).MaxHealth
		}
	}

	p.Gold -= cost
	p.Upgrades.Increment(t)

	if t == ruleset.UpgradeMaxHealth {
		for _, m := range p.Members {
			if !m.Unlocked {
				continue
			}
			newMax := p.Stats(b, m).MaxHealth
			m.CurrentHealth = min(m.CurrentHealth+newMax-before[m.ID], newMax)
		}
	}
	return cost, nil
}

// CheapestUpgrade returns the affordable, uncapped upgrade with the lowest
// price. Ties go to the earlier entry in ruleset.UpgradeTypes.
//
// Postcondition: ok is false when nothing is affordable.
func (p *Party) CheapestUpgrade(b *ruleset.Balance) (ruleset.UpgradeType, bool) {
	var (
		best     ruleset.UpgradeType
		bestCost = -1
	)
	for _, t := range ruleset.UpgradeTypes {
		u, ok := b.Upgrade(t)
		if !ok || u.Capped(p.Upgrades.Level(t)) {
			continue
		}
		cost := u.Cost(p.Upgrades.Level(t))
		if cost <= p.Gold && (bestCost < 0 || cost < bestCost) {
			best, bestCost = t, cost
		}
	}
	return best, bestCost >= 0
}
