// Package equip moves items between the party inventory and member slots,
// and decides when a newly looted item is worth equipping automatically.
package equip

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/idleparty/internal/game/dice"
	"github.com/cory-johannsen/idleparty/internal/game/party"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

var (
	// ErrNotEquippable is returned when a member cannot wear an item in a slot.
	ErrNotEquippable = errors.New("equip: item not equippable")
	// ErrSlotEmpty is returned when unequipping an empty slot.
	ErrSlotEmpty = errors.New("equip: slot is empty")
)

// weaponMargin is how much better, relative to the current score, a weapon of
// equal rarity must score to count as an upgrade.
const weaponMargin = 1.05

// healthMargin is how much more max health equal-rarity armor or a shield
// must grant before it counts as an upgrade on health alone.
const healthMargin = 5

// Result describes one completed equip.
type Result struct {
	Member *party.Member
	Item   *party.Item
	// Displaced is the item previously in the slot, if any.
	Displaced *party.Item
	// Destroyed is set when Displaced could not fit back into the inventory.
	Destroyed bool
}

// IsUpgrade reports whether candidate improves on what m wears in the
// candidate's slot. It does not check class compatibility.
func IsUpgrade(b *ruleset.Balance, p *party.Party, m *party.Member, candidate *party.Item) bool {
	current := m.Equipment.Get(candidate.Slot)
	switch {
	case current == nil:
		return true
	case candidate.Rarity > current.Rarity:
		return true
	case candidate.Rarity < current.Rarity:
		return false
	}

	switch candidate.Slot {
	case ruleset.SlotWeapon:
		eff := p.Stats(b, m)
		baseDamage := eff.DamageBonus - current.DamageBonus
		baseAttack := eff.AttackBonus - current.AttackBonus
		newScore := weaponScore(candidate, m.BaseWeaponDice, baseDamage, baseAttack)
		oldScore := weaponScore(current, m.BaseWeaponDice, baseDamage, baseAttack)
		return newScore > oldScore*weaponMargin
	case ruleset.SlotArmor, ruleset.SlotShield:
		return candidate.ArmorClass > current.ArmorClass ||
			candidate.MaxHealth > current.MaxHealth+healthMargin
	case ruleset.SlotAccessory:
		return candidate.MaxHealth > current.MaxHealth ||
			candidate.AttackBonus > current.AttackBonus ||
			candidate.DamageBonus > current.DamageBonus ||
			candidate.ArmorClass > current.ArmorClass
	}
	return false
}

// weaponScore is average dice + damage bonus + attack bonus / 2, measured on
// a shared base with the equipped weapon's own bonuses removed.
func weaponScore(it *party.Item, baseDice string, baseDamage, baseAttack int) float64 {
	expr := it.WeaponDice
	if expr == "" {
		expr = baseDice
	}
	avg := 0.0
	if e, ok := dice.ParseDiceString(expr); ok {
		avg = e.Average()
	}
	return avg + float64(it.DamageBonus+baseDamage) + float64(it.AttackBonus+baseAttack)/2
}

// AutoEquip offers the inventory item itemID to each unlocked and active
// member in roster order, equipping it on the first compatible member for
// whom it is an upgrade.
//
// Postcondition: at most one equip happens; ok is false and the party is
// unchanged when nobody takes the item.
func AutoEquip(b *ruleset.Balance, p *party.Party, itemID string) (Result, bool) {
	it, found := p.FindItem(itemID)
	if !found {
		return Result{}, false
	}
	for _, m := range p.Members {
		if !m.Fighting() || !it.Equippable(m.Class, it.Slot) {
			continue
		}
		if !IsUpgrade(b, p, m, it) {
			continue
		}
		res, err := swap(b, p, m, it.Slot, itemID)
		if err != nil {
			return Result{}, false
		}
		return res, true
	}
	return Result{}, false
}

// Equip moves inventory item itemID into slot on member memberID.
//
// Postcondition: on error the party is unchanged.
func Equip(b *ruleset.Balance, p *party.Party, memberID string, slot ruleset.Slot, itemID string) (Result, error) {
	m, err := p.Member(memberID)
	if err != nil {
		return Result{}, err
	}
	it, ok := p.FindItem(itemID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", party.ErrItemNotFound, itemID)
	}
	if !it.Equippable(m.Class, slot) {
		return Result{}, fmt.Errorf("%w: %s cannot use %s in %s slot", ErrNotEquippable, m.Name, it.Name, slot)
	}
	return swap(b, p, m, slot, itemID)
}

// swap performs the inventory-to-slot move and the health adjustment.
func swap(b *ruleset.Balance, p *party.Party, m *party.Member, slot ruleset.Slot, itemID string) (Result, error) {
	oldMax := p.Stats(b, m).MaxHealth
	it, err := p.TakeItem(itemID)
	if err != nil {
		return Result{}, err
	}
	res := Result{Member: m, Item: it}
	if prev := m.Equipment.Set(slot, it); prev != nil {
		res.Displaced = prev
		if err := p.AddItem(prev); err != nil {
			res.Destroyed = true
		}
	}
	adjustHealth(m, it, oldMax, p.Stats(b, m).MaxHealth)
	return res, nil
}

// adjustHealth clamps current health to newMax, or, when the new item grants
// health and max health rose, raises current health by the gain.
func adjustHealth(m *party.Member, it *party.Item, oldMax, newMax int) {
	switch {
	case m.CurrentHealth > newMax:
		m.CurrentHealth = newMax
	case it != nil && it.MaxHealth > 0 && newMax > oldMax:
		m.CurrentHealth = min(newMax, m.CurrentHealth+newMax-oldMax)
	}
}

// Unequip moves the item in slot on member memberID back to the inventory.
//
// Postcondition: on error the party is unchanged; current health is clamped
// to the new effective max.
func Unequip(b *ruleset.Balance, p *party.Party, memberID string, slot ruleset.Slot) (*party.Item, error) {
	m, err := p.Member(memberID)
	if err != nil {
		return nil, err
	}
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: unknown slot %q", ErrNotEquippable, slot)
	}
	it := m.Equipment.Get(slot)
	if it == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrSlotEmpty, m.Name, slot)
	}
	if p.InventoryFull() {
		return nil, party.ErrInventoryFull
	}
	m.Equipment.Set(slot, nil)
	if err := p.AddItem(it); err != nil {
		m.Equipment.Set(slot, it)
		return nil, err
	}
	adjustHealth(m, nil, 0, p.Stats(b, m).MaxHealth)
	return it, nil
}
