// Package party holds the party aggregate: members, equipment items, the
// shared inventory, permanent upgrades, and the Stat Composer that derives
// effective combat numbers from them.
package party

import (
	"slices"
	"strings"

	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

// Item is one piece of equipment.
//
// Invariant: an Item is owned by exactly one member slot or the party
// inventory at any time.
type Item struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Slot   ruleset.Slot   `json:"slot"`
	Rarity ruleset.Rarity `json:"rarity"`
	// Classes restricts who may equip the item; nil admits every class.
	Classes []ruleset.Class `json:"classes,omitempty"`
	ruleset.Modifiers
	Description string `json:"description,omitempty"`
}

// NewItem builds an Item from a static template.
//
// Postcondition: the returned Item shares no slices with t.
func NewItem(t ruleset.ItemTemplate) *Item {
	return &Item{
		ID:          t.ID,
		Name:        t.Name,
		Slot:        t.Slot,
		Rarity:      t.Rarity,
		Classes:     slices.Clone(t.Classes),
		Modifiers:   t.Modifiers,
		Description: t.Description,
	}
}

// AllowsClass reports whether c satisfies the item's class restriction.
func (it *Item) AllowsClass(c ruleset.Class) bool {
	return it.Classes == nil || slices.Contains(it.Classes, c)
}

// Equippable reports whether the item can go into slot on a member of class c.
// Shields are never usable by Archers or Mages, and plate armor never by Mages,
// regardless of the item's own restriction.
func (it *Item) Equippable(c ruleset.Class, slot ruleset.Slot) bool {
	if it.Slot != slot || !it.AllowsClass(c) {
		return false
	}
	if slot == ruleset.SlotShield && (c == ruleset.Mage || c == ruleset.Archer) {
		return false
	}
	if slot == ruleset.SlotArmor && c == ruleset.Mage && strings.Contains(strings.ToLower(it.Name), "plate") {
		return false
	}
	return true
}

// Clone returns a deep copy of it. A nil receiver yields nil.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	c := *it
	c.Classes = slices.Clone(it.Classes)
	return &c
}

// Equipment maps the four slots to the items a member wears.
type Equipment struct {
	Weapon    *Item `json:"weapon,omitempty"`
	Armor     *Item `json:"armor,omitempty"`
	Shield    *Item `json:"shield,omitempty"`
	Accessory *Item `json:"accessory,omitempty"`
}

// Get returns the item in slot, or nil.
func (e *Equipment) Get(slot ruleset.Slot) *Item {
	switch slot {
	case ruleset.SlotWeapon:
		return e.Weapon
	case ruleset.SlotArmor:
		return e.Armor
	case ruleset.SlotShield:
		return e.Shield
	case ruleset.SlotAccessory:
		return e.Accessory
	}
	return nil
}

// Set places it into slot and returns whatever was there before.
//
// Precondition: slot must be valid.
func (e *Equipment) Set(slot ruleset.Slot, it *Item) *Item {
	var prev *Item
	switch slot {
	case ruleset.SlotWeapon:
		prev, e.Weapon = e.Weapon, it
	case ruleset.SlotArmor:
		prev, e.Armor = e.Armor, it
	case ruleset.SlotShield:
		prev, e.Shield = e.Shield, it
	case ruleset.SlotAccessory:
		prev, e.Accessory = e.Accessory, it
	default:
		panic("party: Equipment.Set called with unknown slot " + string(slot))
	}
	return prev
}

// Items returns the equipped items in slot order, skipping empty slots.
func (e *Equipment) Items() []*Item {
	var out []*Item
	for _, s := range ruleset.Slots {
		if it := e.Get(s); it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Clone deep-copies every equipped item.
func (e Equipment) Clone() Equipment {
	return Equipment{
		Weapon:    e.Weapon.Clone(),
		Armor:     e.Armor.Clone(),
		Shield:    e.Shield.Clone(),
		Accessory: e.Accessory.Clone(),
	}
}
