// Package ruleset defines the static game rules: enumerations, balance
// tunables, and the member roster with its starter gear.
package ruleset

import (
	"fmt"
	"strings"
)

// Class identifies a party member's combat role.
type Class string

const (
	Warrior Class = "Warrior"
	Archer  Class = "Archer"
	Mage    Class = "Mage"
)

// Classes lists every playable class in roster order.
var Classes = []Class{Warrior, Archer, Mage}

// Slot names one of the four equipment positions on a member.
type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotArmor     Slot = "armor"
	SlotShield    Slot = "shield"
	SlotAccessory Slot = "accessory"
)

// Slots lists every equipment slot in display order.
var Slots = []Slot{SlotWeapon, SlotArmor, SlotShield, SlotAccessory}

// Valid reports whether s is one of the four known slots.
func (s Slot) Valid() bool {
	switch s {
	case SlotWeapon, SlotArmor, SlotShield, SlotAccessory:
		return true
	}
	return false
}

// Rarity is the ordered quality tier of an item.
//
// Invariant: Common < Uncommon < Rare < Epic.
type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
)

// Rarities lists every rarity from lowest to highest.
var Rarities = []Rarity{Common, Uncommon, Rare, Epic}

var rarityNames = [...]string{"Common", "Uncommon", "Rare", "Epic"}

// String returns the rarity's display name.
func (r Rarity) String() string {
	if r < Common || r > Epic {
		return fmt.Sprintf("Rarity(%d)", int(r))
	}
	return rarityNames[r]
}

// MarshalText encodes the rarity by name so snapshots and YAML stay readable.
func (r Rarity) MarshalText() ([]byte, error) {
	if r < Common || r > Epic {
		return nil, fmt.Errorf("ruleset: invalid rarity %d", int(r))
	}
	return []byte(rarityNames[r]), nil
}

// UnmarshalText decodes a rarity name case-insensitively.
func (r *Rarity) UnmarshalText(text []byte) error {
	for i, name := range rarityNames {
		if strings.EqualFold(name, string(text)) {
			*r = Rarity(i)
			return nil
		}
	}
	return fmt.Errorf("ruleset: unknown rarity %q", string(text))
}

// UpgradeType names one of the four permanent party-wide upgrades.
type UpgradeType string

const (
	UpgradeAttack      UpgradeType = "attack"
	UpgradeDefense     UpgradeType = "defense"
	UpgradeMaxHealth   UpgradeType = "maxHealth"
	UpgradeAttackSpeed UpgradeType = "attackSpeed"
)

// UpgradeTypes lists every upgrade type in shop order.
var UpgradeTypes = []UpgradeType{UpgradeAttack, UpgradeDefense, UpgradeMaxHealth, UpgradeAttackSpeed}

// Modifiers is the sparse set of stat changes an item grants.
// A zero field means the modifier is absent.
type Modifiers struct {
	MaxHealth   int     `json:"maxHealth,omitempty" yaml:"max_health,omitempty"`
	ArmorClass  int     `json:"armorClass,omitempty" yaml:"armor_class,omitempty"`
	AttackBonus int     `json:"attackBonus,omitempty" yaml:"attack_bonus,omitempty"`
	DamageBonus int     `json:"damageBonus,omitempty" yaml:"damage_bonus,omitempty"`
	AttackSpeed float64 `json:"attackSpeed,omitempty" yaml:"attack_speed,omitempty"`
	WeaponDice  string  `json:"weaponDice,omitempty" yaml:"weapon_dice,omitempty"`
}

// IsZero reports whether no modifier is present.
func (m Modifiers) IsZero() bool {
	return m == Modifiers{}
}

// Describe renders the present modifiers as a comma-separated summary,
// e.g. "+2 AC, +10 HP".
func (m Modifiers) Describe() string {
	var parts []string
	if m.WeaponDice != "" {
		parts = append(parts, "Damage "+m.WeaponDice)
	}
	if m.AttackBonus != 0 {
		parts = append(parts, fmt.Sprintf("%+d Attack", m.AttackBonus))
	}
	if m.DamageBonus != 0 {
		parts = append(parts, fmt.Sprintf("%+d Damage", m.DamageBonus))
	}
	if m.ArmorClass != 0 {
		parts = append(parts, fmt.Sprintf("%+d AC", m.ArmorClass))
	}
	if m.MaxHealth != 0 {
		parts = append(parts, fmt.Sprintf("%+d HP", m.MaxHealth))
	}
	if m.AttackSpeed != 0 {
		parts = append(parts, fmt.Sprintf("%+.3f Speed", m.AttackSpeed))
	}
	return strings.Join(parts, ", ")
}
