// Package loot rolls equipment drops: whether an enemy drops anything, the
// rarity of the drop, and the randomized item itself.
package loot

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/idleparty/internal/game/dice"
	"github.com/cory-johannsen/idleparty/internal/game/party"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

type effect int

const (
	effectDice effect = iota
	effectAttack
	effectDamage
	effectSpeed
	effectArmorClass
	effectHealth
)

type slotTable struct {
	names   []string
	effects []effect
}

var slotTables = map[ruleset.Slot]slotTable{
	ruleset.SlotWeapon: {
		names:   []string{"Sword", "Axe", "Mace", "Dagger", "Bow", "Staff"},
		effects: []effect{effectDice, effectAttack, effectDamage, effectSpeed},
	},
	ruleset.SlotArmor: {
		names:   []string{"Cloth Armor", "Leather Armor", "Chain Mail", "Plate Armor", "Robe"},
		effects: []effect{effectArmorClass, effectHealth, effectSpeed},
	},
	ruleset.SlotShield: {
		names:   []string{"Buckler", "Kite Shield", "Tower Shield"},
		effects: []effect{effectArmorClass, effectHealth},
	},
	ruleset.SlotAccessory: {
		names:   []string{"Ring", "Amulet", "Cloak", "Charm"},
		effects: []effect{effectHealth, effectAttack, effectDamage, effectArmorClass, effectSpeed},
	},
}

var allClasses = []ruleset.Class{ruleset.Warrior, ruleset.Archer, ruleset.Mage}

// classRestriction derives who may use an item from keywords in its base name.
func classRestriction(slot ruleset.Slot, baseName string) []ruleset.Class {
	name := strings.ToLower(baseName)
	switch slot {
	case ruleset.SlotShield:
		return []ruleset.Class{ruleset.Warrior}
	case ruleset.SlotWeapon:
		switch {
		case strings.Contains(name, "dagger"):
			return allClasses
		case strings.Contains(name, "bow"):
			return []ruleset.Class{ruleset.Archer}
		case strings.Contains(name, "staff"):
			return []ruleset.Class{ruleset.Mage}
		case strings.Contains(name, "sword"), strings.Contains(name, "axe"), strings.Contains(name, "mace"):
			return []ruleset.Class{ruleset.Warrior}
		}
	case ruleset.SlotArmor:
		switch {
		case strings.Contains(name, "plate"):
			return []ruleset.Class{ruleset.Warrior}
		case strings.Contains(name, "chain"):
			return []ruleset.Class{ruleset.Warrior, ruleset.Archer}
		case strings.Contains(name, "robe"):
			return []ruleset.Class{ruleset.Mage}
		case strings.Contains(name, "leather"), strings.Contains(name, "cloth"):
			return allClasses
		}
	}
	return nil
}

// Generator rolls loot from a balance and a randomness source.
type Generator struct {
	balance *ruleset.Balance
	src     dice.Source
	newID   func() string
}

// NewGenerator returns a Generator drawing from src. Item ids are fresh UUIDs.
//
// Precondition: b and src must be non-nil.
func NewGenerator(b *ruleset.Balance, src dice.Source) *Generator {
	return &Generator{balance: b, src: src, newID: uuid.NewString}
}

// Drop rolls whether a defeated enemy drops an item and, if so, generates it.
// Bosses multiply the drop chance and roll an elevated rarity band.
//
// Postcondition: returns nil when nothing drops.
func (g *Generator) Drop(stage int, boss bool) *party.Item {
	lb := g.balance.Loot
	chance := lb.DropChance
	if boss {
		chance *= lb.BossDropMultiplier
	}
	if g.src.Float64() >= chance {
		return nil
	}
	if !boss {
		return g.Item(stage)
	}
	roll := g.src.Float64()
	rarity := ruleset.Uncommon
	switch {
	case roll < lb.BossEpicChance:
		rarity = ruleset.Epic
	case roll < lb.BossRareChance:
		rarity = ruleset.Rare
	}
	return g.ItemOfRarity(stage, rarity)
}

// Item generates an item whose rarity is drawn from the stage-biased weights.
func (g *Generator) Item(stage int) *party.Item {
	return g.ItemOfRarity(stage, g.pickRarity(stage))
}

// pickRarity draws a rarity from the configured weights, with
// floor(stage/threshold) times the stage bonus weight added to each
// non-Common rarity.
func (g *Generator) pickRarity(stage int) ruleset.Rarity {
	lb := g.balance.Loot
	bonus := float64(stage / lb.StageBonusThreshold)
	weights := make([]float64, len(ruleset.Rarities))
	total := 0.0
	for i, r := range ruleset.Rarities {
		weights[i] = g.balance.Tier(r).Weight + bonus*lb.StageBonusWeights[r]
		total += weights[i]
	}
	pick := g.src.Float64() * total
	for i, r := range ruleset.Rarities {
		if pick < weights[i] {
			return r
		}
		pick -= weights[i]
	}
	return ruleset.Common
}

// ItemOfRarity generates a random item of the given rarity: a random slot and
// base name, and between one and the tier's max effects distinct modifiers
// drawn from the slot's allowed set.
//
// Postcondition: the item has a fresh unique id.
func (g *Generator) ItemOfRarity(stage int, rarity ruleset.Rarity) *party.Item {
	tier := g.balance.Tier(rarity)
	slot := ruleset.Slots[g.src.Intn(len(ruleset.Slots))]
	table := slotTables[slot]
	baseName := table.names[g.src.Intn(len(table.names))]

	it := &party.Item{
		ID:      g.newID(),
		Name:    g.itemName(tier, baseName),
		Slot:    slot,
		Rarity:  rarity,
		Classes: classRestriction(slot, baseName),
	}

	count := min(len(table.effects), g.src.Intn(max(1, tier.MaxEffects))+1)
	available := append([]effect(nil), table.effects...)
	for range count {
		i := g.src.Intn(len(available))
		eff := available[i]
		available = append(available[:i], available[i+1:]...)
		g.applyEffect(it, eff, tier, baseName)
	}
	it.Description = describe(it)
	return it
}

func (g *Generator) itemName(tier ruleset.RarityTier, baseName string) string {
	parts := []string{tier.Prefix}
	if adj := g.balance.Loot.Adjectives; len(adj) > 0 {
		parts = append(parts, adj[g.src.Intn(len(adj))])
	}
	parts = append(parts, baseName)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (g *Generator) applyEffect(it *party.Item, eff effect, tier ruleset.RarityTier, baseName string) {
	m := tier.Multiplier
	r := g.src.Float64()
	switch eff {
	case effectDice:
		if len(tier.Dice) > 0 {
			it.WeaponDice = tier.Dice[g.src.Intn(len(tier.Dice))]
		}
	case effectAttack:
		it.AttackBonus = nonNegative(math.Floor(r*(2+m) + (m - 1)))
	case effectDamage:
		it.DamageBonus = nonNegative(math.Floor(r*(3+m*1.5) + (m - 1)))
	case effectArmorClass:
		scale := 1.0
		switch it.Slot {
		case ruleset.SlotArmor:
			scale = 3
		case ruleset.SlotShield:
			scale = 2
		}
		it.ArmorClass = nonNegative(math.Floor(r*scale*m + 1))
	case effectHealth:
		it.MaxHealth = nonNegative(math.Floor((r*10 + 5) * m))
	case effectSpeed:
		name := strings.ToLower(baseName)
		switch {
		case it.Slot == ruleset.SlotWeapon:
			it.AttackSpeed = round3(-(r * 0.05 * m))
		case it.Slot == ruleset.SlotArmor && (strings.Contains(name, "plate") || strings.Contains(name, "chain")):
			it.AttackSpeed = round3(r * 0.03 * m)
		}
	}
}

func describe(it *party.Item) string {
	desc := it.Modifiers.Describe()
	if desc == "" {
		desc = "No special effects"
	}
	if it.Classes != nil {
		names := make([]string, len(it.Classes))
		for i, c := range it.Classes {
			names[i] = string(c)
		}
		desc += fmt.Sprintf(" (Requires: %s)", strings.Join(names, "/"))
	}
	return desc
}

// SellPrice returns the gold an item fetches at stage: the rarity's base
// price, scaled by max(1, sqrt(stage) * factor) and a random jitter.
//
// Postcondition: result >= 0.
func (g *Generator) SellPrice(it *party.Item, stage int) int {
	lb := g.balance.Loot
	base := float64(g.balance.Tier(it.Rarity).SellPrice)
	stageMult := math.Max(1, math.Sqrt(float64(max(1, stage)))*lb.SellStageFactor)
	jitter := 1 - lb.SellJitter + g.src.Float64()*2*lb.SellJitter
	return max(0, int(math.Floor(base*stageMult*jitter)))
}

func nonNegative(v float64) int {
	return max(0, int(math.Round(v)))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
