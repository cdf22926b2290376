package ruleset

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/idleparty/internal/game/dice"
)

// ItemTemplate is a static item definition, used for starter gear.
type ItemTemplate struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Slot        Slot      `yaml:"slot"`
	Rarity      Rarity    `yaml:"rarity"`
	Classes     []Class   `yaml:"classes,omitempty"`
	Modifiers   Modifiers `yaml:",inline"`
	Description string    `yaml:"description"`
}

// MemberTemplate is the static definition a party member is created from.
//
// Precondition: ID, Name and Class must be non-empty after loading.
type MemberTemplate struct {
	ID              string         `yaml:"id"`
	Name            string         `yaml:"name"`
	Class           Class          `yaml:"class"`
	BaseMaxHealth   int            `yaml:"base_max_health"`
	BaseAttack      int            `yaml:"base_attack"`
	BaseDefense     int            `yaml:"base_defense"`
	BaseAttackSpeed float64        `yaml:"base_attack_speed"`
	BaseWeaponDice  string         `yaml:"base_weapon_dice"`
	XPToNextLevel   int            `yaml:"xp_to_next_level"`
	UnlockStage     int            `yaml:"unlock_stage"`
	Starter         []ItemTemplate `yaml:"starter"`
}

// Roster is the ordered list of members a fresh party is built from.
type Roster struct {
	Members []MemberTemplate `yaml:"members"`
}

// Find returns the template with the given id.
func (r *Roster) Find(id string) (MemberTemplate, bool) {
	for _, m := range r.Members {
		if m.ID == id {
			return m, true
		}
	}
	return MemberTemplate{}, false
}

// DefaultRoster returns the stock three-member roster with starter gear.
func DefaultRoster() *Roster {
	return &Roster{Members: []MemberTemplate{
		{
			ID: "member-1-warrior", Name: "Brutus the Bold", Class: Warrior,
			BaseMaxHealth: 120, BaseAttack: 14, BaseDefense: 8, BaseAttackSpeed: 0.8,
			BaseWeaponDice: "1d4", XPToNextLevel: 80, UnlockStage: 1,
			Starter: []ItemTemplate{
				{ID: "starter-sword", Name: "Training Sword", Slot: SlotWeapon, Classes: []Class{Warrior},
					Modifiers: Modifiers{WeaponDice: "1d6"}, Description: "A plain sword used for drills."},
				{ID: "starter-leather-armor", Name: "Leather Vest", Slot: SlotArmor, Classes: []Class{Warrior, Archer},
					Modifiers: Modifiers{ArmorClass: 1}, Description: "Basic armor stitched from simple leather."},
				{ID: "starter-buckler", Name: "Wooden Buckler", Slot: SlotShield, Classes: []Class{Warrior},
					Modifiers: Modifiers{ArmorClass: 1}, Description: "A small, light wooden shield."},
			},
		},
		{
			ID: "member-2-archer", Name: "Elara Swiftshot", Class: Archer,
			BaseMaxHealth: 80, BaseAttack: 12, BaseDefense: 5, BaseAttackSpeed: 1.2,
			BaseWeaponDice: "1d3", XPToNextLevel: 100, UnlockStage: 3,
			Starter: []ItemTemplate{
				{ID: "starter-shortbow", Name: "Hunting Shortbow", Slot: SlotWeapon, Classes: []Class{Archer},
					Modifiers: Modifiers{WeaponDice: "1d6"}, Description: "A simple bow for hunting game."},
				{ID: "starter-padded-armor", Name: "Padded Armor", Slot: SlotArmor, Classes: []Class{Warrior, Archer, Mage},
					Modifiers: Modifiers{ArmorClass: 1}, Description: "Light armor of quilted cloth layers."},
			},
		},
		{
			ID: "member-3-mage", Name: "Marius the Sage", Class: Mage,
			BaseMaxHealth: 70, BaseAttack: 10, BaseDefense: 3, BaseAttackSpeed: 1.0,
			BaseWeaponDice: "1d2", XPToNextLevel: 120, UnlockStage: 5,
			Starter: []ItemTemplate{
				{ID: "starter-staff", Name: "Apprentice Staff", Slot: SlotWeapon, Classes: []Class{Mage},
					Modifiers: Modifiers{WeaponDice: "1d4", DamageBonus: 1}, Description: "The staff of a novice spellcaster."},
				{ID: "starter-robes", Name: "Plain Robes", Slot: SlotArmor, Classes: []Class{Mage},
					Description: "Ordinary robes with no special power."},
			},
		},
	}}
}

// LoadRoster reads a roster definition from a YAML file.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns a valid Roster or a non-nil error.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file %s: %w", path, err)
	}
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing roster file %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks that every template is complete and ids are unique.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (r *Roster) Validate() error {
	var errs []string
	if len(r.Members) == 0 {
		errs = append(errs, "roster must define at least one member")
	}
	seen := make(map[string]bool)
	for i, m := range r.Members {
		if m.ID == "" || m.Name == "" {
			errs = append(errs, fmt.Sprintf("members[%d] needs an id and a name", i))
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Sprintf("members[%d] duplicates id %q", i, m.ID))
		}
		seen[m.ID] = true
		switch m.Class {
		case Warrior, Archer, Mage:
		default:
			errs = append(errs, fmt.Sprintf("members[%d].class %q is unknown", i, m.Class))
		}
		if m.BaseMaxHealth < 1 || m.BaseAttackSpeed <= 0 || m.XPToNextLevel < 1 {
			errs = append(errs, fmt.Sprintf("members[%d] needs positive health, attack speed and xp threshold", i))
		}
		if _, ok := dice.ParseDiceString(m.BaseWeaponDice); !ok {
			errs = append(errs, fmt.Sprintf("members[%d].base_weapon_dice %q is not NdM", i, m.BaseWeaponDice))
		}
		for _, it := range m.Starter {
			if !it.Slot.Valid() {
				errs = append(errs, fmt.Sprintf("members[%d] starter %q has unknown slot %q", i, it.ID, it.Slot))
			}
		}
	}
	if len(errs) > 0 {
		return errors.New("roster validation failed: " + strings.Join(errs, "; "))
	}
	return nil
}
