package party

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

var (
	// ErrInventoryFull is returned when an item cannot be stored.
	ErrInventoryFull = errors.New("party: inventory full")
	// ErrItemNotFound is returned when an item id is not in the inventory.
	ErrItemNotFound = errors.New("party: item not found")
	// ErrMemberNotFound is returned when a member id is unknown.
	ErrMemberNotFound = errors.New("party: member not found")
)

// Upgrades holds the four permanent party-wide upgrade levels.
type Upgrades struct {
	Attack      int `json:"attack"`
	Defense     int `json:"defense"`
	MaxHealth   int `json:"maxHealth"`
	AttackSpeed int `json:"attackSpeed"`
}

// Level returns the current level of upgrade t.
func (u Upgrades) Level(t ruleset.UpgradeType) int {
	switch t {
	case ruleset.UpgradeAttack:
		return u.Attack
	case ruleset.UpgradeDefense:
		return u.Defense
	case ruleset.UpgradeMaxHealth:
		return u.MaxHealth
	case ruleset.UpgradeAttackSpeed:
		return u.AttackSpeed
	}
	return 0
}

// Increment raises upgrade t by one level.
func (u *Upgrades) Increment(t ruleset.UpgradeType) {
	switch t {
	case ruleset.UpgradeAttack:
		u.Attack++
	case ruleset.UpgradeDefense:
		u.Defense++
	case ruleset.UpgradeMaxHealth:
		u.MaxHealth++
	case ruleset.UpgradeAttackSpeed:
		u.AttackSpeed++
	}
}

// Party is the aggregate root of player state.
//
// Invariant: len(Inventory) <= MaxInventory; Gold >= 0.
type Party struct {
	Members      []*Member `json:"members"`
	Gold         int       `json:"gold"`
	Upgrades     Upgrades  `json:"upgrades"`
	Inventory    []*Item   `json:"inventory"`
	MaxInventory int       `json:"maxInventory"`
	NGPlusLevel  int       `json:"ngPlusLevel"`
}

// New builds a fresh party from roster using balance b.
// Each member starts at the max health its starter gear grants.
//
// Precondition: roster and b must be valid.
// Postcondition: Gold == b.StartingGold; Inventory is empty.
func New(roster *ruleset.Roster, b *ruleset.Balance) *Party {
	p := &Party{
		Gold:         b.StartingGold,
		Inventory:    []*Item{},
		MaxInventory: b.MaxInventory,
	}
	for _, t := range roster.Members {
		m := NewMember(t)
		m.CurrentHealth = EffectiveStats(b, p.Upgrades, m, true).MaxHealth
		p.Members = append(p.Members, m)
	}
	return p
}

// Member returns the member with the given id.
func (p *Party) Member(id string) (*Member, error) {
	for _, m := range p.Members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMemberNotFound, id)
}

// Fighting returns the unlocked and active members in roster order.
func (p *Party) Fighting() []*Member {
	var out []*Member
	for _, m := range p.Members {
		if m.Fighting() {
			out = append(out, m)
		}
	}
	return out
}

// AnyFighting reports whether at least one member can fight.
func (p *Party) AnyFighting() bool {
	return slices.ContainsFunc(p.Members, (*Member).Fighting)
}

// InventoryFull reports whether the inventory is at capacity.
func (p *Party) InventoryFull() bool {
	return len(p.Inventory) >= p.MaxInventory
}

// AddItem appends it to the inventory.
//
// Postcondition: returns ErrInventoryFull and leaves the inventory unchanged
// when it is already at capacity.
func (p *Party) AddItem(it *Item) error {
	if p.InventoryFull() {
		return ErrInventoryFull
	}
	p.Inventory = append(p.Inventory, it)
	return nil
}

// FindItem returns the inventory item with the given id.
func (p *Party) FindItem(id string) (*Item, bool) {
	i := slices.IndexFunc(p.Inventory, func(it *Item) bool { return it.ID == id })
	if i < 0 {
		return nil, false
	}
	return p.Inventory[i], true
}

// TakeItem removes and returns the inventory item with the given id.
func (p *Party) TakeItem(id string) (*Item, error) {
	i := slices.IndexFunc(p.Inventory, func(it *Item) bool { return it.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	it := p.Inventory[i]
	p.Inventory = slices.Delete(p.Inventory, i, i+1)
	return it, nil
}

// Clone returns a deep copy of p.
func (p *Party) Clone() *Party {
	c := *p
	c.Members = make([]*Member, len(p.Members))
	for i, m := range p.Members {
		c.Members[i] = m.Clone()
	}
	c.Inventory = make([]*Item, len(p.Inventory))
	for i, it := range p.Inventory {
		c.Inventory[i] = it.Clone()
	}
	return &c
}
