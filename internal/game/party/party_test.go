package party_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idleparty/internal/game/party"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

func newParty(t *testing.T) (*party.Party, *ruleset.Balance) {
	t.Helper()
	b := ruleset.Default()
	return party.New(ruleset.DefaultRoster(), b), b
}

func TestNew_FreshParty(t *testing.T) {
	p, b := newParty(t)
	require.Len(t, p.Members, 3)
	assert.Equal(t, 100, p.Gold)
	assert.Empty(t, p.Inventory)
	assert.Equal(t, b.MaxInventory, p.MaxInventory)

	w := p.Members[0]
	assert.True(t, w.Unlocked)
	assert.True(t, w.Active)
	assert.Equal(t, 120, w.CurrentHealth)
	require.NotNil(t, w.Equipment.Weapon)
	assert.Equal(t, "starter-sword", w.Equipment.Weapon.ID)

	archer := p.Members[1]
	assert.False(t, archer.Unlocked)
	assert.False(t, archer.Active)
	assert.Nil(t, archer.Equipment.Shield)
	assert.Len(t, p.Fighting(), 1)
}

func TestEffectiveStats_Warrior(t *testing.T) {
	p, b := newParty(t)
	s := p.Stats(b, p.Members[0])
	assert.Equal(t, 120, s.MaxHealth)
	assert.Equal(t, 14, s.ArmorClass, "10 + floor(8/3) + leather 1 + buckler 1")
	assert.Equal(t, 2, s.AttackBonus)
	assert.Equal(t, 2, s.DamageBonus)
	assert.Equal(t, "1d6", s.WeaponDice)
	assert.InDelta(t, 0.8, s.AttackSpeed, 1e-9)
	assert.Equal(t, 1250*time.Millisecond, s.AttackCooldown())
}

func TestEffectiveStats_UpgradesApply(t *testing.T) {
	p, b := newParty(t)
	p.Upgrades = party.Upgrades{Attack: 5, Defense: 4, MaxHealth: 3, AttackSpeed: 10}
	s := p.Stats(b, p.Members[0])
	assert.Equal(t, 150, s.MaxHealth)
	assert.Equal(t, 15, s.ArmorClass)
	assert.Equal(t, 3, s.AttackBonus, "floor(5*0.2) = 1")
	assert.Equal(t, 3, s.DamageBonus, "floor(5*0.3) = 1")
	assert.InDelta(t, 1.1, s.AttackSpeed, 1e-9)
}

func TestEffectiveStats_ForInitialHealthSuppressesUpgradesAndOffense(t *testing.T) {
	p, b := newParty(t)
	p.Upgrades.MaxHealth = 10
	mage := p.Members[2]
	mage.Equipment.Accessory = &party.Item{ID: "ring", Slot: ruleset.SlotAccessory,
		Modifiers: ruleset.Modifiers{MaxHealth: 15, AttackSpeed: 0.5, ArmorClass: 1}}

	initial := party.EffectiveStats(b, p.Upgrades, mage, true)
	assert.Equal(t, 85, initial.MaxHealth, "item health applies, upgrade health does not")
	assert.Equal(t, 1, initial.DamageBonus, "staff damage suppressed")
	assert.InDelta(t, 1.0, initial.AttackSpeed, 1e-9)
	assert.Equal(t, "1d4", initial.WeaponDice)
	assert.Equal(t, 12, initial.ArmorClass)

	full := p.Stats(b, mage)
	assert.Equal(t, 185, full.MaxHealth)
	assert.Equal(t, 2, full.DamageBonus)
	assert.InDelta(t, 1.5, full.AttackSpeed, 1e-9)
}

func TestEffectiveStats_SpeedCap(t *testing.T) {
	p, b := newParty(t)
	p.Upgrades.AttackSpeed = 200
	s := p.Stats(b, p.Members[0])
	assert.InDelta(t, 0.8+50*0.03, s.AttackSpeed, 1e-9)
}

func TestEffectiveStats_SpeedCapIgnoresShield(t *testing.T) {
	p, b := newParty(t)
	p.Upgrades.AttackSpeed = 200
	w := p.Members[0]
	limit := 0.8 + 50*0.03

	w.Equipment.Shield = &party.Item{ID: "quick-buckler", Slot: ruleset.SlotShield,
		Modifiers: ruleset.Modifiers{AttackSpeed: 0.5}}
	assert.InDelta(t, limit, p.Stats(b, w).AttackSpeed, 1e-9, "shield speed does not raise the cap")

	w.Equipment.Accessory = &party.Item{ID: "quick-ring", Slot: ruleset.SlotAccessory,
		Modifiers: ruleset.Modifiers{AttackSpeed: 0.5}}
	assert.InDelta(t, limit+0.5, p.Stats(b, w).AttackSpeed, 1e-9, "accessory speed does")
}

func TestEffectiveStats_Property_Floors(t *testing.T) {
	b := ruleset.Default()
	rapid.Check(t, func(rt *rapid.T) {
		m := &party.Member{
			Level:           rapid.IntRange(1, 100).Draw(rt, "level"),
			BaseMaxHealth:   rapid.IntRange(-50, 500).Draw(rt, "hp"),
			BaseAttack:      rapid.IntRange(0, 100).Draw(rt, "atk"),
			BaseDefense:     rapid.IntRange(0, 100).Draw(rt, "def"),
			BaseAttackSpeed: rapid.Float64Range(-2, 3).Draw(rt, "speed"),
			BaseWeaponDice:  "1d4",
		}
		m.Equipment.Armor = &party.Item{Slot: ruleset.SlotArmor, Modifiers: ruleset.Modifiers{
			MaxHealth:   rapid.IntRange(-500, 100).Draw(rt, "itemHP"),
			AttackSpeed: rapid.Float64Range(-5, 1).Draw(rt, "itemSpeed"),
		}}
		up := party.Upgrades{
			MaxHealth:   rapid.IntRange(0, 50).Draw(rt, "upHP"),
			AttackSpeed: rapid.IntRange(0, 80).Draw(rt, "upSpeed"),
		}
		for _, initial := range []bool{false, true} {
			s := party.EffectiveStats(b, up, m, initial)
			assert.GreaterOrEqual(rt, s.MaxHealth, 1)
			assert.GreaterOrEqual(rt, s.AttackSpeed, 0.1)
		}
	})
}

func TestGainXP_SingleLevel(t *testing.T) {
	p, b := newParty(t)
	w := p.Members[0]
	w.CurrentHealth = 10
	maxHP := func(m *party.Member) int { return p.Stats(b, m).MaxHealth }

	levels := w.GainXP(w.XPToNextLevel+5, b, maxHP)
	assert.Equal(t, 1, levels)
	assert.Equal(t, 2, w.Level)
	assert.Equal(t, 5, w.XP)
	assert.Equal(t, 108, w.XPToNextLevel)
	assert.Equal(t, 130, w.BaseMaxHealth)
	assert.Equal(t, 15, w.BaseAttack)
	assert.Equal(t, 9, w.BaseDefense)
	assert.Equal(t, 130, w.CurrentHealth, "level-up heals to new max")
}

func TestGainXP_MultipleLevels(t *testing.T) {
	p, b := newParty(t)
	w := p.Members[0]
	w.CurrentHealth = 1
	maxHP := func(m *party.Member) int { return p.Stats(b, m).MaxHealth }
	levels := w.GainXP(80+108+1, b, maxHP)
	assert.Equal(t, 2, levels)
	assert.Equal(t, 3, w.Level)
	assert.Equal(t, 1, w.XP)
	assert.Equal(t, maxHP(w), w.CurrentHealth, "each level-up heals to full")
}

func TestGainXP_Property_XPBelowThreshold(t *testing.T) {
	b := ruleset.Default()
	rapid.Check(t, func(rt *rapid.T) {
		p := party.New(ruleset.DefaultRoster(), b)
		m := p.Members[rapid.IntRange(0, 2).Draw(rt, "member")]
		xp := rapid.IntRange(0, 100000).Draw(rt, "xp")
		m.GainXP(xp, b, func(m *party.Member) int { return p.Stats(b, m).MaxHealth })
		assert.Less(rt, m.XP, m.XPToNextLevel)
		assert.GreaterOrEqual(rt, m.XP, 0)
	})
}

func TestInventory_AddTakeFind(t *testing.T) {
	p, _ := newParty(t)
	p.MaxInventory = 2
	require.NoError(t, p.AddItem(&party.Item{ID: "a"}))
	require.NoError(t, p.AddItem(&party.Item{ID: "b"}))
	assert.True(t, p.InventoryFull())
	assert.ErrorIs(t, p.AddItem(&party.Item{ID: "c"}), party.ErrInventoryFull)
	assert.Len(t, p.Inventory, 2)

	it, ok := p.FindItem("b")
	require.True(t, ok)
	assert.Equal(t, "b", it.ID)

	taken, err := p.TakeItem("a")
	require.NoError(t, err)
	assert.Equal(t, "a", taken.ID)
	assert.Len(t, p.Inventory, 1)

	_, err = p.TakeItem("zzz")
	assert.True(t, errors.Is(err, party.ErrItemNotFound))
}

func TestInventory_Property_NeverExceedsCap(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := party.New(ruleset.DefaultRoster(), ruleset.Default())
		p.MaxInventory = rapid.IntRange(1, 10).Draw(rt, "cap")
		ops := rapid.SliceOfN(rapid.Bool(), 0, 60).Draw(rt, "ops")
		for i, add := range ops {
			if add {
				_ = p.AddItem(&party.Item{ID: fmt.Sprintf("i%d", i)})
			} else if len(p.Inventory) > 0 {
				_, _ = p.TakeItem(p.Inventory[0].ID)
			}
			assert.LessOrEqual(rt, len(p.Inventory), p.MaxInventory)
		}
	})
}

func TestBuyUpgrade_MaxHealthRaisesCurrentHealth(t *testing.T) {
	p, b := newParty(t)
	cost, err := p.BuyUpgrade(b, ruleset.UpgradeMaxHealth)
	require.NoError(t, err)
	assert.Equal(t, 20, cost)
	assert.Equal(t, 80, p.Gold)
	assert.Equal(t, 1, p.Upgrades.MaxHealth)
	assert.Equal(t, 130, p.Members[0].CurrentHealth)
	assert.Equal(t, 80, p.Members[1].CurrentHealth, "locked members untouched")
}

func TestBuyUpgrade_InsufficientGold(t *testing.T) {
	p, b := newParty(t)
	p.Gold = 10
	before := p.Clone()
	_, err := p.BuyUpgrade(b, ruleset.UpgradeAttack)
	assert.ErrorIs(t, err, party.ErrInsufficientGold)
	assert.Equal(t, before, p)
}

func TestBuyUpgrade_MaxLevel(t *testing.T) {
	p, b := newParty(t)
	p.Gold = 1 << 40
	p.Upgrades.AttackSpeed = 50
	_, err := p.BuyUpgrade(b, ruleset.UpgradeAttackSpeed)
	assert.ErrorIs(t, err, party.ErrMaxLevel)
	assert.Equal(t, 50, p.Upgrades.AttackSpeed)
}

func TestBuyUpgrade_Property_GoldNonNegative(t *testing.T) {
	b := ruleset.Default()
	rapid.Check(t, func(rt *rapid.T) {
		p := party.New(ruleset.DefaultRoster(), b)
		p.Gold = rapid.IntRange(0, 5000).Draw(rt, "gold")
		buys := rapid.SliceOfN(rapid.SampledFrom(ruleset.UpgradeTypes), 0, 40).Draw(rt, "buys")
		for _, ut := range buys {
			gold := p.Gold
			cost, err := p.BuyUpgrade(b, ut)
			if err != nil {
				assert.Equal(rt, gold, p.Gold)
			} else {
				assert.Equal(rt, gold-cost, p.Gold)
			}
			assert.GreaterOrEqual(rt, p.Gold, 0)
		}
	})
}

func TestCheapestUpgrade(t *testing.T) {
	p, b := newParty(t)
	ut, ok := p.CheapestUpgrade(b)
	require.True(t, ok)
	assert.Equal(t, ruleset.UpgradeMaxHealth, ut)

	p.Gold = 5
	_, ok = p.CheapestUpgrade(b)
	assert.False(t, ok)
}

func TestItem_Equippable(t *testing.T) {
	shield := &party.Item{Name: "Kite Shield", Slot: ruleset.SlotShield}
	assert.True(t, shield.Equippable(ruleset.Warrior, ruleset.SlotShield))
	assert.False(t, shield.Equippable(ruleset.Archer, ruleset.SlotShield))
	assert.False(t, shield.Equippable(ruleset.Mage, ruleset.SlotShield))
	assert.False(t, shield.Equippable(ruleset.Warrior, ruleset.SlotArmor), "slot mismatch")

	plate := &party.Item{Name: "Fine Plate Armor", Slot: ruleset.SlotArmor}
	assert.False(t, plate.Equippable(ruleset.Mage, ruleset.SlotArmor))
	assert.True(t, plate.Equippable(ruleset.Warrior, ruleset.SlotArmor))

	bow := &party.Item{Name: "Bow", Slot: ruleset.SlotWeapon, Classes: []ruleset.Class{ruleset.Archer}}
	assert.True(t, bow.Equippable(ruleset.Archer, ruleset.SlotWeapon))
	assert.False(t, bow.Equippable(ruleset.Warrior, ruleset.SlotWeapon))
}

func TestParty_CloneIsDeep(t *testing.T) {
	p, _ := newParty(t)
	require.NoError(t, p.AddItem(&party.Item{ID: "x", Classes: []ruleset.Class{ruleset.Mage}}))
	c := p.Clone()
	c.Members[0].CurrentHealth = 1
	c.Members[0].Equipment.Weapon.Name = "changed"
	c.Inventory[0].Classes[0] = ruleset.Warrior
	assert.Equal(t, 120, p.Members[0].CurrentHealth)
	assert.Equal(t, "Training Sword", p.Members[0].Equipment.Weapon.Name)
	assert.Equal(t, ruleset.Mage, p.Inventory[0].Classes[0])
}

func TestMember_Lookup(t *testing.T) {
	p, _ := newParty(t)
	m, err := p.Member("member-3-mage")
	require.NoError(t, err)
	assert.Equal(t, ruleset.Mage, m.Class)
	_, err = p.Member("nobody")
	assert.ErrorIs(t, err, party.ErrMemberNotFound)
}
