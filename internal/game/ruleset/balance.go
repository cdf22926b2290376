package ruleset

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UpgradeRule prices and scales one permanent party upgrade.
type UpgradeRule struct {
	Name      string  `yaml:"name"`
	BaseCost  int     `yaml:"base_cost"`
	CostScale float64 `yaml:"cost_scale"`
	// PerLevel is the stat increment granted per purchased level.
	PerLevel float64 `yaml:"per_level"`
	// SecondaryPerLevel is only used by attack, which raises damage as well.
	SecondaryPerLevel float64 `yaml:"secondary_per_level,omitempty"`
	// MaxLevel of zero means uncapped.
	MaxLevel int `yaml:"max_level,omitempty"`
}

// Cost returns the gold price of buying the level after currentLevel.
//
// Postcondition: Returns floor(BaseCost * CostScale^currentLevel).
func (u UpgradeRule) Cost(currentLevel int) int {
	return int(math.Floor(float64(u.BaseCost) * math.Pow(u.CostScale, float64(currentLevel))))
}

// Capped reports whether level has reached the upgrade's maximum.
func (u UpgradeRule) Capped(level int) bool {
	return u.MaxLevel > 0 && level >= u.MaxLevel
}

// BossMultipliers scale a stage-scaled enemy into a boss.
type BossMultipliers struct {
	Health  float64 `yaml:"health"`
	Attack  float64 `yaml:"attack"`
	Defense float64 `yaml:"defense"`
	Gold    float64 `yaml:"gold"`
	XP      float64 `yaml:"xp"`
}

// NGPlusRates are the additive per-NG+-level enemy scaling rates.
type NGPlusRates struct {
	Health  float64 `yaml:"health"`
	Stats   float64 `yaml:"stats"`
	Rewards float64 `yaml:"rewards"`
}

// EnemyBalance holds the enemy generator's tunables.
type EnemyBalance struct {
	BaseHealth  int             `yaml:"base_health"`
	BaseAttack  int             `yaml:"base_attack"`
	BaseDefense int             `yaml:"base_defense"`
	BaseGold    int             `yaml:"base_gold"`
	BaseXP      int             `yaml:"base_xp"`
	HealthScale float64         `yaml:"health_scale"`
	StatScale   float64         `yaml:"stat_scale"`
	RewardScale float64         `yaml:"reward_scale"`
	Boss        BossMultipliers `yaml:"boss"`
	NGPlus      NGPlusRates     `yaml:"ng_plus"`
	BossPrefix  string          `yaml:"boss_prefix"`
	Names       []string        `yaml:"names"`
}

// RarityTier describes how a rarity scales generated loot.
type RarityTier struct {
	Multiplier float64  `yaml:"multiplier"`
	Prefix     string   `yaml:"prefix"`
	MaxEffects int      `yaml:"max_effects"`
	Dice       []string `yaml:"dice"`
	SellPrice  int      `yaml:"sell_price"`
	Weight     float64  `yaml:"weight"`
}

// LootBalance holds the loot generator's tunables.
// Tier entries overridden from YAML replace the whole default tier.
type LootBalance struct {
	DropChance          float64               `yaml:"drop_chance"`
	BossDropMultiplier  float64               `yaml:"boss_drop_multiplier"`
	StageBonusThreshold int                   `yaml:"stage_bonus_threshold"`
	BossEpicChance      float64               `yaml:"boss_epic_chance"`
	BossRareChance      float64               `yaml:"boss_rare_chance"`
	Tiers               map[Rarity]RarityTier `yaml:"tiers"`
	StageBonusWeights   map[Rarity]float64    `yaml:"stage_bonus_weights"`
	SellStageFactor     float64               `yaml:"sell_stage_factor"`
	SellJitter          float64               `yaml:"sell_jitter"`
	Adjectives          []string              `yaml:"adjectives"`
}

// Balance is the complete set of gameplay tunables.
//
// Invariant: a Balance returned by Default or LoadBalance passes Validate.
type Balance struct {
	TickInterval        time.Duration `yaml:"tick_interval"`
	EnemyAttackInterval time.Duration `yaml:"enemy_attack_interval"`
	RegenInterval       time.Duration `yaml:"regen_interval"`
	// RegenPercent is the fraction of effective max health healed per regen interval.
	RegenPercent float64 `yaml:"regen_percent"`
	LogCap              int           `yaml:"log_cap"`
	AutosaveInterval    time.Duration `yaml:"autosave_interval"`
	AutoUpgradeInterval time.Duration `yaml:"auto_upgrade_interval"`
	AutoStageDelay      time.Duration `yaml:"auto_stage_delay"`
	BossThreshold       int           `yaml:"boss_threshold"`
	RevivalDelay        time.Duration `yaml:"revival_delay"`
	RevivalPercent      float64       `yaml:"revival_percent"`
	FinalStage          int           `yaml:"final_stage"`
	BaseAC              int           `yaml:"base_ac"`
	CritHit             int           `yaml:"crit_hit"`
	CritMiss            int           `yaml:"crit_miss"`
	MaxInventory        int           `yaml:"max_inventory"`
	StartingGold        int           `yaml:"starting_gold"`
	XPMultiplier        float64       `yaml:"xp_multiplier"`
	LevelHealth         int           `yaml:"level_health"`
	LevelAttack         int           `yaml:"level_attack"`
	LevelDefense        int           `yaml:"level_defense"`

	Enemy    EnemyBalance                `yaml:"enemy"`
	Loot     LootBalance                 `yaml:"loot"`
	Upgrades map[UpgradeType]UpgradeRule `yaml:"upgrades"`
}

// Upgrade returns the rule for t.
//
// Postcondition: ok is false when t is not configured.
func (b *Balance) Upgrade(t UpgradeType) (UpgradeRule, bool) {
	u, ok := b.Upgrades[t]
	return u, ok
}

// Tier returns the loot tier for r, falling back to the Common tier.
func (b *Balance) Tier(r Rarity) RarityTier {
	if t, ok := b.Loot.Tiers[r]; ok {
		return t
	}
	return b.Loot.Tiers[Common]
}

// Default returns the stock balance.
//
// Postcondition: the returned Balance is freshly allocated and valid.
func Default() *Balance {
	return &Balance{
		TickInterval:        100 * time.Millisecond,
		EnemyAttackInterval: 2500 * time.Millisecond,
		RegenInterval:       time.Second,
		RegenPercent:        0.005,
		LogCap:              100,
		AutosaveInterval:    60 * time.Second,
		AutoUpgradeInterval: 2 * time.Second,
		AutoStageDelay:      750 * time.Millisecond,
		BossThreshold:       10,
		RevivalDelay:        10 * time.Second,
		RevivalPercent:      0.5,
		FinalStage:          30,
		BaseAC:              10,
		CritHit:             20,
		CritMiss:            1,
		MaxInventory:        24,
		StartingGold:        100,
		XPMultiplier:        1.35,
		LevelHealth:         10,
		LevelAttack:         1,
		LevelDefense:        1,
		Enemy: EnemyBalance{
			BaseHealth:  60,
			BaseAttack:  10,
			BaseDefense: 4,
			BaseGold:    10,
			BaseXP:      15,
			HealthScale: 1.5,
			StatScale:   1.28,
			RewardScale: 1.18,
			Boss:        BossMultipliers{Health: 4, Attack: 1.3, Defense: 1.3, Gold: 5, XP: 5},
			NGPlus:      NGPlusRates{Health: 0.75, Stats: 0.5, Rewards: 0.25},
			BossPrefix:  "[Boss] ",
			Names: []string{
				"Goblin", "Kobold", "Giant Rat", "Skeleton", "Slime",
				"Orc", "Wolf", "Bandit", "Zombie", "Harpy",
				"Troll", "Ogre", "Wraith", "Minotaur", "Dragon Whelp",
			},
		},
		Loot: LootBalance{
			DropChance:          0.15,
			BossDropMultiplier:  3,
			StageBonusThreshold: 10,
			BossEpicChance:      0.1,
			BossRareChance:      0.4,
			Tiers: map[Rarity]RarityTier{
				Common:   {Multiplier: 1.0, Prefix: "Worn", MaxEffects: 1, Dice: []string{"1d4", "1d6"}, SellPrice: 15, Weight: 60},
				Uncommon: {Multiplier: 1.3, Prefix: "Serviceable", MaxEffects: 2, Dice: []string{"1d6", "1d8", "2d4"}, SellPrice: 35, Weight: 25},
				Rare:     {Multiplier: 1.7, Prefix: "Fine", MaxEffects: 3, Dice: []string{"1d8", "1d10", "2d6"}, SellPrice: 80, Weight: 10},
				Epic:     {Multiplier: 2.2, Prefix: "Masterwork", MaxEffects: 4, Dice: []string{"1d10", "1d12", "2d8"}, SellPrice: 200, Weight: 5},
			},
			StageBonusWeights: map[Rarity]float64{Uncommon: 2, Rare: 1.5, Epic: 1},
			SellStageFactor:   0.3,
			SellJitter:        0.15,
			Adjectives:        []string{"Sturdy", "Keen", "Balanced", "Gleaming", "Ancient", "Swift"},
		},
		Upgrades: map[UpgradeType]UpgradeRule{
			UpgradeAttack:      {Name: "Party Attack", BaseCost: 35, CostScale: 1.2, PerLevel: 0.2, SecondaryPerLevel: 0.3},
			UpgradeDefense:     {Name: "Party Defense", BaseCost: 30, CostScale: 1.22, PerLevel: 0.25},
			UpgradeMaxHealth:   {Name: "Party Vitality", BaseCost: 20, CostScale: 1.15, PerLevel: 10},
			UpgradeAttackSpeed: {Name: "Party Haste", BaseCost: 150, CostScale: 1.35, PerLevel: 0.03, MaxLevel: 50},
		},
	}
}

// LoadBalance reads a YAML overlay from path on top of Default.
// Keys absent from the file keep their default values.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns a valid Balance or a non-nil error.
func LoadBalance(path string) (*Balance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading balance file %s: %w", path, err)
	}
	return ParseBalance(data)
}

// ParseBalance decodes a YAML overlay on top of Default and validates it.
//
// Postcondition: Returns a valid Balance or a non-nil error.
func ParseBalance(data []byte) (*Balance, error) {
	b := Default()
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("parsing balance: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks every balance invariant.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (b *Balance) Validate() error {
	var errs []string
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"tick_interval", b.TickInterval},
		{"enemy_attack_interval", b.EnemyAttackInterval},
		{"regen_interval", b.RegenInterval},
		{"autosave_interval", b.AutosaveInterval},
		{"auto_upgrade_interval", b.AutoUpgradeInterval},
	} {
		if d.v <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0", d.name))
		}
	}
	if b.AutoStageDelay < 0 || b.RevivalDelay < 0 {
		errs = append(errs, "auto_stage_delay and revival_delay must not be negative")
	}
	if b.RegenPercent < 0 || b.RegenPercent > 1 {
		errs = append(errs, fmt.Sprintf("regen_percent must be in [0, 1], got %g", b.RegenPercent))
	}
	if b.RevivalPercent <= 0 || b.RevivalPercent > 1 {
		errs = append(errs, fmt.Sprintf("revival_percent must be in (0, 1], got %g", b.RevivalPercent))
	}
	if b.LogCap < 1 {
		errs = append(errs, "log_cap must be >= 1")
	}
	if b.BossThreshold < 1 {
		errs = append(errs, "boss_threshold must be >= 1")
	}
	if b.FinalStage < 1 {
		errs = append(errs, "final_stage must be >= 1")
	}
	if b.MaxInventory < 1 {
		errs = append(errs, "max_inventory must be >= 1")
	}
	if b.StartingGold < 0 {
		errs = append(errs, "starting_gold must not be negative")
	}
	if b.XPMultiplier < 1 {
		errs = append(errs, "xp_multiplier must be >= 1")
	}
	if b.CritMiss >= b.CritHit || b.CritMiss < 1 || b.CritHit > 20 {
		errs = append(errs, fmt.Sprintf("crit_miss (%d) and crit_hit (%d) must satisfy 1 <= crit_miss < crit_hit <= 20", b.CritMiss, b.CritHit))
	}
	if err := b.Enemy.validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := b.Loot.validate(); err != nil {
		errs = append(errs, err.Error())
	}
	for _, t := range UpgradeTypes {
		u, ok := b.Upgrades[t]
		if !ok {
			errs = append(errs, fmt.Sprintf("upgrades.%s is missing", t))
			continue
		}
		if u.BaseCost < 1 || u.CostScale < 1 {
			errs = append(errs, fmt.Sprintf("upgrades.%s needs base_cost >= 1 and cost_scale >= 1", t))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("balance validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (e EnemyBalance) validate() error {
	var errs []string
	if e.BaseHealth < 1 {
		errs = append(errs, "enemy.base_health must be >= 1")
	}
	if e.HealthScale <= 0 || e.StatScale <= 0 || e.RewardScale <= 0 {
		errs = append(errs, "enemy scale factors must be > 0")
	}
	if len(e.Names) == 0 {
		errs = append(errs, "enemy.names must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (l LootBalance) validate() error {
	var errs []string
	if l.DropChance < 0 || l.DropChance > 1 {
		errs = append(errs, fmt.Sprintf("loot.drop_chance must be in [0, 1], got %g", l.DropChance))
	}
	if l.StageBonusThreshold < 1 {
		errs = append(errs, "loot.stage_bonus_threshold must be >= 1")
	}
	for _, r := range Rarities {
		t, ok := l.Tiers[r]
		if !ok {
			errs = append(errs, fmt.Sprintf("loot.tiers.%s is missing", r))
			continue
		}
		if t.MaxEffects < 1 {
			errs = append(errs, fmt.Sprintf("loot.tiers.%s.max_effects must be >= 1", r))
		}
		if len(t.Dice) == 0 {
			errs = append(errs, fmt.Sprintf("loot.tiers.%s.dice must not be empty", r))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
