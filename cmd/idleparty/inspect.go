package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/idleparty/internal/config"
	"github.com/cory-johannsen/idleparty/internal/game/engine"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
	"github.com/cory-johannsen/idleparty/internal/game/save"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [slot]",
	Short: "Print a saved game as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  inspectSave,
}

// saveSummary is the YAML shape printed by inspect.
type saveSummary struct {
	Slot             string            `yaml:"slot"`
	Stage            int               `yaml:"stage"`
	NGPlus           int               `yaml:"ng_plus"`
	Phase            engine.Phase      `yaml:"phase"`
	BattlesUntilBoss int               `yaml:"battles_until_boss"`
	Wiped            bool              `yaml:"wiped,omitempty"`
	Gold             int               `yaml:"gold"`
	Upgrades         map[string]int    `yaml:"upgrades"`
	Automation       engine.Automation `yaml:"automation"`
	Enemy            string            `yaml:"enemy,omitempty"`
	Members          []memberSummary   `yaml:"members"`
	Inventory        []string          `yaml:"inventory,omitempty"`
}

type memberSummary struct {
	Name      string            `yaml:"name"`
	Class     ruleset.Class     `yaml:"class"`
	Level     int               `yaml:"level"`
	XP        string            `yaml:"xp"`
	Health    string            `yaml:"health"`
	Recruited bool              `yaml:"recruited"`
	Equipment map[string]string `yaml:"equipment,omitempty"`
}

func inspectSave(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slot := cfg.Storage.Slot
	if len(args) == 1 {
		slot = args[0]
	}
	b, roster, err := loadContent(cfg.Game)
	if err != nil {
		return fmt.Errorf("loading game content: %w", err)
	}

	ctx := cmd.Context()
	logger := zap.NewNop()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	data, err := store.Load(ctx, slot)
	if err != nil {
		return fmt.Errorf("reading slot %q: %w", slot, err)
	}
	st, err := save.Decode(data, b, roster, time.Now(), logger)
	if err != nil {
		return fmt.Errorf("decoding slot %q: %w", slot, err)
	}
	return writeSummary(cmd.OutOrStdout(), summarize(slot, st, b))
}

func summarize(slot string, st *engine.State, b *ruleset.Balance) saveSummary {
	p := st.Party
	s := saveSummary{
		Slot:             slot,
		Stage:            st.Stage,
		NGPlus:           p.NGPlusLevel,
		Phase:            st.Phase,
		BattlesUntilBoss: st.BattlesUntilBoss,
		Wiped:            st.Wiped,
		Gold:             p.Gold,
		Upgrades:         make(map[string]int, len(ruleset.UpgradeTypes)),
		Automation:       st.Automation,
	}
	for _, t := range ruleset.UpgradeTypes {
		s.Upgrades[string(t)] = p.Upgrades.Level(t)
	}
	if st.Enemy != nil {
		s.Enemy = fmt.Sprintf("%s (%d/%d HP)", st.Enemy.Name, st.Enemy.CurrentHealth, st.Enemy.MaxHealth)
	}
	for _, m := range p.Members {
		ms := memberSummary{
			Name:      m.Name,
			Class:     m.Class,
			Level:     m.Level,
			XP:        fmt.Sprintf("%d/%d", m.XP, m.XPToNextLevel),
			Health:    fmt.Sprintf("%d/%d", m.CurrentHealth, p.Stats(b, m).MaxHealth),
			Recruited: m.Unlocked,
		}
		for _, slot := range ruleset.Slots {
			it := m.Equipment.Get(slot)
			if it == nil {
				continue
			}
			if ms.Equipment == nil {
				ms.Equipment = make(map[string]string)
			}
			ms.Equipment[string(slot)] = fmt.Sprintf("%s (%s)", it.Name, it.Rarity)
		}
		s.Members = append(s.Members, ms)
	}
	for _, it := range p.Inventory {
		s.Inventory = append(s.Inventory, fmt.Sprintf("%s (%s)", it.Name, it.Rarity))
	}
	return s
}

func writeSummary(w io.Writer, s saveSummary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return enc.Close()
}
