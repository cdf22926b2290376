package engine

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idleparty/internal/game/enemy"
	"github.com/cory-johannsen/idleparty/internal/game/equip"
	"github.com/cory-johannsen/idleparty/internal/game/eventlog"
	"github.com/cory-johannsen/idleparty/internal/game/party"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

// PurchaseUpgrade buys the next level of t with party gold.
//
// Postcondition: on error the state is unchanged and an error entry is logged.
func (e *Engine) PurchaseUpgrade(t ruleset.UpgradeType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cost, err := e.st.Party.BuyUpgrade(e.balance, t)
	if err != nil {
		return e.rejectUpgrade(t, err)
	}
	u, _ := e.balance.Upgrade(t)
	e.log.Addf(eventlog.KindParty, "Purchased %s upgrade (level %d) for %d gold.",
		u.Name, e.st.Party.Upgrades.Level(t), cost)
	return nil
}

func (e *Engine) rejectUpgrade(t ruleset.UpgradeType, err error) error {
	switch {
	case errors.Is(err, party.ErrInsufficientGold):
		return e.reject(err, "Not enough gold for the %s upgrade.", t)
	case errors.Is(err, party.ErrMaxLevel):
		return e.reject(err, "The %s upgrade is already at its maximum level.", t)
	default:
		return e.reject(err, "Unknown upgrade %q.", t)
	}
}

// UpgradeOptions lists every configured upgrade with its next price.
func (e *Engine) UpgradeOptions() []UpgradeOption {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upgradeOptions()
}

func (e *Engine) upgradeOptions() []UpgradeOption {
	p := e.st.Party
	opts := make([]UpgradeOption, 0, len(ruleset.UpgradeTypes))
	for _, t := range ruleset.UpgradeTypes {
		u, ok := e.balance.Upgrade(t)
		if !ok {
			continue
		}
		lvl := p.Upgrades.Level(t)
		cost := u.Cost(lvl)
		capped := u.Capped(lvl)
		opts = append(opts, UpgradeOption{
			Type:       t,
			Name:       u.Name,
			Level:      lvl,
			Cost:       cost,
			Capped:     capped,
			Affordable: !capped && cost <= p.Gold,
		})
	}
	return opts
}

// AutoUpgrade buys at most one upgrade without logging the purchase. The
// configured UpgradeChooser decides; without one, or when it fails, the
// cheapest affordable upgrade is bought.
//
// Postcondition: returns false when nothing was bought.
func (e *Engine) AutoUpgrade() (ruleset.UpgradeType, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.Automation.AutoUpgrade || e.st.Wiped {
		return "", false
	}
	p := e.st.Party
	choice, ok := p.CheapestUpgrade(e.balance)
	if e.chooser != nil {
		c, cok, err := e.chooser.ChooseUpgrade(p.Gold, e.upgradeOptions())
		if err != nil {
			e.logger.Warn("upgrade chooser failed; buying cheapest", zap.Error(err))
		} else {
			choice, ok = c, cok
		}
	}
	if !ok {
		return "", false
	}
	if _, err := p.BuyUpgrade(e.balance, choice); err != nil {
		e.logger.Debug("auto-upgrade skipped", zap.String("upgrade", string(choice)), zap.Error(err))
		return "", false
	}
	return choice, true
}

// NextStage advances to the next stage once the current boss has fallen.
func (e *Engine) NextStage() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextStage()
}

func (e *Engine) nextStage() error {
	switch {
	case e.st.NGPlusAvailable():
		return e.reject(ErrNewGamePlusPending, "Start New Game Plus to continue past the final stage.")
	case !e.st.Party.AnyFighting():
		return e.reject(ErrNoActiveMembers, "No active party members can advance.")
	case !e.st.BossDefeated():
		return e.reject(ErrBossNotDefeated, "Defeat the stage %d boss before advancing.", e.st.Stage)
	}
	e.transition(evEnterStage)
	e.changeStage(e.st.Stage + 1)
	e.log.Addf(eventlog.KindSystem, "Advanced to stage %d.", e.st.Stage)
	return nil
}

// PreviousStage retreats one stage. The stage retreated to counts as cleared,
// so the party may advance again immediately.
func (e *Engine) PreviousStage() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.st.Stage <= 1:
		return e.reject(ErrFirstStage, "Already at the first stage.")
	case e.st.NGPlusAvailable():
		return e.reject(ErrNewGamePlusPending, "Start New Game Plus to continue.")
	case e.st.Wiped:
		return e.reject(ErrPartyWiped, "Cannot change stage while the party is wiped.")
	case !e.st.Party.AnyFighting():
		return e.reject(ErrNoActiveMembers, "No active party members can retreat.")
	}
	e.transition(evRetreatStage)
	e.changeStage(e.st.Stage - 1)
	e.log.Addf(eventlog.KindSystem, "Returned to stage %d.", e.st.Stage)
	return nil
}

// StartNewGamePlus begins the next cycle at stage 1 with tougher enemies,
// keeping levels, gear, gold and upgrades.
func (e *Engine) StartNewGamePlus() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.NGPlusAvailable() {
		return e.reject(ErrFinalBossNotDefeated, "Defeat the stage %d boss to unlock New Game Plus.", e.balance.FinalStage)
	}
	e.st.Party.NGPlusLevel++
	e.transition(evStartNGPlus)
	e.changeStage(1)
	e.log.Addf(eventlog.KindSystem, "New Game Plus %d begins! Enemies grow stronger.", e.st.Party.NGPlusLevel)
	e.logger.Info("new game plus started", zap.Int("ngPlus", e.st.Party.NGPlusLevel))
	return nil
}

// changeStage moves to stage with a fresh regular enemy, a re-armed boss
// countdown and a fully healed party.
func (e *Engine) changeStage(stage int) {
	now := e.clock.Now()
	e.st.Stage = stage
	e.st.BattlesUntilBoss = e.balance.BossThreshold
	e.autoRecruit()
	e.restoreParty()
	e.st.Enemy = enemy.Regular(e.balance, stage, e.st.Party.NGPlusLevel, now)
	e.st.LastEnemyAttackAt = now
	e.log.Addf(eventlog.KindSystem, "%s appears!", e.st.Enemy.Name)
	e.checkpoint = true
}

func (e *Engine) restoreParty() {
	p := e.st.Party
	for _, m := range p.Members {
		if !m.Unlocked {
			continue
		}
		m.CurrentHealth = p.Stats(e.balance, m).MaxHealth
		m.Active = true
		m.LastAttackAt = time.Time{}
	}
}

// autoRecruit unlocks every locked member whose unlock stage is reached.
func (e *Engine) autoRecruit() {
	for _, m := range e.st.Party.Members {
		if !m.Unlocked && m.UnlockStage <= e.st.Stage {
			e.unlock(m)
		}
	}
}

func (e *Engine) unlock(m *party.Member) {
	m.Unlocked = true
	m.Active = true
	m.CurrentHealth = e.st.Party.Stats(e.balance, m).MaxHealth
	m.LastAttackAt = time.Time{}
	e.log.Addf(eventlog.KindParty, "%s the %s joined the party!", m.Name, m.Class)
}

// Recruit unlocks a member whose unlock stage has been reached.
func (e *Engine) Recruit(memberID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.st.Party.Member(memberID)
	if err != nil {
		return e.reject(err, "Unknown party member %q.", memberID)
	}
	switch {
	case m.Unlocked:
		return e.reject(ErrAlreadyRecruited, "%s is already in the party.", m.Name)
	case e.st.Stage < m.UnlockStage:
		return e.reject(fmt.Errorf("%w: %s unlocks at stage %d", ErrStageTooLow, m.Name, m.UnlockStage),
			"%s can be recruited from stage %d.", m.Name, m.UnlockStage)
	}
	e.unlock(m)
	e.checkpoint = true
	return nil
}

// Equip moves an inventory item into a member's slot.
func (e *Engine) Equip(memberID string, slot ruleset.Slot, itemID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := equip.Equip(e.balance, e.st.Party, memberID, slot, itemID)
	if err != nil {
		return e.reject(err, "Cannot equip: %s.", describeErr(err))
	}
	e.logEquip(res, false)
	return nil
}

// Unequip moves the item in a member's slot back to the inventory.
func (e *Engine) Unequip(memberID string, slot ruleset.Slot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := equip.Unequip(e.balance, e.st.Party, memberID, slot)
	if err != nil {
		return e.reject(err, "Cannot unequip: %s.", describeErr(err))
	}
	m, _ := e.st.Party.Member(memberID)
	e.log.Addf(eventlog.KindLoot, "%s unequipped %s.", m.Name, it.Name)
	return nil
}

// SellItem sells an inventory item for gold priced by rarity and stage.
func (e *Engine) SellItem(itemID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := e.st.Party.TakeItem(itemID)
	if err != nil {
		return e.reject(err, "That item is not in the inventory.")
	}
	price := e.loot.SellPrice(it, e.st.Stage)
	e.st.Party.Gold += price
	e.log.Addf(eventlog.KindReward, "Sold %s for %d gold.", it.Name, price)
	return nil
}

// SetAutomation toggles one automation.
func (e *Engine) SetAutomation(kind AutomationKind, on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := &e.st.Automation
	switch kind {
	case AutomationUpgrade:
		a.AutoUpgrade = on
	case AutomationStage:
		a.AutoStage = on
	case AutomationEquip:
		a.AutoEquip = on
	default:
		return e.reject(fmt.Errorf("%w: %q", ErrUnknownAutomation, kind), "Unknown automation %q.", kind)
	}
	state := "off"
	if on {
		state = "on"
	}
	e.log.Addf(eventlog.KindSystem, "Auto-%s turned %s.", kind, state)
	return nil
}

// AutoStageReady reports whether auto-stage would advance right now: the
// stage boss is down, nothing is being fought and the party can move on.
func (e *Engine) AutoStageReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoStageReady()
}

func (e *Engine) autoStageReady() bool {
	st := e.st
	return st.Automation.AutoStage &&
		st.Phase == PhaseCleared &&
		st.Enemy == nil &&
		!st.Wiped &&
		st.Party.AnyFighting()
}

// AutoAdvance re-checks AutoStageReady and, if it still holds, advances.
//
// Postcondition: returns false without logging when the conditions lapsed.
func (e *Engine) AutoAdvance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.autoStageReady() {
		return false
	}
	return e.nextStage() == nil
}

func describeErr(err error) string {
	switch {
	case errors.Is(err, party.ErrMemberNotFound):
		return "unknown party member"
	case errors.Is(err, party.ErrItemNotFound):
		return "item not in inventory"
	case errors.Is(err, party.ErrInventoryFull):
		return "inventory is full"
	case errors.Is(err, equip.ErrNotEquippable):
		return "that item cannot be worn there"
	case errors.Is(err, equip.ErrSlotEmpty):
		return "nothing is equipped in that slot"
	}
	return err.Error()
}
