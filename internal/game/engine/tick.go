package engine

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idleparty/internal/game/combat"
	"github.com/cory-johannsen/idleparty/internal/game/enemy"
	"github.com/cory-johannsen/idleparty/internal/game/equip"
	"github.com/cory-johannsen/idleparty/internal/game/eventlog"
	"github.com/cory-johannsen/idleparty/internal/game/party"
)

// Tick advances the simulation to the clock's current time: member attacks,
// then defeat handling and respawn, then the enemy's attack, then regen.
//
// Postcondition: no-op while the party is wiped or New Game Plus is pending.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tick(e.clock.Now())
}

// ForceTick runs one tick on demand.
func (e *Engine) ForceTick() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.st.Wiped:
		return e.reject(ErrPartyWiped, "Cannot force a tick while the party is wiped.")
	case e.st.NGPlusAvailable():
		return e.reject(ErrNewGamePlusPending, "Cannot force a tick while New Game Plus is waiting to start.")
	}
	e.log.Add(eventlog.KindSystem, "Forcing the next game tick.")
	e.tick(e.clock.Now())
	return nil
}

func (e *Engine) tick(now time.Time) {
	if e.st.Wiped || e.st.NGPlusAvailable() {
		return
	}
	e.memberAttacks(now)
	e.enemyAttack(now)
	e.regenerate(now)
}

func (e *Engine) memberAttacks(now time.Time) {
	p := e.st.Party
	en := e.st.Enemy
	if !en.Alive() {
		return
	}
	for _, m := range p.Members {
		if !m.Fighting() {
			continue
		}
		if !en.Alive() {
			break
		}
		s := p.Stats(e.balance, m)
		if now.Sub(m.LastAttackAt) < s.AttackCooldown() {
			continue
		}
		attacker := combat.Profile{Name: m.Name, AttackBonus: s.AttackBonus, DamageBonus: s.DamageBonus, WeaponDice: s.WeaponDice}
		res := combat.ResolveAttack(e.roller, attacker, en.Name, en.ArmorClass, e.rules)
		m.LastAttackAt = now
		if res.Outcome.Landed() {
			en.CurrentHealth = max(0, en.CurrentHealth-res.Damage)
		}
		e.logAttack(res)
	}
	if !en.Alive() {
		e.defeat(en, now)
	}
}

func (e *Engine) logAttack(res combat.AttackResult) {
	switch res.Outcome {
	case combat.CritHit:
		e.log.AddDetails(eventlog.KindCrit, fmt.Sprintf("CRITICAL! %s hits %s for %d damage. %s",
			res.AttackerName, res.TargetName, res.Damage, res.Summary()), res.Detail)
	case combat.Hit:
		e.log.AddDetails(eventlog.KindCombat, fmt.Sprintf("%s hits %s for %d damage. %s",
			res.AttackerName, res.TargetName, res.Damage, res.Summary()), res.Detail)
	default:
		e.log.Addf(eventlog.KindCombat, "%s misses %s. %s", res.AttackerName, res.TargetName, res.Summary())
	}
}

// defeat pays out rewards for en and decides what the party faces next.
func (e *Engine) defeat(en *enemy.Enemy, now time.Time) {
	p := e.st.Party
	e.log.Addf(eventlog.KindReward, "%s defeated! +%d gold, +%d XP.", en.Name, en.Gold, en.XP)

	if drop := e.loot.Drop(e.st.Stage, en.IsBoss); drop != nil {
		e.collect(drop)
	}

	p.Gold += en.Gold
	if fighters := p.Fighting(); len(fighters) > 0 {
		share := en.XP / len(fighters)
		maxHealth := func(m *party.Member) int { return p.Stats(e.balance, m).MaxHealth }
		for _, m := range fighters {
			before := m.Level
			if gained := m.GainXP(share, e.balance, maxHealth); gained > 0 {
				for lvl := before + 1; lvl <= m.Level; lvl++ {
					e.log.Addf(eventlog.KindParty, "%s reached level %d!", m.Name, lvl)
				}
			}
		}
	}

	if en.IsBoss && e.st.BossActive() {
		if e.st.Stage >= e.balance.FinalStage {
			e.transition(evDefeatFinalBoss)
			e.log.Addf(eventlog.KindReward, "Final boss %s defeated! New Game Plus is now available.", en.Name)
		} else {
			e.transition(evDefeatBoss)
			e.log.Addf(eventlog.KindReward, "Boss %s defeated! The next stage is open.", en.Name)
		}
		e.st.Enemy = nil
		e.checkpoint = true
		return
	}

	e.st.BattlesUntilBoss--
	if e.st.BattlesUntilBoss <= 0 && e.st.Phase == PhaseRegular {
		e.transition(evSummonBoss)
		e.st.Enemy = enemy.Boss(e.balance, e.st.Stage, p.NGPlusLevel, now)
		e.log.Addf(eventlog.KindSystem, "A mighty %s appears!", e.st.Enemy.Name)
		return
	}
	if e.st.BattlesUntilBoss <= 0 {
		e.st.BattlesUntilBoss = e.balance.BossThreshold
	}
	e.st.Enemy = enemy.Regular(e.balance, e.st.Stage, p.NGPlusLevel, now)
	if e.st.Phase == PhaseRegular {
		done := e.balance.BossThreshold - e.st.BattlesUntilBoss
		e.log.Addf(eventlog.KindSystem, "%s appears! (boss in %d/%d)", e.st.Enemy.Name, done, e.balance.BossThreshold)
	} else {
		e.log.Addf(eventlog.KindSystem, "%s appears!", e.st.Enemy.Name)
	}
}

// collect stores a looted item and, when enabled, offers it to auto-equip.
func (e *Engine) collect(it *party.Item) {
	p := e.st.Party
	if err := p.AddItem(it); err != nil {
		e.log.AddDetails(eventlog.KindError, fmt.Sprintf("Found %s but the inventory is full; it was lost.", it.Name), it.Description)
		return
	}
	e.log.AddDetails(eventlog.KindLoot, fmt.Sprintf("Looted %s (%s)!", it.Name, it.Rarity), it.Description)
	if !e.st.Automation.AutoEquip {
		return
	}
	if res, ok := equip.AutoEquip(e.balance, p, it.ID); ok {
		e.logEquip(res, true)
	}
}

func (e *Engine) logEquip(res equip.Result, auto bool) {
	verb := "equipped"
	if auto {
		verb = "auto-equipped"
	}
	switch {
	case res.Destroyed:
		e.log.Addf(eventlog.KindError, "%s %s %s; %s was destroyed for lack of inventory space.",
			res.Member.Name, verb, res.Item.Name, res.Displaced.Name)
	case res.Displaced != nil:
		e.log.Addf(eventlog.KindLoot, "%s %s %s, replacing %s.", res.Member.Name, verb, res.Item.Name, res.Displaced.Name)
	default:
		e.log.Addf(eventlog.KindLoot, "%s %s %s.", res.Member.Name, verb, res.Item.Name)
	}
}

func (e *Engine) enemyAttack(now time.Time) {
	if now.Sub(e.st.LastEnemyAttackAt) < e.balance.EnemyAttackInterval {
		return
	}
	e.st.LastEnemyAttackAt = now
	en := e.st.Enemy
	if !en.Alive() {
		return
	}
	p := e.st.Party
	targets := p.Fighting()
	if len(targets) == 0 {
		return
	}
	target := targets[e.roller.Intn(len(targets))]
	ts := p.Stats(e.balance, target)
	attacker := combat.Profile{Name: en.Name, AttackBonus: en.AttackBonus, DamageBonus: en.DamageBonus, WeaponDice: en.WeaponDice}
	res := combat.ResolveAttack(e.roller, attacker, target.Name, ts.ArmorClass, e.rules)
	if res.Outcome.Landed() {
		target.CurrentHealth = max(0, target.CurrentHealth-res.Damage)
	}
	e.logAttack(res)

	if target.CurrentHealth <= 0 && target.Active {
		target.Active = false
		e.log.Addf(eventlog.KindParty, "%s has fallen!", target.Name)
	}
	if !p.AnyFighting() {
		e.wipe()
	}
}

func (e *Engine) wipe() {
	e.st.Wiped = true
	e.log.Addf(eventlog.KindError, "The party has been wiped out! Reviving in %s...", e.balance.RevivalDelay)
	if e.cancelRevival != nil {
		e.cancelRevival()
	}
	e.cancelRevival = e.sched.AfterFunc(e.balance.RevivalDelay, e.Revive)
}

// Revive restores a wiped party: every unlocked member returns at the
// revival fraction of max health, and an in-progress boss fight is abandoned
// for a regular enemy with the countdown re-armed.
//
// Postcondition: no-op unless the party is wiped.
func (e *Engine) Revive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.Wiped {
		return
	}
	p := e.st.Party
	for _, m := range p.Members {
		if !m.Unlocked {
			continue
		}
		maxHealth := p.Stats(e.balance, m).MaxHealth
		m.CurrentHealth = max(1, int(math.Floor(float64(maxHealth)*e.balance.RevivalPercent)))
		m.Active = true
		m.LastAttackAt = time.Time{}
	}
	e.log.Add(eventlog.KindParty, "The party has been revived!")
	if e.st.BossActive() {
		e.transition(evAbortBoss)
		e.st.BattlesUntilBoss = e.balance.BossThreshold
		e.st.Enemy = enemy.Regular(e.balance, e.st.Stage, p.NGPlusLevel, e.clock.Now())
		e.log.Add(eventlog.KindSystem, "The boss fight was lost. Starting over against regular enemies.")
	}
	e.st.Wiped = false
	e.cancelRevival = nil
	e.checkpoint = true
	e.logger.Info("party revived", zap.Int("stage", e.st.Stage))
}

func (e *Engine) regenerate(now time.Time) {
	if now.Sub(e.st.LastHealAt) < e.balance.RegenInterval {
		return
	}
	e.st.LastHealAt = now
	p := e.st.Party
	for _, m := range p.Members {
		if !m.Fighting() || m.CurrentHealth <= 0 {
			continue
		}
		maxHealth := p.Stats(e.balance, m).MaxHealth
		if m.CurrentHealth >= maxHealth {
			continue
		}
		heal := max(1, int(math.Floor(float64(maxHealth)*e.balance.RegenPercent)))
		m.CurrentHealth = min(maxHealth, m.CurrentHealth+heal)
	}
}
