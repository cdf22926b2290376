// Package engine is the combat and progression core: it owns the game state
// and applies timed ticks, revival and player intents to it atomically.
package engine

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idleparty/internal/clock"
	"github.com/cory-johannsen/idleparty/internal/game/combat"
	"github.com/cory-johannsen/idleparty/internal/game/dice"
	"github.com/cory-johannsen/idleparty/internal/game/eventlog"
	"github.com/cory-johannsen/idleparty/internal/game/loot"
	"github.com/cory-johannsen/idleparty/internal/game/party"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

var (
	// ErrPartyWiped is returned while the party waits for revival.
	ErrPartyWiped = errors.New("engine: party is wiped")
	// ErrNewGamePlusPending is returned while New Game Plus waits to start.
	ErrNewGamePlusPending = errors.New("engine: new game plus pending")
	// ErrNoActiveMembers is returned when nobody can fight.
	ErrNoActiveMembers = errors.New("engine: no active party members")
	// ErrBossNotDefeated is returned when advancing before the stage boss falls.
	ErrBossNotDefeated = errors.New("engine: stage boss not defeated")
	// ErrFirstStage is returned when retreating from stage 1.
	ErrFirstStage = errors.New("engine: already at the first stage")
	// ErrFinalBossNotDefeated is returned when starting New Game Plus too early.
	ErrFinalBossNotDefeated = errors.New("engine: final boss not defeated")
	// ErrAlreadyRecruited is returned when recruiting an unlocked member.
	ErrAlreadyRecruited = errors.New("engine: member already recruited")
	// ErrStageTooLow is returned when recruiting before the member's unlock stage.
	ErrStageTooLow = errors.New("engine: unlock stage not reached")
	// ErrUnknownAutomation is returned for an unknown automation toggle.
	ErrUnknownAutomation = errors.New("engine: unknown automation")
)

// Scheduler runs fn once after d. The returned function cancels it.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// timerScheduler keeps a single RevivalTimer. Scheduling again replaces the
// pending callback, which matches the engine's one-revival-at-a-time use.
type timerScheduler struct {
	mu sync.Mutex
	rt *combat.RevivalTimer
}

func (s *timerScheduler) AfterFunc(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt == nil {
		s.rt = combat.NewRevivalTimer(d, fn)
	} else {
		s.rt.Reset(d, fn)
	}
	return s.rt.Stop
}

// UpgradeOption describes one upgrade for an UpgradeChooser.
type UpgradeOption struct {
	Type       ruleset.UpgradeType
	Name       string
	Level      int
	Cost       int
	Capped     bool
	Affordable bool
}

// UpgradeChooser picks which upgrade automation buys. ok is false to buy
// nothing this round.
type UpgradeChooser interface {
	ChooseUpgrade(gold int, options []UpgradeOption) (choice ruleset.UpgradeType, ok bool, err error)
}

// Engine owns one game State. Every exported method is one atomic mutation
// or read; it is safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	balance *ruleset.Balance
	roster  *ruleset.Roster
	rules   combat.Rules
	roller  *dice.Roller
	loot    *loot.Generator
	log     *eventlog.Log
	logger  *zap.Logger
	clock   clock.Clock
	sched   Scheduler
	chooser UpgradeChooser

	st            *State
	phase         *phaseMachine
	checkpoint    bool
	cancelRevival func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Defaults to the system clock.
func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithSource sets the randomness source for dice and loot. Defaults to a
// crypto-backed source.
func WithSource(src dice.Source) Option {
	return func(e *Engine) { e.roller = dice.NewLoggedRoller(src, e.logger) }
}

// WithScheduler sets how revival is deferred. Defaults to a RevivalTimer.
func WithScheduler(s Scheduler) Option { return func(e *Engine) { e.sched = s } }

// WithEventLog sets the narrative log. Defaults to a log of balance.LogCap entries.
func WithEventLog(l *eventlog.Log) Option { return func(e *Engine) { e.log = l } }

// WithUpgradeChooser overrides the cheapest-first auto-upgrade policy.
func WithUpgradeChooser(c UpgradeChooser) Option { return func(e *Engine) { e.chooser = c } }

// WithLogger sets the diagnostic logger. Options after it see the new logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// New returns an Engine driving st, or a brand-new game when st is nil.
//
// Precondition: b and roster must be valid.
// Postcondition: the engine owns st; callers must not mutate it afterwards.
func New(b *ruleset.Balance, roster *ruleset.Roster, st *State, opts ...Option) *Engine {
	e := &Engine{
		balance: b,
		roster:  roster,
		rules:   combat.Rules{CritHit: b.CritHit, CritMiss: b.CritMiss},
		logger:  zap.NewNop(),
		clock:   clock.New(),
		sched:   &timerScheduler{},
	}
	for _, o := range opts {
		o(e)
	}
	if e.roller == nil {
		e.roller = dice.NewLoggedRoller(dice.NewCryptoSource(), e.logger)
	}
	if e.log == nil {
		e.log = eventlog.New(b.LogCap)
	}
	e.loot = loot.NewGenerator(b, e.roller)
	if st == nil {
		st = NewState(b, roster, e.clock.Now())
	}
	e.st = st
	e.phase = newPhaseMachine(st.Phase, e.logger)
	e.st.Phase = e.phase.current()
	if st.Wiped {
		e.cancelRevival = e.sched.AfterFunc(b.RevivalDelay, e.Revive)
	}
	return e
}

// Log returns the engine's narrative log.
func (e *Engine) Log() *eventlog.Log { return e.log }

// Balance returns the tunables the engine runs with.
func (e *Engine) Balance() *ruleset.Balance { return e.balance }

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Clone()
}

// TakeCheckpoint reports whether a save was requested since the last call,
// clearing the request.
func (e *Engine) TakeCheckpoint() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.checkpoint
	e.checkpoint = false
	return c
}

// RequestSave asks the owner of the engine to persist state at its next
// opportunity.
func (e *Engine) RequestSave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkpoint = true
}

// Close cancels a pending revival.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelRevival != nil {
		e.cancelRevival()
		e.cancelRevival = nil
	}
}

// MemberView is a member with its derived combat profile.
type MemberView struct {
	*party.Member
	Stats party.Stats `json:"stats"`
}

// View is a read-only projection of the game for presentation.
type View struct {
	State        *State                      `json:"state"`
	Members      []MemberView                `json:"members"`
	UpgradeCosts map[ruleset.UpgradeType]int `json:"upgradeCosts"`
	Log          []eventlog.Entry            `json:"log"`
}

// View returns a deep copy of the state with effective stats and upgrade
// prices attached.
func (e *Engine) View() View {
	e.mu.Lock()
	st := e.st.Clone()
	e.mu.Unlock()

	v := View{
		State:        st,
		Members:      make([]MemberView, len(st.Party.Members)),
		UpgradeCosts: make(map[ruleset.UpgradeType]int, len(ruleset.UpgradeTypes)),
		Log:          e.log.Entries(),
	}
	for i, m := range st.Party.Members {
		v.Members[i] = MemberView{Member: m, Stats: st.Party.Stats(e.balance, m)}
	}
	for _, t := range ruleset.UpgradeTypes {
		if cost, err := st.Party.UpgradeCost(e.balance, t); err == nil {
			v.UpgradeCosts[t] = cost
		}
	}
	return v
}

// transition fires a phase event and mirrors the result into the state.
func (e *Engine) transition(event string) {
	if err := e.phase.fire(event); err != nil {
		e.logger.Error("invalid phase transition",
			zap.String("event", event),
			zap.String("phase", string(e.phase.current())),
			zap.Error(err),
		)
	}
	e.st.Phase = e.phase.current()
}

// reject logs text as an error entry and returns err.
func (e *Engine) reject(err error, format string, args ...any) error {
	e.log.Addf(eventlog.KindError, format, args...)
	return err
}
