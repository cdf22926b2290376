package automation

import (
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/idleparty/internal/game/dice"
	"github.com/cory-johannsen/idleparty/internal/game/engine"
	"github.com/cory-johannsen/idleparty/internal/game/ruleset"
)

// HookChooseUpgrade is the global Lua function an upgrade script defines:
//
//	function choose_upgrade(gold, options) ... return "attack" end
//
// options is an array of tables with fields type, name, level, cost, capped
// and affordable. Returning nil buys nothing.
const HookChooseUpgrade = "choose_upgrade"

var (
	// ErrMissingHook is returned when a script does not define choose_upgrade.
	ErrMissingHook = errors.New("automation: script does not define " + HookChooseUpgrade)
	// ErrInvalidChoice is returned when the script names an unknown upgrade.
	ErrInvalidChoice = errors.New("automation: script chose an unknown upgrade")
)

// UpgradeScript is an engine.UpgradeChooser backed by a Lua script.
// Calls are serialized; an LState is single-threaded.
type UpgradeScript struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger
}

// LoadFile loads the upgrade script at path.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: returns ErrMissingHook if choose_upgrade is not defined.
func LoadFile(path string, instLimit int, roller *dice.Roller, logger *zap.Logger) (*UpgradeScript, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("automation: reading %q: %w", path, err)
	}
	s, err := LoadString(string(src), instLimit, roller, logger)
	if err != nil {
		return nil, fmt.Errorf("automation: loading %q: %w", path, err)
	}
	return s, nil
}

// LoadString loads an upgrade script from source text.
func LoadString(src string, instLimit int, roller *dice.Roller, logger *zap.Logger) (*UpgradeScript, error) {
	s := &UpgradeScript{
		L:      NewSandboxedState(),
		limit:  instLimit,
		roller: roller,
		logger: logger,
	}
	s.registerModules()
	if err := withBudget(s.L, s.limit, func() error { return s.L.DoString(src) }); err != nil {
		s.L.Close()
		return nil, err
	}
	if s.L.GetGlobal(HookChooseUpgrade).Type() != lua.LTFunction {
		s.L.Close()
		return nil, ErrMissingHook
	}
	return s, nil
}

// registerModules installs the game table: game.log(msg) writes to the
// diagnostic log and game.roll(expr) rolls dice such as "2d6".
func (s *UpgradeScript) registerModules() {
	L := s.L
	game := L.NewTable()
	L.SetField(game, "log", L.NewFunction(func(L *lua.LState) int {
		s.logger.Info("automation script", zap.String("message", L.CheckString(1)))
		return 0
	}))
	L.SetField(game, "roll", L.NewFunction(func(L *lua.LState) int {
		expr, err := dice.Parse(L.CheckString(1))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(s.roller.Roll(expr, 0).Total()))
		return 1
	}))
	L.SetGlobal("game", game)
}

// ChooseUpgrade calls choose_upgrade with the party's gold and the current
// upgrade options.
//
// Postcondition: a non-nil error means the script failed or answered with a
// type not among options; ok is false when the script returned nil.
func (s *UpgradeScript) ChooseUpgrade(gold int, options []engine.UpgradeOption) (ruleset.UpgradeType, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	L := s.L

	opts := L.NewTable()
	for _, o := range options {
		t := L.NewTable()
		L.SetField(t, "type", lua.LString(o.Type))
		L.SetField(t, "name", lua.LString(o.Name))
		L.SetField(t, "level", lua.LNumber(o.Level))
		L.SetField(t, "cost", lua.LNumber(o.Cost))
		L.SetField(t, "capped", lua.LBool(o.Capped))
		L.SetField(t, "affordable", lua.LBool(o.Affordable))
		opts.Append(t)
	}

	var ret lua.LValue
	err := withBudget(L, s.limit, func() error {
		if err := L.CallByParam(lua.P{
			Fn:      L.GetGlobal(HookChooseUpgrade),
			NRet:    1,
			Protect: true,
		}, lua.LNumber(gold), opts); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("automation: %s: %w", HookChooseUpgrade, err)
	}
	if ret == lua.LNil {
		return "", false, nil
	}
	choice, isString := ret.(lua.LString)
	if !isString {
		return "", false, fmt.Errorf("%w: got %s", ErrInvalidChoice, ret.Type())
	}
	for _, o := range options {
		if o.Type == ruleset.UpgradeType(choice) {
			return o.Type, true, nil
		}
	}
	return "", false, fmt.Errorf("%w: %q", ErrInvalidChoice, string(choice))
}

// Close releases the Lua state.
func (s *UpgradeScript) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}
