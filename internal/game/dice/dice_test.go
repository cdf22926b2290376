package dice_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idleparty/internal/game/dice"
)

// TestRollResult_Total verifies the postcondition: Total() == sum(Dice) + Modifier.
func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, 12, r.Total(), "Total() must equal sum(Dice)+Modifier")
	assert.Equal(t, 9, r.DiceTotal())
}

// TestRollResult_String verifies the audit string contains expression, dice, and total.
func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, "2d6 → [4 5] +3 = 12", r.String())
}

func TestRollResult_String_PanicsOnEmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}}
	assert.Panics(t, func() { _ = r.String() })
}

func TestRollResult_String_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.StringMatching(`[1-9]d[1-9][0-9]?`).Draw(rt, "expression")
		dice_ := rapid.SliceOfN(rapid.IntRange(1, 20), 1, 10).Draw(rt, "dice")
		modifier := rapid.IntRange(-100, 100).Draw(rt, "modifier")

		r := dice.RollResult{Expression: expr, Dice: dice_, Modifier: modifier}
		s := r.String()
		assert.True(rt, strings.Contains(s, expr))
		assert.Contains(rt, s, fmt.Sprintf("%d", r.Total()))
	})
}

func TestParseDiceString(t *testing.T) {
	tests := []struct {
		in    string
		want  dice.Expression
		valid bool
	}{
		{"2d6", dice.Expression{Count: 2, Sides: 6}, true},
		{"1d20", dice.Expression{Count: 1, Sides: 20}, true},
		{"3D8", dice.Expression{Count: 3, Sides: 8}, true},
		{"d6", dice.Expression{}, false},
		{"2d", dice.Expression{}, false},
		{"", dice.Expression{}, false},
		{"2d6+3", dice.Expression{}, false},
		{"0d6", dice.Expression{}, false},
		{"2d0", dice.Expression{}, false},
		{" 2d6", dice.Expression{}, false},
		{"two d six", dice.Expression{}, false},
	}
	for _, tc := range tests {
		got, ok := dice.ParseDiceString(tc.in)
		assert.Equal(t, tc.valid, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParse_ReturnsErrorForInvalid(t *testing.T) {
	_, err := dice.Parse("")
	require.Error(t, err)
	_, err = dice.Parse("1d6+2")
	require.Error(t, err)
	e, err := dice.Parse("1d8")
	require.NoError(t, err)
	assert.Equal(t, "1d8", e.String())
}

func TestParse_RejectsOversizedExpressions(t *testing.T) {
	for _, in := range []string{"3000000000d6", "101d6", "1d1001", "99999999999999999999d6", "2d4294967296"} {
		_, ok := dice.ParseDiceString(in)
		assert.False(t, ok, "input %q", in)
		_, err := dice.Parse(in)
		assert.Error(t, err, "input %q", in)
	}
	e, err := dice.Parse("100d1000")
	require.NoError(t, err)
	assert.Equal(t, dice.Expression{Count: dice.MaxDiceCount, Sides: dice.MaxDiceSides}, e)
}

func TestParseDiceString_Property_Bounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(0, 1<<40).Draw(rt, "count")
		sides := rapid.IntRange(0, 1<<40).Draw(rt, "sides")
		e, ok := dice.ParseDiceString(fmt.Sprintf("%dd%d", count, sides))
		want := count >= 1 && count <= dice.MaxDiceCount && sides >= 1 && sides <= dice.MaxDiceSides
		require.Equal(rt, want, ok)
		if ok {
			assert.Equal(rt, dice.Expression{Count: count, Sides: sides}, e)
		}
	})
}

func TestRoll_ClampsHandBuiltCount(t *testing.T) {
	r := dice.Roll(dice.Expression{Count: 3_000_000_000, Sides: 6}, dice.NewSeededSource(3))
	assert.Len(t, r.Dice, dice.MaxDiceCount)
}

func TestExpression_Average(t *testing.T) {
	assert.InDelta(t, 7.0, mustParse(t, "2d6").Average(), 1e-9)
	assert.InDelta(t, 3.5, mustParse(t, "1d6").Average(), 1e-9)
}

func TestParseDiceString_Property_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 50).Draw(rt, "count")
		sides := rapid.IntRange(1, 100).Draw(rt, "sides")
		e, ok := dice.ParseDiceString(fmt.Sprintf("%dd%d", count, sides))
		require.True(rt, ok)
		assert.Equal(rt, count, e.Count)
		assert.Equal(rt, sides, e.Sides)
	})
}

func TestRollDice_Property_InRange(t *testing.T) {
	src := dice.NewSeededSource(42)
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(0, 10).Draw(rt, "count")
		sides := rapid.IntRange(1, 20).Draw(rt, "sides")
		v := dice.RollDice(src, count, sides)
		assert.GreaterOrEqual(rt, v, count)
		assert.LessOrEqual(rt, v, count*sides)
	})
}

func TestRollD20_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		v := dice.RollD20(src)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 20)
		seen[v] = true
	}
	assert.Len(t, seen, 20, "2000 rolls should cover every face")
}

func TestRoll_DiceCountMatchesExpression(t *testing.T) {
	r := dice.Roll(mustParse(t, "3d4"), dice.NewSeededSource(7))
	assert.Len(t, r.Dice, 3)
	assert.Equal(t, "3d4", r.Expression)
	for _, d := range r.Dice {
		assert.GreaterOrEqual(t, d, 1)
		assert.LessOrEqual(t, d, 4)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestCryptoSource_Float64_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		f := src.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(99)
	b := dice.NewSeededSource(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestLoggedRoller_LogsAuditString(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewLoggedRoller(dice.NewSeededSource(5), zap.New(core))
	res := r.Roll(mustParse(t, "2d6"), 3)

	entries := logs.FilterMessage("dice roll").All()
	require.Len(t, entries, 1)
	assert.Equal(t, res.String(), entries[0].ContextMap()["roll"])
	assert.Equal(t, int64(res.Total()), entries[0].ContextMap()["total"])
}

func TestLoggedRoller_RollCarriesModifier(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop())
	res := r.Roll(mustParse(t, "1d6"), 4)
	assert.Equal(t, 4, res.Modifier)
	assert.Equal(t, res.DiceTotal()+4, res.Total())
	d := r.D20()
	assert.GreaterOrEqual(t, d, 1)
	assert.LessOrEqual(t, d, 20)
}

func mustParse(t *testing.T, s string) dice.Expression {
	t.Helper()
	e, err := dice.Parse(s)
	require.NoError(t, err)
	return e
}
