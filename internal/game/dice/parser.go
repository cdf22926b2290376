package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// dicePattern accepts only the bare "NdM" form; modifiers are not supported.
var dicePattern = regexp.MustCompile(`^(\d+)d(\d+)$`)

// Upper bounds on a parsed expression.
const (
	MaxDiceCount = 100
	MaxDiceSides = 1000
)

// Expression represents a parsed "NdM" dice expression ready to be rolled.
//
// Invariant: 1 <= Count <= MaxDiceCount and 1 <= Sides <= MaxDiceSides after
// a successful parse.
type Expression struct {
	Count int // number of dice
	Sides int // faces per die
}

// String returns the canonical "NdM" form.
func (e Expression) String() string {
	return fmt.Sprintf("%dd%d", e.Count, e.Sides)
}

// Average returns the expected value of a single roll of e.
//
// Postcondition: Returns Count * (Sides + 1) / 2.
func (e Expression) Average() float64 {
	return float64(e.Count) * float64(e.Sides+1) / 2
}

// ParseDiceString parses a strict "NdM" string, case-insensitively.
// "d6", "2d", "", and "2d6+3" are all rejected.
//
// Postcondition: ok is true iff s matches ^\d+d\d+$ with Count in
// [1, MaxDiceCount] and Sides in [1, MaxDiceSides].
func ParseDiceString(s string) (expr Expression, ok bool) {
	m := dicePattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return Expression{}, false
	}
	count, err := strconv.Atoi(m[1])
	if err != nil || count <= 0 || count > MaxDiceCount {
		return Expression{}, false
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides <= 0 || sides > MaxDiceSides {
		return Expression{}, false
	}
	return Expression{Count: count, Sides: sides}, true
}

// Parse is the error-returning form of ParseDiceString, used when validating
// static configuration.
//
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(s string) (Expression, error) {
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	e, ok := ParseDiceString(s)
	if !ok {
		return Expression{}, fmt.Errorf("dice: %q is not of the form NdM with at most %d dice of %d sides", s, MaxDiceCount, MaxDiceSides)
	}
	return e, nil
}

// Roll evaluates an Expression using the given Source.
//
// Counts above MaxDiceCount are clamped so a hand-built Expression cannot
// force an unbounded allocation.
//
// Precondition: src must be non-nil.
// Postcondition: len(result.Dice) == min(expr.Count, MaxDiceCount); result.Modifier == 0.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, max(0, min(expr.Count, MaxDiceCount)))
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{
		Expression: expr.String(),
		Dice:       rolled,
	}
}
