// Package dice provides the randomness abstraction, dice-string parsing, and
// roll-result types used by the idle party combat engine.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// DiceTotal returns the sum of the die results without the modifier.
func (r RollResult) DiceTotal() int {
	return r.Total() - r.Modifier
}

// String returns a human-readable audit string in the format:
//
//	"2d6 → [4 5] +3 = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	diceStr := fmt.Sprintf("%v", r.Dice)
	modStr := fmt.Sprintf("%+d", r.Modifier)
	return fmt.Sprintf("%s → %s %s = %d", r.Expression, diceStr, modStr, r.Total())
}

// Source is the randomness provider for dice rolls and weighted draws.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0.0, 1.0).
	Float64() float64
}

// RollDice returns the sum of count independent uniform integers in [1, sides].
//
// Precondition: count >= 0; sides >= 1; src must be non-nil.
// Postcondition: count <= result <= count*sides.
func RollDice(src Source, count, sides int) int {
	total := 0
	for i := 0; i < count; i++ {
		total += src.Intn(sides) + 1
	}
	return total
}

// RollD20 returns a uniform integer in [1, 20].
func RollD20(src Source) int {
	return src.Intn(20) + 1
}
