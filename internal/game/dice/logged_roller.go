package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// Every roll is logged at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// D20 rolls a single d20 and logs it.
//
// Postcondition: returns a value in [1, 20].
func (r *Roller) D20() int {
	v := RollD20(r.src)
	r.logger.Debug("d20 roll", zap.Int("roll", v))
	return v
}

// Roll evaluates expr with the given flat modifier and logs the result.
//
// Postcondition: result.Modifier == modifier; result logged at debug level.
func (r *Roller) Roll(expr Expression, modifier int) RollResult {
	result := Roll(expr, r.src)
	result.Modifier = modifier
	r.logger.Debug("dice roll",
		zap.String("roll", result.String()),
		zap.Int("total", result.Total()),
	)
	return result
}

// Intn forwards to the underlying Source so a Roller can be used wherever a
// Source is expected.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// Float64 forwards to the underlying Source.
func (r *Roller) Float64() float64 {
	return r.src.Float64()
}
