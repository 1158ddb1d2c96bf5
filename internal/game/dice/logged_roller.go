package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so every combat roll is logged at debug
// level with what it decided, the raw value, and the threshold it was
// compared against.
//
// Roller itself satisfies Source; unlabelled draws are logged as "draw".
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

// Percent rolls Float64()·100 and reports whether it landed strictly under
// chance (a percentage).
//
// Postcondition: returns the roll alongside the outcome.
func (r *Roller) Percent(label string, chance float64) (bool, float64) {
	roll := r.src.Float64() * 100
	ok := roll < chance
	r.logger.Debug("percentile roll",
		zap.String("roll_for", label),
		zap.Float64("roll", roll),
		zap.Float64("chance", chance),
		zap.Bool("success", ok),
	)
	return ok, roll
}

// Probability reports whether Float64() is strictly under p.
func (r *Roller) Probability(label string, p float64) bool {
	roll := r.src.Float64()
	ok := roll < p
	r.logger.Debug("probability roll",
		zap.String("roll_for", label),
		zap.Float64("roll", roll),
		zap.Float64("p", p),
		zap.Bool("success", ok),
	)
	return ok
}

// Fraction returns a logged Float64 draw.
func (r *Roller) Fraction(label string) float64 {
	v := r.src.Float64()
	r.logger.Debug("fraction roll", zap.String("roll_for", label), zap.Float64("roll", v))
	return v
}

// Pick returns a logged uniform index in [0, n).
//
// Precondition: n > 0.
func (r *Roller) Pick(label string, n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("pick roll", zap.String("roll_for", label), zap.Int("n", n), zap.Int("index", v))
	return v
}

// Expr parses and rolls a dice expression, logging the kept dice and total.
func (r *Roller) Expr(label, expr string) (RollResult, error) {
	res, err := RollExpr(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("expression roll",
		zap.String("roll_for", label),
		zap.String("expression", res.Expression),
		zap.Ints("dice", res.Dice),
		zap.Int("total", res.Total()),
	)
	return res, nil
}

// Intn implements Source.
func (r *Roller) Intn(n int) int { return r.Pick("draw", n) }

// Float64 implements Source.
func (r *Roller) Float64() float64 { return r.Fraction("draw") }
