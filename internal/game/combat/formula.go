package combat

import (
	"math"
	"time"

	"github.com/cory-johannsen/quizboss/internal/game/question"
)

// minTimeLimit keeps the time ratio finite for zero-length questions.
const minTimeLimit = 10 * time.Millisecond

// Formula converts a correct answer into boss damage.
type Formula struct {
	BaseEasy   float64
	BaseMedium float64
	BaseHard   float64
	// ComboBonus is the multiplier gained per combo step.
	ComboBonus float64
	// MaxMultiplier caps the combo multiplier.
	MaxMultiplier float64
	// TimeBonusMax is the extra multiplier for answering instantly.
	TimeBonusMax float64
}

// DefaultFormula returns the stock tuning.
func DefaultFormula() Formula {
	return Formula{
		BaseEasy:      8,
		BaseMedium:    12,
		BaseHard:      18,
		ComboBonus:    0.15,
		MaxMultiplier: 2,
		TimeBonusMax:  0.5,
	}
}

// AnswerInput is everything the formula reads about one correct answer.
type AnswerInput struct {
	Difficulty question.Difficulty
	// Combo is the streak before this answer counts.
	Combo     int
	Remaining time.Duration
	TimeLimit time.Duration
	// NextAnswerBonus is the consumed one-shot multiplier bonus.
	NextAnswerBonus float64
}

// Damage computes the damage of a correct answer. The result is rounded up
// once, after every multiplier is applied.
//
// Postcondition: Damage(in) >= ceil(base) for any combo >= 0 and bonus >= 0.
func (f Formula) Damage(in AnswerInput) int {
	base := f.base(in.Difficulty)

	combo := float64(in.Combo) * f.ComboBonus
	if limit := f.MaxMultiplier - 1; combo > limit {
		combo = limit
	}
	comboMult := 1 + combo

	limit := in.TimeLimit
	if limit < minTimeLimit {
		limit = minTimeLimit
	}
	ratio := clamp01(in.Remaining.Seconds() / limit.Seconds())
	timeMult := 1 + f.TimeBonusMax*ratio

	bonusMult := 1 + math.Max(0, in.NextAnswerBonus)

	return int(math.Ceil(base * comboMult * timeMult * bonusMult))
}

func (f Formula) base(d question.Difficulty) float64 {
	switch d {
	case question.Easy:
		return f.BaseEasy
	case question.Hard:
		return f.BaseHard
	default:
		return f.BaseMedium
	}
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
