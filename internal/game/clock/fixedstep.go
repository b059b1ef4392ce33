package clock

import "time"

// FixedStep converts variable frame deltas into a whole number of fixed
// physics steps, carrying the remainder to the next frame.
type FixedStep struct {
	step     time.Duration
	maxSteps int
	acc      time.Duration
}

// NewFixedStep returns an accumulator for steps of length step. maxSteps
// bounds catch-up work after a stall; surplus time is dropped.
//
// Precondition: step > 0; maxSteps >= 1.
func NewFixedStep(step time.Duration, maxSteps int) *FixedStep {
	if step <= 0 {
		panic("clock.NewFixedStep: step must be > 0")
	}
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &FixedStep{step: step, maxSteps: maxSteps}
}

// Step returns the fixed step length.
func (f *FixedStep) Step() time.Duration {
	return f.step
}

// Accumulate adds dt and returns how many fixed steps are now due.
//
// Postcondition: 0 <= result <= maxSteps; the leftover is < step unless steps were dropped.
func (f *FixedStep) Accumulate(dt time.Duration) int {
	if dt > 0 {
		f.acc += dt
	}
	n := int(f.acc / f.step)
	if n > f.maxSteps {
		n = f.maxSteps
		f.acc = 0
		return n
	}
	f.acc -= time.Duration(n) * f.step
	return n
}
