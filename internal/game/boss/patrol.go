package boss

import (
	"math"
	"time"

	"github.com/jakecoffman/cp"
)

// minOrbitRadius below which the orbit does not turn.
const minOrbitRadius = 0.001

// PatrolConfig tunes the orbit the boss walks while a question is open.
type PatrolConfig struct {
	Enabled bool
	Radius  float64
	// Speed is linear, in units per second.
	Speed float64
	// Range is the attack range; outside it the boss does not patrol.
	Range float64
}

// Patrol circles the boss around the player during a question.
type Patrol struct {
	cfg    PatrolConfig
	angle  float64
	active bool
}

// NewPatrol returns an idle patrol starting its orbit at startAngle radians.
func NewPatrol(cfg PatrolConfig, startAngle float64) *Patrol {
	return &Patrol{cfg: cfg, angle: startAngle}
}

// Active reports whether the boss is patrolling.
func (p *Patrol) Active() bool { return p.active }

// Begin starts patrolling when enabled and the player is within range.
func (p *Patrol) Begin(self, player cp.Vector) {
	p.active = p.cfg.Enabled && self.Distance(player) <= p.cfg.Range
}

// Stop ends the patrol.
func (p *Patrol) Stop() { p.active = false }

// Step advances the orbit by dt and returns the boss's next position. The
// patrol stops once the player leaves attack range.
//
// Postcondition: Returns (self, false) when not patrolling; the returned
// position is never more than Speed*dt from self.
func (p *Patrol) Step(self, player cp.Vector, dt time.Duration) (cp.Vector, bool) {
	if !p.active {
		return self, false
	}
	if self.Distance(player) > p.cfg.Range {
		p.active = false
		return self, false
	}
	radius := math.Min(p.cfg.Radius, p.cfg.Range)
	secs := dt.Seconds()
	if radius > minOrbitRadius {
		p.angle += p.cfg.Speed / radius * secs
	}
	desired := player.Add(cp.ForAngle(p.angle).Mult(radius))
	return self.LerpConst(desired, p.cfg.Speed*secs), true
}
