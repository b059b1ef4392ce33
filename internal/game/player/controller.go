package player

import (
	"time"

	"github.com/jakecoffman/cp"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// Body is the physics body the controller steers.
type Body interface {
	Position() cp.Vector
	SetVelocity(v cp.Vector)
}

// ControllerConfig tunes movement.
type ControllerConfig struct {
	MoveSpeed    float64
	DashSpeed    float64
	DashDuration time.Duration
	DashCooldown time.Duration
}

// DefaultControllerConfig returns the stock tuning.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MoveSpeed:    6,
		DashSpeed:    12,
		DashDuration: 150 * time.Millisecond,
		DashCooldown: 1200 * time.Millisecond,
	}
}

// Controller turns directional input and dashes into body velocity. It
// satisfies powerplay.SpeedBuffable.
type Controller struct {
	cfg   ControllerConfig
	sched *clock.Scheduler
	bus   *signal.Bus
	body  Body

	moveSpeed float64
	dashSpeed float64

	input        cp.Vector
	facing       cp.Vector
	inputEnabled bool

	dashing   bool
	dashEnd   time.Duration
	lastDash  time.Duration
	hasDashed bool
}

// NewController returns an enabled controller facing right. body may be nil
// until the arena is attached.
//
// Precondition: sched and bus must not be nil.
func NewController(cfg ControllerConfig, sched *clock.Scheduler, bus *signal.Bus, body Body) *Controller {
	if sched == nil || bus == nil {
		panic("player.NewController: sched and bus must not be nil")
	}
	return &Controller{
		cfg:          cfg,
		sched:        sched,
		bus:          bus,
		body:         body,
		moveSpeed:    cfg.MoveSpeed,
		dashSpeed:    cfg.DashSpeed,
		facing:       cp.Vector{X: 1},
		inputEnabled: true,
	}
}

// SetBody attaches the physics body.
func (c *Controller) SetBody(b Body) { c.body = b }

// Position returns the body position, or the origin without a body.
func (c *Controller) Position() cp.Vector {
	if c.body == nil {
		return cp.Vector{}
	}
	return c.body.Position()
}

func (c *Controller) MoveSpeed() float64     { return c.moveSpeed }
func (c *Controller) SetMoveSpeed(v float64) { c.moveSpeed = v }
func (c *Controller) DashSpeed() float64     { return c.dashSpeed }
func (c *Controller) SetDashSpeed(v float64) { c.dashSpeed = v }

// InputEnabled reports whether movement input is accepted.
func (c *Controller) InputEnabled() bool { return c.inputEnabled }

// SetInputEnabled freezes or unfreezes the player. Freezing stops the body.
func (c *Controller) SetInputEnabled(v bool) {
	c.inputEnabled = v
	if !v {
		c.dashing = false
		c.setVelocity(cp.Vector{})
	}
}

// SetInput sets the held movement direction. It is normalised; the zero
// vector stops the player.
func (c *Controller) SetInput(dir cp.Vector) {
	if dir.Length() == 0 {
		c.input = cp.Vector{}
		return
	}
	c.input = dir.Normalize()
	c.facing = c.input
}

// Input returns the held movement direction.
func (c *Controller) Input() cp.Vector { return c.input }

// Dashing reports whether a dash is in progress.
func (c *Controller) Dashing() bool { return c.dashing }

// Dash starts a dash in the held direction, or the facing direction when
// none is held, and publishes DodgeExecuted.
//
// Postcondition: Returns false when frozen or still on cooldown.
func (c *Controller) Dash() bool {
	if !c.inputEnabled {
		return false
	}
	now := c.sched.Now()
	if c.hasDashed && now-c.lastDash < c.cfg.DashCooldown {
		return false
	}
	c.dashing = true
	c.dashEnd = now + c.cfg.DashDuration
	c.lastDash = now
	c.hasDashed = true
	c.bus.DodgeExecuted.Publish(signal.DodgeExecuted{})
	return true
}

// Step applies the current velocity. Call once per physics step.
func (c *Controller) Step() {
	if !c.inputEnabled {
		c.setVelocity(cp.Vector{})
		return
	}
	if c.dashing {
		dir := c.input
		if dir.Length() == 0 {
			dir = c.facing
		}
		c.setVelocity(dir.Mult(c.dashSpeed))
		if c.sched.Now() >= c.dashEnd {
			c.dashing = false
		}
		return
	}
	c.setVelocity(c.input.Mult(c.moveSpeed))
}

func (c *Controller) setVelocity(v cp.Vector) {
	if c.body != nil {
		c.body.SetVelocity(v)
	}
}
