package combat

import (
	"math"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// DriveMode selects who advances an attack from Windup to Active to Idle.
type DriveMode int

const (
	// DriveTimed starts Active after Windup and ends it after Active.
	DriveTimed DriveMode = iota
	// DriveMarkers waits for BeginActive and EndActive calls from outside.
	// An attack without windup starts Active at once on either drive.
	DriveMarkers
)

// ParseDriveMode maps a config string to a DriveMode; unknown values are timed.
func ParseDriveMode(s string) DriveMode {
	if s == "markers" {
		return DriveMarkers
	}
	return DriveTimed
}

// AttackState is the phase of a Sequencer.
type AttackState int

const (
	AttackIdle AttackState = iota
	AttackWindup
	AttackActive
)

func (s AttackState) String() string {
	switch s {
	case AttackWindup:
		return "windup"
	case AttackActive:
		return "active"
	default:
		return "idle"
	}
}

// Positioner reports a world position.
type Positioner interface {
	Position() cp.Vector
}

// SequencerConfig tunes one attacker.
type SequencerConfig struct {
	Windup time.Duration
	Active time.Duration
	Drive  DriveMode
	// MarkerTimeout is how long a marker-driven attack waits for its begin
	// marker before starting Active on the timed schedule; zero waits forever.
	// Set it to Windup for the same net timing as DriveTimed.
	MarkerTimeout time.Duration

	AimAtTarget bool
	// AngleOffset is added to the aim angle, in radians.
	AngleOffset         float64
	AdvanceTowardTarget bool
	ForwardDistance     float64
	// LockPrediction freezes the aim computed at queue time for the telegraph.
	LockPrediction bool
	DefaultPose    Pose
}

// AttackResolved is published each time an attack returns to Idle normally.
type AttackResolved struct {
	Damage int
	// Hits is the number of distinct targets damaged.
	Hits int
}

// Sequencer runs one attack at a time through Windup, Active and back to Idle.
// Not safe for concurrent use; the session goroutine owns it.
type Sequencer struct {
	cfg    SequencerConfig
	hitbox *Hitbox
	sched  *clock.Scheduler
	self   Positioner
	target Positioner

	state     AttackState
	damage    int
	predicted *Pose
	epoch     clock.Epoch

	resolved signal.Topic[AttackResolved]
}

// NewSequencer builds an idle sequencer driving hitbox.
//
// Precondition: hitbox and sched must not be nil.
func NewSequencer(cfg SequencerConfig, hitbox *Hitbox, sched *clock.Scheduler, self Positioner) *Sequencer {
	if hitbox == nil || sched == nil {
		panic("combat.NewSequencer: hitbox and sched must not be nil")
	}
	return &Sequencer{cfg: cfg, hitbox: hitbox, sched: sched, self: self}
}

// SetTarget sets the position the attack aims at. nil means no target.
func (s *Sequencer) SetTarget(p Positioner) {
	s.target = p
}

// State returns the current attack phase.
func (s *Sequencer) State() AttackState {
	return s.state
}

// Busy reports whether an attack is in flight.
func (s *Sequencer) Busy() bool {
	return s.state != AttackIdle
}

// Hitbox returns the hitbox the sequencer drives.
func (s *Sequencer) Hitbox() *Hitbox {
	return s.hitbox
}

// OnResolved subscribes to AttackResolved.
func (s *Sequencer) OnResolved(fn func(AttackResolved)) signal.Subscription {
	return s.resolved.Subscribe(fn)
}

// QueueAttack starts an attack dealing damage.
//
// Postcondition: Returns false and changes nothing while another attack is in flight.
func (s *Sequencer) QueueAttack(damage int) bool {
	if s.state != AttackIdle {
		return false
	}
	s.epoch.Bump()
	s.state = AttackWindup
	s.damage = damage
	s.predicted = nil
	if s.cfg.LockPrediction {
		s.Predict()
	}

	switch {
	case s.cfg.Windup <= 0:
		s.forceBegin()
	case s.cfg.Drive == DriveMarkers:
		if s.cfg.MarkerTimeout > 0 {
			s.sched.After(s.cfg.MarkerTimeout, s.epoch.Guard(s.forceBegin))
		}
	default:
		s.sched.After(s.cfg.Windup, s.epoch.Guard(s.forceBegin))
	}
	return true
}

// Predict computes the aim pose for the telegraph and freezes it so Active
// uses the same pose. Only meaningful during Windup.
func (s *Sequencer) Predict() (Pose, bool) {
	if s.state != AttackWindup {
		return Pose{}, false
	}
	p := s.aim()
	s.predicted = &p
	return p, true
}

// Predicted returns the frozen telegraph pose, if one was computed.
func (s *Sequencer) Predicted() (Pose, bool) {
	if s.predicted == nil {
		return Pose{}, false
	}
	return *s.predicted, true
}

// BeginActive moves a winding-up attack into Active: the hit volume is posed
// and the hitbox armed. A marker-driven attack then waits for EndActive, at
// most max(MarkerTimeout, Active) when MarkerTimeout is set. Calls in any
// other state are ignored.
func (s *Sequencer) BeginActive() {
	if s.cfg.Drive != DriveMarkers {
		s.forceBegin()
		return
	}
	if s.cfg.MarkerTimeout > 0 {
		s.begin(max(s.cfg.MarkerTimeout, s.cfg.Active), true)
		return
	}
	s.begin(0, false)
}

// forceBegin starts Active on the timed schedule, for the timed drive and for
// a marker-driven attack whose begin marker never arrived.
func (s *Sequencer) forceBegin() {
	s.begin(s.cfg.Active, true)
}

// begin arms the attack. When bounded, EndActive is scheduled end from now,
// ahead of the hitbox watchdog for the same deadline so it still sees the
// hit set.
func (s *Sequencer) begin(end time.Duration, bounded bool) {
	if s.state != AttackWindup {
		return
	}
	s.state = AttackActive
	if bounded {
		s.sched.After(end, s.epoch.Guard(s.EndActive))
	}
	pose := s.aim()
	if s.predicted != nil {
		pose = *s.predicted
	}
	s.hitbox.SetPose(pose)
	s.hitbox.Activate(end, s.damage)
}

// EndActive returns an active attack to Idle and publishes AttackResolved.
// Calls in any other state are ignored.
func (s *Sequencer) EndActive() {
	if s.state != AttackActive {
		return
	}
	res := AttackResolved{Damage: s.damage, Hits: len(s.hitbox.HitTargets())}
	s.reset()
	s.resolved.Publish(res)
}

// Cancel aborts the attack in flight without publishing AttackResolved.
func (s *Sequencer) Cancel() {
	if s.state == AttackIdle {
		return
	}
	s.reset()
}

func (s *Sequencer) reset() {
	s.epoch.Bump()
	s.state = AttackIdle
	s.predicted = nil
	s.hitbox.Deactivate()
	s.hitbox.ResetPose()
}

func (s *Sequencer) aim() Pose {
	pose := s.cfg.DefaultPose
	if s.target == nil || s.self == nil {
		return pose
	}
	dir := s.target.Position().Sub(s.self.Position())
	dist := dir.Length()
	if dist == 0 {
		return pose
	}
	if s.cfg.AimAtTarget {
		pose.Angle = dir.ToAngle() + s.cfg.AngleOffset
	}
	if s.cfg.AdvanceTowardTarget && s.cfg.ForwardDistance > 0 {
		step := math.Min(dist, s.cfg.ForwardDistance)
		pose.Offset = pose.Offset.Add(cp.ForAngle(pose.Angle).Mult(step))
	}
	return pose
}
