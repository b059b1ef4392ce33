// Package boss holds the boss's health, phase progression and the punish
// flow that follows a wrong answer.
package boss

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/combat"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// Phase is the boss's fight phase. Phases only move forward.
type Phase int

const (
	Phase1 Phase = iota
	Transition
	Phase2
	Dead
)

func (p Phase) String() string {
	switch p {
	case Phase1:
		return "phase1"
	case Transition:
		return "transition"
	case Phase2:
		return "phase2"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Attacker runs the punish attack. *combat.Sequencer satisfies it.
type Attacker interface {
	QueueAttack(damage int) bool
	OnResolved(fn func(combat.AttackResolved)) signal.Subscription
}

// Config tunes the boss.
type Config struct {
	MaxHP           int
	TransitionDelay time.Duration
	// WrongTelegraph is the warning before the perfect-dodge window opens.
	WrongTelegraph time.Duration
	PerfectWindow  time.Duration
	PunishDamage   int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MaxHP:           100,
		TransitionDelay: time.Second,
		WrongTelegraph:  600 * time.Millisecond,
		PerfectWindow:   200 * time.Millisecond,
		PunishDamage:    1,
	}
}

// Controller owns one boss. Not safe for concurrent use; the session
// goroutine owns it.
type Controller struct {
	cfg      Config
	sched    *clock.Scheduler
	bus      *signal.Bus
	attacker Attacker
	logger   *zap.Logger
	subs     signal.Group

	hp         int
	phase      Phase
	phaseEpoch clock.Epoch

	// punish challenge
	challenge    clock.Epoch
	running      bool
	windowOpen   bool
	succeeded    bool
	awaitingHit  bool
	punishDamage int
}

// NewController returns a full-health boss in Phase1. attacker may be nil, in
// which case every wrong answer ends its challenge at once.
//
// Precondition: sched and bus must not be nil; cfg.MaxHP must be >= 1.
func NewController(cfg Config, sched *clock.Scheduler, bus *signal.Bus, attacker Attacker, logger *zap.Logger) *Controller {
	if sched == nil || bus == nil {
		panic("boss.NewController: sched and bus must not be nil")
	}
	if cfg.MaxHP < 1 {
		panic("boss.NewController: MaxHP must be >= 1")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		cfg:          cfg,
		sched:        sched,
		bus:          bus,
		attacker:     attacker,
		logger:       logger,
		hp:           cfg.MaxHP,
		phase:        Phase1,
		punishDamage: cfg.PunishDamage,
	}
	signal.On(&c.subs, &bus.DodgeExecuted, func(signal.DodgeExecuted) { c.Dodge() })
	if attacker != nil {
		c.subs.Add(attacker.OnResolved(c.onAttackResolved))
	}
	return c
}

// HP returns the current hit points.
func (c *Controller) HP() int { return c.hp }

// MaxHP returns the configured maximum hit points.
func (c *Controller) MaxHP() int { return c.cfg.MaxHP }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Dead reports whether the boss has been defeated.
func (c *Controller) Dead() bool { return c.phase == Dead }

// ChallengeRunning reports whether a punish flow is in progress.
func (c *Controller) ChallengeRunning() bool { return c.running }

// DodgeWindowOpen reports whether a dash now would count as a perfect dodge.
func (c *Controller) DodgeWindowOpen() bool { return c.windowOpen }

// PunishDamage returns the damage the next punish attack will deal.
func (c *Controller) PunishDamage() int { return c.punishDamage }

// SetPunishDamage changes the punish attack damage. Negative values are ignored.
func (c *Controller) SetPunishDamage(n int) {
	if n >= 0 {
		c.punishDamage = n
	}
}

// TakeDamage implements combat.Damageable.
func (c *Controller) TakeDamage(amount int) {
	c.ApplyDamage(amount)
}

// ApplyDamage removes amount hit points and advances the phase.
//
// Postcondition: HP stays in [0, MaxHP]; once Dead nothing changes.
func (c *Controller) ApplyDamage(amount int) {
	if c.phase == Dead || amount <= 0 {
		return
	}
	c.hp -= amount
	if c.hp < 0 {
		c.hp = 0
	}
	c.logger.Debug("boss damaged", zap.Int("amount", amount), zap.Int("hp", c.hp))
	c.bus.BossDamaged.Publish(signal.BossDamaged{Amount: amount, HP: c.hp, MaxHP: c.cfg.MaxHP})

	switch {
	case c.hp == 0:
		c.phaseEpoch.Bump()
		c.setPhase(Dead)
		c.bus.BossDefeated.Publish(signal.BossDefeated{})
	case c.phase == Phase1 && c.hp <= c.cfg.MaxHP/2:
		c.setPhase(Transition)
		c.sched.After(c.cfg.TransitionDelay, c.phaseEpoch.Guard(c.enterPhase2))
	}
}

func (c *Controller) enterPhase2() {
	if c.phase == Transition {
		c.setPhase(Phase2)
	}
}

func (c *Controller) setPhase(p Phase) {
	from := c.phase
	c.phase = p
	c.logger.Debug("boss phase changed", zap.Stringer("from", from), zap.Stringer("to", p))
	c.bus.BossPhaseChanged.Publish(signal.BossPhaseChanged{From: from.String(), To: p.String()})
}

// OnWrongAnswer starts the punish flow: a telegraph, then a short
// perfect-dodge window, then either nothing (dodged) or a punish attack.
// WrongAnswerChallengeEnded is published exactly once per accepted call.
func (c *Controller) OnWrongAnswer() {
	if c.running {
		c.logger.Debug("wrong answer ignored, challenge already running")
		return
	}
	if c.phase == Dead {
		c.bus.WrongAnswerChallengeEnded.Publish(signal.WrongAnswerChallengeEnded{})
		return
	}
	if c.attacker == nil {
		c.bus.PerfectDodgeWindowStarted.Publish(signal.PerfectDodgeWindowStarted{Duration: c.cfg.PerfectWindow})
		c.bus.PerfectDodgeWindowEnded.Publish(signal.PerfectDodgeWindowEnded{})
		c.bus.WrongAnswerChallengeEnded.Publish(signal.WrongAnswerChallengeEnded{})
		return
	}

	c.challenge.Bump()
	c.running = true
	c.succeeded = false
	c.awaitingHit = false
	c.bus.PunishTelegraphStarted.Publish(signal.PunishTelegraphStarted{Duration: c.cfg.WrongTelegraph})
	c.sched.After(c.cfg.WrongTelegraph, c.challenge.Guard(c.openWindow))
	c.sched.After(c.cfg.WrongTelegraph+c.cfg.PerfectWindow, c.challenge.Guard(c.resolve))
}

// Dodge records a dash. Inside the perfect-dodge window it counts as a
// perfect dodge; anywhere else it is ignored.
func (c *Controller) Dodge() {
	if !c.windowOpen || c.succeeded {
		return
	}
	c.succeeded = true
	c.logger.Debug("perfect dodge")
	c.bus.PerfectDodgeSuccess.Publish(signal.PerfectDodgeSuccess{})
}

func (c *Controller) openWindow() {
	c.windowOpen = true
	c.bus.PerfectDodgeWindowStarted.Publish(signal.PerfectDodgeWindowStarted{Duration: c.cfg.PerfectWindow})
}

func (c *Controller) resolve() {
	c.windowOpen = false
	c.bus.PerfectDodgeWindowEnded.Publish(signal.PerfectDodgeWindowEnded{Succeeded: c.succeeded})
	if c.succeeded {
		c.endChallenge(true)
		return
	}
	c.awaitingHit = true
	if !c.attacker.QueueAttack(c.punishDamage) {
		c.logger.Debug("punish attack refused")
		c.endChallenge(false)
	}
}

func (c *Controller) onAttackResolved(combat.AttackResolved) {
	if c.awaitingHit {
		c.endChallenge(false)
	}
}

func (c *Controller) endChallenge(dodged bool) {
	c.challenge.Bump()
	c.running = false
	c.windowOpen = false
	c.awaitingHit = false
	c.bus.WrongAnswerChallengeEnded.Publish(signal.WrongAnswerChallengeEnded{Dodged: dodged})
}

// Halt stops every pending transition and challenge without publishing.
func (c *Controller) Halt() {
	c.phaseEpoch.Bump()
	c.challenge.Bump()
	c.running = false
	c.windowOpen = false
	c.awaitingHit = false
	c.subs.Close()
}
