package player

import (
	"time"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/combat"
)

// DamageModifier rewrites damage on a hit against the boss.
// *powerplay.Window satisfies it.
type DamageModifier interface {
	ConsumeOnHit(base int) int
}

// AttackerConfig tunes the melee swing.
type AttackerConfig struct {
	Damage     int
	Cooldown   time.Duration
	MaxCharges int
}

// DefaultAttackerConfig returns the stock tuning.
func DefaultAttackerConfig() AttackerConfig {
	return AttackerConfig{Damage: 10, Cooldown: 500 * time.Millisecond, MaxCharges: 3}
}

// Attacker is the player's melee attack plus the charges that pay for
// escaping a question.
type Attacker struct {
	cfg          AttackerConfig
	sched        *clock.Scheduler
	seq          *combat.Sequencer
	inputEnabled bool
	nextAllowed  time.Duration
	charges      int
}

// NewAttacker wraps seq. Hits landing on the boss layer go through mod, so
// an open Power Play window amplifies the first one. mod may be nil.
//
// Precondition: sched and seq must not be nil.
func NewAttacker(cfg AttackerConfig, sched *clock.Scheduler, seq *combat.Sequencer, mod DamageModifier) *Attacker {
	if sched == nil || seq == nil {
		panic("player.NewAttacker: sched and seq must not be nil")
	}
	if mod != nil {
		seq.Hitbox().SetModifier(func(target combat.Collider, dmg int) int {
			if target.Layer != combat.LayerBoss {
				return dmg
			}
			return mod.ConsumeOnHit(dmg)
		})
	}
	return &Attacker{cfg: cfg, sched: sched, seq: seq, inputEnabled: true}
}

// Attack swings for the configured damage.
//
// Postcondition: Returns false when frozen, on cooldown or mid-swing.
func (a *Attacker) Attack() bool {
	if !a.inputEnabled {
		return false
	}
	now := a.sched.Now()
	if now < a.nextAllowed {
		return false
	}
	if !a.seq.QueueAttack(a.cfg.Damage) {
		return false
	}
	a.nextAllowed = now + a.cfg.Cooldown
	return true
}

// InputEnabled reports whether attacks are accepted.
func (a *Attacker) InputEnabled() bool { return a.inputEnabled }

// SetInputEnabled freezes or unfreezes attacking. Freezing cancels a swing in flight.
func (a *Attacker) SetInputEnabled(v bool) {
	a.inputEnabled = v
	if !v {
		a.seq.Cancel()
	}
}

// Charges returns the banked attack charges.
func (a *Attacker) Charges() int { return a.charges }

// AwardCharge banks one charge, up to MaxCharges.
func (a *Attacker) AwardCharge() {
	if a.charges < a.cfg.MaxCharges {
		a.charges++
	}
}

// TryConsumeCharge spends one charge if any is banked.
func (a *Attacker) TryConsumeCharge() bool {
	if a.charges == 0 {
		return false
	}
	a.charges--
	return true
}
