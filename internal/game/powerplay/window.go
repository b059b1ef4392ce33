// Package powerplay implements the short window after a correct answer in
// which the player's first melee hit on the boss is amplified.
package powerplay

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// DefaultDuration is used when StartWindow is called with a non-positive duration.
const DefaultDuration = 5 * time.Second

// minVulnerability keeps a misconfigured multiplier from zeroing damage.
const minVulnerability = 0.01

// SpeedBuffable is a mover whose speeds can be buffed for the window.
type SpeedBuffable interface {
	MoveSpeed() float64
	SetMoveSpeed(v float64)
	DashSpeed() float64
	SetDashSpeed(v float64)
}

// Config tunes the window.
type Config struct {
	// Duration is the default window length.
	Duration time.Duration
	// Cooldown is measured from the end of the previous window.
	Cooldown          time.Duration
	BossVulnerability float64
	PlayerDamageBonus float64
	SpeedBonus        float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Duration:          DefaultDuration,
		Cooldown:          10 * time.Second,
		BossVulnerability: 1.75,
		PlayerDamageBonus: 0.35,
		SpeedBonus:        0.20,
	}
}

// Window is the Power Play state of one session. Not safe for concurrent
// use; the session goroutine owns it.
type Window struct {
	cfg    Config
	sched  *clock.Scheduler
	bus    *signal.Bus
	mover  SpeedBuffable
	logger *zap.Logger
	epoch  clock.Epoch

	active        bool
	consumed      bool
	windowEnd     time.Duration
	cooldownUntil time.Duration

	buffed             bool
	origMove, origDash float64
}

// NewWindow returns an inactive window. mover may be nil.
//
// Precondition: sched and bus must not be nil.
func NewWindow(cfg Config, sched *clock.Scheduler, bus *signal.Bus, mover SpeedBuffable, logger *zap.Logger) *Window {
	if sched == nil || bus == nil {
		panic("powerplay.NewWindow: sched and bus must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	return &Window{cfg: cfg, sched: sched, bus: bus, mover: mover, logger: logger}
}

// Active reports whether the window is open.
func (w *Window) Active() bool { return w.active }

// Consumed reports whether the current or last window was spent on a hit.
func (w *Window) Consumed() bool { return w.consumed }

// Remaining returns the time left in an open window.
func (w *Window) Remaining() time.Duration {
	if !w.active {
		return 0
	}
	if r := w.windowEnd - w.sched.Now(); r > 0 {
		return r
	}
	return 0
}

// CooldownRemaining returns how long until a new window may start.
func (w *Window) CooldownRemaining() time.Duration {
	if r := w.cooldownUntil - w.sched.Now(); r > 0 {
		return r
	}
	return 0
}

// StartWindow opens a window lasting d, or the configured duration when
// d <= 0.
//
// Postcondition: Returns false with no state change when a window is open or
// the cooldown has not elapsed.
func (w *Window) StartWindow(d time.Duration) bool {
	if w.active {
		return false
	}
	now := w.sched.Now()
	if now < w.cooldownUntil {
		w.logger.Debug("power play on cooldown", zap.Duration("remaining", w.cooldownUntil-now))
		return false
	}
	if d <= 0 {
		d = w.cfg.Duration
	}
	w.epoch.Bump()
	w.active = true
	w.consumed = false
	w.windowEnd = now + d
	w.applyBuff()
	w.sched.After(d, w.epoch.Guard(w.EndWindow))

	w.logger.Debug("power play started", zap.Duration("duration", d))
	w.bus.PowerPlayStarted.Publish(signal.PowerPlayStarted{Duration: d})
	return true
}

// ConsumeOnHit amplifies the first hit of an open window and closes it.
//
// Postcondition: Returns base unchanged when the window is closed or spent.
func (w *Window) ConsumeOnHit(base int) int {
	if !w.active || w.consumed {
		return base
	}
	mult := (1 + math.Max(0, w.cfg.PlayerDamageBonus)) * math.Max(minVulnerability, w.cfg.BossVulnerability)
	final := int(math.Ceil(float64(base) * mult))
	w.consumed = true

	w.logger.Debug("power play hit", zap.Int("base", base), zap.Int("final", final))
	w.bus.PowerPlayHitConfirmed.Publish(signal.PowerPlayHitConfirmed{BaseDamage: base, FinalDamage: final})
	w.EndWindow()
	return final
}

// EndWindow closes an open window, restores the mover's speeds and starts
// the cooldown. It is a no-op when no window is open.
func (w *Window) EndWindow() {
	if !w.active {
		return
	}
	w.epoch.Bump()
	w.active = false
	w.removeBuff()
	w.cooldownUntil = w.sched.Now() + w.cfg.Cooldown
	w.bus.PowerPlayEnded.Publish(signal.PowerPlayEnded{Consumed: w.consumed})
}

// Halt closes the window silently when the session stops.
func (w *Window) Halt() {
	w.epoch.Bump()
	w.active = false
	w.removeBuff()
}

func (w *Window) applyBuff() {
	if w.buffed || w.mover == nil {
		return
	}
	w.origMove, w.origDash = w.mover.MoveSpeed(), w.mover.DashSpeed()
	w.mover.SetMoveSpeed(w.origMove * (1 + w.cfg.SpeedBonus))
	w.mover.SetDashSpeed(w.origDash * (1 + w.cfg.SpeedBonus))
	w.buffed = true
}

func (w *Window) removeBuff() {
	if !w.buffed {
		return
	}
	w.mover.SetMoveSpeed(w.origMove)
	w.mover.SetDashSpeed(w.origDash)
	w.buffed = false
}
