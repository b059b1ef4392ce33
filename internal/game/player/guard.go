package player

import (
	"time"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// Freezable is anything the guard can lock.
type Freezable interface {
	SetInputEnabled(v bool)
}

// SafeZone reports whether the player stands ready in the station.
type SafeZone interface {
	Active() bool
}

// Guard freezes and protects the player while they answer a question in
// the station.
type Guard struct {
	sched      *clock.Scheduler
	zone       SafeZone
	health     *Health
	freezables []Freezable
	unfreezeIn time.Duration
	epoch      clock.Epoch
	subs       signal.Group
	active     bool

	// releaseAt is the pending delayed release, valid while releasing.
	releasing bool
	releaseAt time.Duration

	// state saved by GamePaused for GameResumed
	pausedActive  bool
	pausedRelease time.Duration
}

// NewGuard subscribes the guard to bus. zone and health may be nil.
//
// Precondition: sched and bus must not be nil.
func NewGuard(unfreezeAfterCorrect time.Duration, sched *clock.Scheduler, bus *signal.Bus, zone SafeZone, health *Health, freezables ...Freezable) *Guard {
	if sched == nil || bus == nil {
		panic("player.NewGuard: sched and bus must not be nil")
	}
	g := &Guard{sched: sched, zone: zone, health: health, freezables: freezables, unfreezeIn: unfreezeAfterCorrect}
	signal.On(&g.subs, &bus.QuestionStarted, func(signal.QuestionStarted) {
		g.Set(g.zone != nil && g.zone.Active())
	})
	signal.On(&g.subs, &bus.AnswerSubmitted, func(e signal.AnswerSubmitted) {
		if !e.Correct {
			g.Set(false)
			return
		}
		g.epoch.Bump()
		g.releaseIn(g.unfreezeIn)
	})
	signal.On(&g.subs, &bus.QuestionTimeout, func(signal.QuestionTimeout) { g.Set(false) })
	signal.On(&g.subs, &bus.AnswerModeExited, func(signal.AnswerModeExited) { g.Set(false) })
	signal.On(&g.subs, &bus.GamePaused, func(signal.GamePaused) { g.pause() })
	signal.On(&g.subs, &bus.GameResumed, func(signal.GameResumed) { g.resume() })
	return g
}

// Active reports whether the player is currently guarded.
func (g *Guard) Active() bool { return g.active }

// Set guards or releases the player immediately, cancelling a pending
// delayed release.
func (g *Guard) Set(active bool) {
	g.epoch.Bump()
	g.releasing = false
	g.active = active
	for _, f := range g.freezables {
		f.SetInputEnabled(!active)
	}
	if g.health != nil {
		g.health.SetInvincible(active)
	}
}

func (g *Guard) releaseIn(d time.Duration) {
	g.releasing = true
	g.releaseAt = g.sched.Now() + d
	g.sched.After(d, g.epoch.Guard(func() { g.Set(false) }))
}

// pause freezes the player and remembers what resume restores, including
// the time left on a delayed release.
func (g *Guard) pause() {
	g.pausedActive = g.active
	g.pausedRelease = -1
	if g.releasing {
		g.pausedRelease = max(g.releaseAt-g.sched.Now(), 0)
	}
	g.Set(true)
}

func (g *Guard) resume() {
	g.Set(g.pausedActive)
	if g.pausedActive && g.pausedRelease >= 0 {
		g.releaseIn(g.pausedRelease)
	}
	g.pausedActive = false
	g.pausedRelease = -1
}

// Close unsubscribes the guard.
func (g *Guard) Close() {
	g.epoch.Bump()
	g.subs.Close()
}
