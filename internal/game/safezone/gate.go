// Package safezone tracks whether the player stands in the ready station and
// has declared themselves ready. Questions can only be answered while both hold.
package safezone

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// DefaultDebounce is the minimum time between two ready toggles.
const DefaultDebounce = 500 * time.Millisecond

// Station moves the player relative to the station area.
type Station interface {
	// ReturnPlayer teleports the player to the station centre.
	ReturnPlayer()
	// EjectPlayer pushes the player just outside the station, away from its centre.
	EjectPlayer()
}

// Gate is the safe zone of one session. Not safe for concurrent use; the
// session goroutine owns it.
type Gate struct {
	sched    *clock.Scheduler
	bus      *signal.Bus
	station  Station
	logger   *zap.Logger
	debounce time.Duration
	subs     signal.Group

	contacts      int
	forced        bool
	inside        bool
	ready         bool
	debounceUntil time.Duration
}

// NewGate returns an empty, unready gate. station may be nil.
//
// Precondition: sched and bus must not be nil.
func NewGate(debounce time.Duration, sched *clock.Scheduler, bus *signal.Bus, station Station, logger *zap.Logger) *Gate {
	if sched == nil || bus == nil {
		panic("safezone.NewGate: sched and bus must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{sched: sched, bus: bus, station: station, logger: logger, debounce: debounce}
	signal.On(&g.subs, &bus.AnswerSubmitted, func(e signal.AnswerSubmitted) {
		if !e.Correct {
			g.Eject()
		}
	})
	signal.On(&g.subs, &bus.AnswerModeExited, func(signal.AnswerModeExited) { g.TurnOffReady() })
	return g
}

// Active reports whether the player is inside and ready.
func (g *Gate) Active() bool { return g.inside && g.ready }

// Inside reports whether any player collider overlaps the station.
func (g *Gate) Inside() bool { return g.inside }

// Ready reports the player's ready flag.
func (g *Gate) Ready() bool { return g.ready }

// Enter records one player collider touching the station.
func (g *Gate) Enter() {
	if g.forced {
		// the physical contact replaces the one ForceReturnPlayerAndReady assumed
		g.forced = false
	} else {
		g.contacts++
	}
	g.update(true, g.ready)
}

// Exit records one player collider leaving the station. The player is
// outside once every collider has left.
func (g *Gate) Exit() {
	g.forced = false
	if g.contacts > 0 {
		g.contacts--
	}
	if g.contacts == 0 {
		g.update(false, g.ready)
	}
}

// ToggleReady flips the ready flag while the player is inside.
//
// Postcondition: Returns false with no change when outside or within the debounce.
func (g *Gate) ToggleReady() bool {
	if !g.inside {
		return false
	}
	now := g.sched.Now()
	if now < g.debounceUntil {
		return false
	}
	g.debounceUntil = now + g.debounce
	g.update(g.inside, !g.ready)
	return true
}

// TurnOffReady clears the ready flag.
func (g *Gate) TurnOffReady() {
	g.update(g.inside, false)
}

// Eject clears ready and pushes the player out of the station. It only acts
// when the player was inside and ready.
func (g *Gate) Eject() {
	if !g.inside || !g.ready {
		return
	}
	g.logger.Debug("ejecting player from station")
	if g.station != nil {
		g.station.EjectPlayer()
	}
	g.contacts = 0
	g.forced = false
	g.update(false, false)
}

// ForceReturnPlayerAndReady places the player back inside the station and
// marks them ready.
//
// Postcondition: Active() is true.
func (g *Gate) ForceReturnPlayerAndReady() {
	if g.station != nil {
		g.station.ReturnPlayer()
	}
	if g.contacts < 1 {
		g.contacts = 1
		g.forced = true
	}
	g.update(true, true)
}

// Close unsubscribes the gate from the bus.
func (g *Gate) Close() {
	g.subs.Close()
}

func (g *Gate) update(inside, ready bool) {
	if inside == g.inside && ready == g.ready {
		return
	}
	g.inside, g.ready = inside, ready
	g.bus.ReadyChanged.Publish(signal.ReadyChanged{Inside: inside, Ready: ready})
}
