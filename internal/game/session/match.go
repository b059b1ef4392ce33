// Package session wires one boss fight together and runs it on a single
// goroutine, and tracks every running fight for the frontends.
package session

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// State is the lifecycle of a match.
type State int

const (
	StateInit State = iota
	StatePlaying
	StatePaused
	StateWon
	StateLost
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateWon:
		return "won"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Match is the game state machine of one session. Won and Lost are final.
// Not safe for concurrent use; the session goroutine owns it.
type Match struct {
	bus    *signal.Bus
	logger *zap.Logger
	subs   signal.Group
	state  State
}

// NewMatch returns a match in StateInit listening on bus: a defeated boss
// wins it and a player without hearts loses it.
//
// Precondition: bus must not be nil.
func NewMatch(bus *signal.Bus, logger *zap.Logger) *Match {
	if bus == nil {
		panic("session.NewMatch: bus must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Match{bus: bus, logger: logger}
	signal.On(&m.subs, &bus.GameWon, func(signal.GameWon) {
		if !m.Over() {
			m.state = StateWon
			m.logger.Info("match won")
		}
	})
	signal.On(&m.subs, &bus.BossDefeated, func(signal.BossDefeated) { m.Win() })
	signal.On(&m.subs, &bus.PlayerDamaged, func(e signal.PlayerDamaged) {
		if e.Hearts == 0 {
			m.Lose()
		}
	})
	return m
}

// State returns the current state.
func (m *Match) State() State { return m.state }

// Over reports whether the match reached a final state.
func (m *Match) Over() bool { return m.state == StateWon || m.state == StateLost }

// Start moves Init to Playing and publishes GameStarted.
//
// Postcondition: Returns false with no change outside StateInit.
func (m *Match) Start() bool {
	if m.state != StateInit {
		return false
	}
	m.state = StatePlaying
	m.logger.Info("match started")
	m.bus.GameStarted.Publish(signal.GameStarted{})
	return true
}

// Pause moves Playing to Paused and publishes GamePaused.
func (m *Match) Pause() bool {
	if m.state != StatePlaying {
		return false
	}
	m.state = StatePaused
	m.bus.GamePaused.Publish(signal.GamePaused{})
	return true
}

// Resume moves Paused back to Playing and publishes GameResumed.
func (m *Match) Resume() bool {
	if m.state != StatePaused {
		return false
	}
	m.state = StatePlaying
	m.bus.GameResumed.Publish(signal.GameResumed{})
	return true
}

// Win publishes GameWon unless the match is already over.
func (m *Match) Win() {
	if m.Over() {
		return
	}
	m.bus.GameWon.Publish(signal.GameWon{})
}

// Lose ends the match as lost and publishes GameLost.
func (m *Match) Lose() {
	if m.Over() {
		return
	}
	m.state = StateLost
	m.logger.Info("match lost")
	m.bus.GameLost.Publish(signal.GameLost{})
}

// Close unsubscribes the match.
func (m *Match) Close() {
	m.subs.Close()
}
