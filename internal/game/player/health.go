// Package player holds the player's health, movement, melee attack and the
// guard that freezes them while a question is open.
package player

import "github.com/cory-johannsen/quizboss/internal/game/signal"

// Health counts the player's hearts.
type Health struct {
	bus        *signal.Bus
	max        int
	hearts     int
	invincible bool
}

// NewHealth returns a Health with max full hearts.
//
// Precondition: bus must not be nil; max must be >= 1.
func NewHealth(max int, bus *signal.Bus) *Health {
	if bus == nil || max < 1 {
		panic("player.NewHealth: bus must not be nil and max must be >= 1")
	}
	return &Health{bus: bus, max: max, hearts: max}
}

func (h *Health) Hearts() int          { return h.hearts }
func (h *Health) Max() int             { return h.max }
func (h *Health) Dead() bool           { return h.hearts == 0 }
func (h *Health) Invincible() bool     { return h.invincible }
func (h *Health) SetInvincible(v bool) { h.invincible = v }

// TakeDamage implements combat.Damageable. Damage is ignored while
// invincible or dead.
//
// Postcondition: Hearts() stays in [0, Max()].
func (h *Health) TakeDamage(amount int) {
	if h.invincible || h.hearts == 0 || amount <= 0 {
		return
	}
	h.hearts -= amount
	if h.hearts < 0 {
		h.hearts = 0
	}
	h.bus.PlayerDamaged.Publish(signal.PlayerDamaged{Amount: amount, Hearts: h.hearts})
}

// Heal restores up to amount hearts, capped at Max. The dead stay dead.
func (h *Health) Heal(amount int) {
	if h.hearts == 0 || amount <= 0 {
		return
	}
	h.hearts += amount
	if h.hearts > h.max {
		h.hearts = h.max
	}
}
