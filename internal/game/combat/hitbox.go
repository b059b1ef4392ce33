package combat

import (
	"time"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
)

// HitboxConfig holds the target filter of a hitbox.
type HitboxConfig struct {
	// Owner is the entity the hitbox belongs to; colliders with the same
	// owner are never hit.
	Owner string
	// Targets selects the layers that may be hit.
	Targets LayerMask
	// RequireHurtbox limits hits to colliders carrying a Hurtbox marker.
	RequireHurtbox bool
}

// Modifier rewrites the damage dealt to one target at the moment it is hit.
type Modifier func(target Collider, damage int) int

// Hitbox arms a hit volume for a bounded window and damages each eligible
// target at most once per activation.
//
// Delivery is fire and forget: a target that leaves the volume before a scan
// sees it is simply not hit.
type Hitbox struct {
	cfg      HitboxConfig
	volume   Volume
	sched    *clock.Scheduler
	epoch    clock.Epoch
	modifier Modifier

	active bool
	damage int
	hit    map[string]struct{}
	order  []string
}

// NewHitbox returns a disarmed hitbox. volume may be nil, in which case only
// Touch can land hits.
//
// Precondition: sched must not be nil.
func NewHitbox(cfg HitboxConfig, volume Volume, sched *clock.Scheduler) *Hitbox {
	if sched == nil {
		panic("combat.NewHitbox: sched must not be nil")
	}
	return &Hitbox{
		cfg:    cfg,
		volume: volume,
		sched:  sched,
		hit:    make(map[string]struct{}),
	}
}

// SetModifier installs a per-target damage modifier. nil removes it.
func (h *Hitbox) SetModifier(m Modifier) {
	h.modifier = m
}

// Activate arms the hitbox with damage and starts a fresh activation.
// A positive duration schedules an automatic Deactivate; explicit
// Deactivate may end it sooner. Targets already overlapping are hit at once.
//
// Postcondition: Active() is true and the hit set is empty before the initial scan.
func (h *Hitbox) Activate(duration time.Duration, damage int) {
	h.epoch.Bump()
	h.active = true
	h.damage = damage
	h.clearHits()
	if duration > 0 {
		h.sched.After(duration, h.epoch.Guard(h.Deactivate))
	}
	h.Scan()
}

// Deactivate disarms the hitbox immediately.
//
// Postcondition: Active() is false and the hit set is empty.
func (h *Hitbox) Deactivate() {
	h.epoch.Bump()
	h.active = false
	h.clearHits()
}

// Active reports whether the hitbox is armed.
func (h *Hitbox) Active() bool {
	return h.active
}

// Damage returns the damage of the current activation.
func (h *Hitbox) Damage() int {
	return h.damage
}

// Scan checks every collider overlapping the volume. Call it once per
// physics step while armed.
//
// Postcondition: Returns the number of targets newly damaged.
func (h *Hitbox) Scan() int {
	if !h.active || h.volume == nil {
		return 0
	}
	landed := 0
	for _, c := range h.volume.Overlapping() {
		if !h.active {
			break
		}
		if h.Touch(c) {
			landed++
		}
	}
	return landed
}

// Touch offers a single collider, as reported by an overlap-begin event.
//
// Postcondition: Returns true iff c was damaged by this call.
func (h *Hitbox) Touch(c Collider) bool {
	if !h.active {
		return false
	}
	target := h.resolve(c)
	if target == nil {
		return false
	}
	key := c.targetKey()
	if _, done := h.hit[key]; done {
		return false
	}
	h.hit[key] = struct{}{}
	h.order = append(h.order, key)

	dmg := h.damage
	if h.modifier != nil {
		dmg = h.modifier(c, dmg)
	}
	target.TakeDamage(dmg)
	return true
}

// HitTargets returns the targets damaged in this activation, in hit order.
func (h *Hitbox) HitTargets() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// SetPose forwards to the volume, if any.
func (h *Hitbox) SetPose(p Pose) {
	if h.volume != nil {
		h.volume.SetPose(p)
	}
}

// ResetPose forwards to the volume, if any.
func (h *Hitbox) ResetPose() {
	if h.volume != nil {
		h.volume.ResetPose()
	}
}

func (h *Hitbox) resolve(c Collider) Damageable {
	if h.cfg.Owner != "" && c.Owner == h.cfg.Owner {
		return nil
	}
	if !h.cfg.Targets.Has(c.Layer) {
		return nil
	}
	if h.cfg.RequireHurtbox {
		if c.Hurtbox == nil {
			return nil
		}
		return c.Hurtbox.Target
	}
	if c.Damageable != nil {
		return c.Damageable
	}
	if c.Hurtbox != nil {
		return c.Hurtbox.Target
	}
	return nil
}

func (h *Hitbox) clearHits() {
	if len(h.hit) > 0 {
		h.hit = make(map[string]struct{})
	}
	h.order = h.order[:0]
}
