package arena

import (
	"github.com/jakecoffman/cp"

	"github.com/cory-johannsen/quizboss/internal/game/combat"
)

// Body is a fighter in the arena. It satisfies player.Body and
// combat.Positioner.
type Body struct {
	body  *cp.Body
	shape *cp.Shape
}

// Position returns the body centre.
func (b *Body) Position() cp.Vector { return b.body.Position() }

// Velocity returns the body velocity.
func (b *Body) Velocity() cp.Vector { return b.body.Velocity() }

// SetVelocity sets the velocity applied on the next step.
func (b *Body) SetVelocity(v cp.Vector) { b.body.SetVelocityVector(v) }

func (b *Body) teleport(p cp.Vector) {
	b.body.SetPosition(p)
	b.body.SetVelocityVector(cp.Vector{})
}

// Volume is a melee hit volume following its owner. It satisfies combat.Volume.
type Volume struct {
	arena *Arena
	owner *Body
	body  *cp.Body
	shape *cp.Shape

	pose        combat.Pose
	defaultPose combat.Pose

	touching map[*cp.Shape]struct{}
	order    []*cp.Shape
	onEnter  func(combat.Collider)
}

// OnEnter registers fn for every collider that starts overlapping the
// volume. fn runs after the physics step, never inside it.
func (v *Volume) OnEnter(fn func(combat.Collider)) {
	v.onEnter = fn
}

// Overlapping returns the registered colliders touching the volume, in the
// order they started touching.
func (v *Volume) Overlapping() []combat.Collider {
	out := make([]combat.Collider, 0, len(v.order))
	for _, s := range v.order {
		if c, ok := v.arena.colliders[s]; ok {
			out = append(out, c)
		}
	}
	return out
}

// SetPose moves the volume relative to its owner from the next step on.
func (v *Volume) SetPose(p combat.Pose) {
	v.pose = p
	v.follow()
}

// ResetPose restores the default offset.
func (v *Volume) ResetPose() {
	v.SetPose(v.defaultPose)
}

// Pose returns the current local pose.
func (v *Volume) Pose() combat.Pose { return v.pose }

// Center returns the volume centre in arena coordinates.
func (v *Volume) Center() cp.Vector {
	return v.owner.Position().Add(v.pose.Offset)
}

func (v *Volume) follow() {
	v.body.SetPosition(v.Center())
	v.body.SetAngle(v.pose.Angle)
}

func (v *Volume) add(s *cp.Shape) {
	if _, ok := v.touching[s]; ok {
		return
	}
	v.touching[s] = struct{}{}
	v.order = append(v.order, s)
}

func (v *Volume) remove(s *cp.Shape) {
	if _, ok := v.touching[s]; !ok {
		return
	}
	delete(v.touching, s)
	for i, o := range v.order {
		if o == s {
			v.order = append(v.order[:i:i], v.order[i+1:]...)
			break
		}
	}
}
