package combat

import "github.com/jakecoffman/cp"

// Layer is a single collision layer bit.
type Layer uint32

const (
	LayerPlayer Layer = 1 << iota
	LayerBoss
	LayerStation
)

// LayerMask selects the layers a hitbox may damage.
type LayerMask uint32

// AllLayers matches every layer.
const AllLayers = ^LayerMask(0)

// MaskOf builds a mask from layers.
func MaskOf(layers ...Layer) LayerMask {
	var m LayerMask
	for _, l := range layers {
		m |= LayerMask(l)
	}
	return m
}

// Has reports whether l is selected by m.
func (m LayerMask) Has(l Layer) bool {
	return m&LayerMask(l) != 0
}

// Damageable is implemented by anything that can lose health.
type Damageable interface {
	TakeDamage(amount int)
}

// Hurtbox marks a collider as the damage receiver for Target. The link is
// explicit: a hurtbox without a target never takes damage.
type Hurtbox struct {
	Target Damageable
}

// Collider is one shape reported by the collision capability. Its
// capabilities are resolved once, when the shape is registered, so hit
// resolution never searches for them.
type Collider struct {
	// ID identifies the shape.
	ID string
	// Owner is the root entity; every collider of an entity and of its
	// descendants carries the same Owner.
	Owner string
	Layer Layer
	// Hurtbox is set when the shape is a hurtbox marker.
	Hurtbox *Hurtbox
	// Damageable is the owner's direct damage capability, if any.
	Damageable Damageable
}

// targetKey is the identity hits are deduplicated by.
func (c Collider) targetKey() string {
	if c.Owner != "" {
		return c.Owner
	}
	return c.ID
}

// Pose places a hit volume relative to its owner.
type Pose struct {
	Offset cp.Vector
	// Angle is the facing in radians.
	Angle float64
}

// Volume is the attack's hit volume as provided by the collision capability.
type Volume interface {
	// Overlapping returns every collider currently touching the volume.
	Overlapping() []Collider
	// SetPose moves the volume relative to its owner.
	SetPose(p Pose)
	// ResetPose restores the default local pose.
	ResetPose()
}
