// Package arena is the collision capability of a boss fight: a chipmunk
// space holding the player, the boss, the ready station and the melee hit
// volumes. It reports overlaps to combat hitboxes and station occupancy to
// the safe zone, and moves the player when the safe zone asks it to.
package arena

import (
	"math"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/config"
	"github.com/cory-johannsen/quizboss/internal/game/combat"
)

const (
	collisionTypePlayer cp.CollisionType = iota + 1
	collisionTypeBoss
	collisionTypeStation
	collisionTypeVolume
	collisionTypeWall
)

const wallThickness = 0.5

// Occupancy receives station contact changes.
type Occupancy interface {
	Enter()
	Exit()
}

// Arena owns one chipmunk space. Not safe for concurrent use; the session
// goroutine owns it.
type Arena struct {
	cfg    config.ArenaConfig
	space  *cp.Space
	logger *zap.Logger

	player    *Body
	boss      *Body
	station   *cp.Shape
	stationBB cp.BB
	center    cp.Vector

	colliders map[*cp.Shape]combat.Collider
	volumes   map[*cp.Shape]*Volume
	occupancy Occupancy

	// events collected during a step, delivered after it
	pending  []pendingTouch
	stations []bool
}

type pendingTouch struct {
	volume *Volume
	shape  *cp.Shape
}

// New builds the space with walls, the station sensor and both fighters at
// their configured start positions.
//
// Precondition: cfg must have passed config validation.
// Postcondition: Returns an arena with no hit volumes and no occupancy listener.
func New(cfg config.ArenaConfig, logger *zap.Logger) *Arena {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Arena{
		cfg:       cfg,
		space:     cp.NewSpace(),
		logger:    logger,
		center:    cp.Vector{X: cfg.StationX, Y: cfg.StationY},
		colliders: make(map[*cp.Shape]combat.Collider),
		volumes:   make(map[*cp.Shape]*Volume),
	}
	a.space.Iterations = 10
	a.space.SetGravity(cp.Vector{})

	a.addWalls()

	half := cfg.StationSize / 2
	bb := cp.BB{L: a.center.X - half, B: a.center.Y - half, R: a.center.X + half, T: a.center.Y + half}
	a.stationBB = bb
	a.station = cp.NewBox2(a.space.StaticBody, bb, 0)
	a.station.SetSensor(true)
	a.station.SetCollisionType(collisionTypeStation)
	a.space.AddShape(a.station)

	a.player = a.addFighter(a.center, cfg.PlayerRadius, collisionTypePlayer)
	a.boss = a.addFighter(cp.Vector{X: cfg.BossX, Y: cfg.BossY}, cfg.BossRadius, collisionTypeBoss)

	a.setupHandlers()
	return a
}

func (a *Arena) addWalls() {
	w, h := a.cfg.Width, a.cfg.Height
	segments := []struct{ a, b cp.Vector }{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: w, Y: 0}},
		{a: cp.Vector{X: 0, Y: h}, b: cp.Vector{X: w, Y: h}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: h}},
		{a: cp.Vector{X: w, Y: 0}, b: cp.Vector{X: w, Y: h}},
	}
	for _, seg := range segments {
		shape := cp.NewSegment(a.space.StaticBody, seg.a, seg.b, wallThickness)
		shape.SetFriction(0)
		shape.SetCollisionType(collisionTypeWall)
		a.space.AddShape(shape)
	}
}

// addFighter creates a dynamic body that never rotates and is steered by
// velocity alone.
func (a *Arena) addFighter(pos cp.Vector, radius float64, ct cp.CollisionType) *Body {
	body := cp.NewBody(1, math.Inf(1))
	body.SetPosition(pos)
	body.SetAngle(0)
	body.SetVelocityUpdateFunc(func(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
		cp.BodyUpdateVelocity(body, cp.Vector{}, 1, dt)
	})
	a.space.AddBody(body)

	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetFriction(0)
	shape.SetElasticity(0)
	shape.SetCollisionType(ct)
	a.space.AddShape(shape)
	return &Body{body: body, shape: shape}
}

func (a *Arena) setupHandlers() {
	// fighters pass through each other; only hit volumes deal contact
	fighters := a.space.NewCollisionHandler(collisionTypePlayer, collisionTypeBoss)
	fighters.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		return false
	}

	station := a.space.NewCollisionHandler(collisionTypePlayer, collisionTypeStation)
	station.UserData = a
	station.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		if world, ok := userData.(*Arena); ok {
			world.stations = append(world.stations, true)
		}
		return true
	}
	station.SeparateFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
		if world, ok := userData.(*Arena); ok {
			world.stations = append(world.stations, false)
		}
	}

	for _, target := range []cp.CollisionType{collisionTypePlayer, collisionTypeBoss} {
		handler := a.space.NewCollisionHandler(collisionTypeVolume, target)
		handler.UserData = a
		handler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
			world, ok := userData.(*Arena)
			if !ok {
				return true
			}
			vol, other := world.volumePair(arb)
			if vol == nil {
				return true
			}
			vol.add(other)
			world.pending = append(world.pending, pendingTouch{volume: vol, shape: other})
			return true
		}
		handler.SeparateFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
			world, ok := userData.(*Arena)
			if !ok {
				return
			}
			if vol, other := world.volumePair(arb); vol != nil {
				vol.remove(other)
			}
		}
	}
}

// volumePair returns the hit volume of an arbiter and the shape it touches,
// regardless of the order chipmunk reports them in.
func (a *Arena) volumePair(arb *cp.Arbiter) (*Volume, *cp.Shape) {
	shapeA, shapeB := arb.Shapes()
	if v, ok := a.volumes[shapeA]; ok {
		return v, shapeB
	}
	if v, ok := a.volumes[shapeB]; ok {
		return v, shapeA
	}
	return nil, nil
}

// SetOccupancy attaches the station listener.
func (a *Arena) SetOccupancy(o Occupancy) {
	a.occupancy = o
}

// Player returns the player body.
func (a *Arena) Player() *Body { return a.player }

// Boss returns the boss body.
func (a *Arena) Boss() *Body { return a.boss }

// StationCenter returns the centre of the ready station.
func (a *Arena) StationCenter() cp.Vector { return a.center }

// RegisterPlayer sets the collider hitboxes see when they touch the player.
func (a *Arena) RegisterPlayer(c combat.Collider) {
	c.Layer = combat.LayerPlayer
	a.colliders[a.player.shape] = c
}

// RegisterBoss sets the collider hitboxes see when they touch the boss.
func (a *Arena) RegisterBoss(c combat.Collider) {
	c.Layer = combat.LayerBoss
	a.colliders[a.boss.shape] = c
}

// NewVolume attaches a circular hit volume of radius to owner. reach is the
// default distance of the volume centre from the owner, along +X.
//
// Precondition: owner must be a body of this arena; radius must be > 0.
func (a *Arena) NewVolume(owner *Body, radius, reach float64) *Volume {
	body := cp.NewKinematicBody()
	body.SetPosition(owner.Position())
	a.space.AddBody(body)

	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetSensor(true)
	shape.SetCollisionType(collisionTypeVolume)
	a.space.AddShape(shape)

	v := &Volume{
		arena:       a,
		owner:       owner,
		body:        body,
		shape:       shape,
		defaultPose: combat.Pose{Offset: cp.Vector{X: reach}},
		touching:    make(map[*cp.Shape]struct{}),
	}
	v.pose = v.defaultPose
	a.volumes[shape] = v
	return v
}

// Step advances the space by dt, then delivers the station contacts and
// overlap-begin events the step produced.
//
// Postcondition: Listeners never run while the space is locked.
func (a *Arena) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	for _, v := range a.volumes {
		v.follow()
	}
	a.space.Step(dt.Seconds())

	stations := a.stations
	a.stations = nil
	for _, entered := range stations {
		if a.occupancy == nil {
			break
		}
		if entered {
			a.occupancy.Enter()
		} else {
			a.occupancy.Exit()
		}
	}

	pending := a.pending
	a.pending = nil
	for _, p := range pending {
		if _, still := p.volume.touching[p.shape]; !still {
			continue
		}
		if c, ok := a.colliders[p.shape]; ok && p.volume.onEnter != nil {
			p.volume.onEnter(c)
		}
	}
}

// InStation reports whether p lies inside the station box.
func (a *Arena) InStation(p cp.Vector) bool {
	return a.stationBB.ContainsVect(p)
}

// ReturnPlayer teleports the player to the station centre and stops it.
func (a *Arena) ReturnPlayer() {
	a.player.teleport(a.center)
	a.logger.Debug("player returned to station")
}

// EjectPlayer places the player just outside the station along the line from
// its centre through the player. A player on the centre is pushed up.
func (a *Arena) EjectPlayer() {
	dir := a.player.Position().Sub(a.center)
	if dir.Length() < 1e-6 {
		dir = cp.Vector{Y: 1}
	}
	dir = dir.Normalize()
	extent := a.cfg.StationSize/2 + a.cfg.PlayerRadius + a.cfg.EjectMargin
	target := a.center.Add(dir.Mult(extent))
	target = a.clampInside(target, a.cfg.PlayerRadius)
	a.player.teleport(target)
	a.logger.Debug("player ejected from station", zap.Float64("x", target.X), zap.Float64("y", target.Y))
}

func (a *Arena) clampInside(p cp.Vector, radius float64) cp.Vector {
	margin := radius + wallThickness
	p.X = math.Max(margin, math.Min(a.cfg.Width-margin, p.X))
	p.Y = math.Max(margin, math.Min(a.cfg.Height-margin, p.Y))
	return p
}
