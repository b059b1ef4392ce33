package arena_test

import (
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/quizboss/internal/arena"
	"github.com/cory-johannsen/quizboss/internal/config"
	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/combat"
)

const step = 20 * time.Millisecond

type occupancy struct {
	enters int
	exits  int
}

func (o *occupancy) Enter() { o.enters++ }
func (o *occupancy) Exit()  { o.exits++ }

type victim struct {
	taken []int
}

func (v *victim) TakeDamage(n int) { v.taken = append(v.taken, n) }

func arenaConfig() config.ArenaConfig {
	return config.ArenaConfig{
		Width:          20,
		Height:         12,
		StationX:       3,
		StationY:       6,
		StationSize:    2,
		EjectMargin:    1,
		PlayerRadius:   0.4,
		BossRadius:     0.8,
		BossX:          12,
		BossY:          6,
		BossHitRadius:  0.7,
		PlayerHitReach: 0.8,
	}
}

func newArena(t *testing.T) (*arena.Arena, *occupancy) {
	t.Helper()
	a := arena.New(arenaConfig(), zaptest.NewLogger(t))
	occ := &occupancy{}
	a.SetOccupancy(occ)
	return a, occ
}

func steps(a *arena.Arena, n int) {
	for range n {
		a.Step(step)
	}
}

func TestNew_PlacesFighters(t *testing.T) {
	a, _ := newArena(t)
	assert.Equal(t, cp.Vector{X: 3, Y: 6}, a.Player().Position())
	assert.Equal(t, cp.Vector{X: 12, Y: 6}, a.Boss().Position())
	assert.Equal(t, cp.Vector{X: 3, Y: 6}, a.StationCenter())
	assert.True(t, a.InStation(a.Player().Position()))
	assert.False(t, a.InStation(a.Boss().Position()))
}

func TestStep_ReportsPlayerStartingInStation(t *testing.T) {
	a, occ := newArena(t)
	steps(a, 1)
	assert.Equal(t, 1, occ.enters)
	assert.Equal(t, 0, occ.exits)

	steps(a, 5)
	assert.Equal(t, 1, occ.enters, "a resting contact is reported once")
}

func TestStep_NonPositiveDurationIsNoop(t *testing.T) {
	a, occ := newArena(t)
	a.Step(0)
	a.Step(-step)
	assert.Equal(t, 0, occ.enters)
}

func TestEjectPlayer_PushesUpFromCentre(t *testing.T) {
	a, occ := newArena(t)
	steps(a, 1)

	a.EjectPlayer()
	pos := a.Player().Position()
	assert.InDelta(t, 3.0, pos.X, 1e-9)
	assert.InDelta(t, 6.0+1.0+0.4+1.0, pos.Y, 1e-9)
	assert.False(t, a.InStation(pos))

	steps(a, 1)
	assert.Equal(t, 1, occ.exits)
}

func TestEjectPlayer_KeepsDirection(t *testing.T) {
	a, _ := newArena(t)
	a.Player().SetVelocity(cp.Vector{X: 1})
	steps(a, 10)
	a.Player().SetVelocity(cp.Vector{})

	a.EjectPlayer()
	pos := a.Player().Position()
	assert.InDelta(t, 3.0+2.4, pos.X, 1e-6)
	assert.InDelta(t, 6.0, pos.Y, 1e-6)
}

func TestReturnPlayer_TeleportsToCentre(t *testing.T) {
	a, occ := newArena(t)
	steps(a, 1)
	a.EjectPlayer()
	steps(a, 1)

	a.Player().SetVelocity(cp.Vector{X: 3})
	a.ReturnPlayer()
	assert.Equal(t, cp.Vector{X: 3, Y: 6}, a.Player().Position())
	assert.Equal(t, cp.Vector{}, a.Player().Velocity())

	steps(a, 1)
	assert.Equal(t, 2, occ.enters)
}

func TestPlayer_MovesWithVelocity(t *testing.T) {
	a, _ := newArena(t)
	a.Player().SetVelocity(cp.Vector{X: 2})
	steps(a, 50)
	assert.InDelta(t, 5.0, a.Player().Position().X, 1e-6)
	assert.InDelta(t, 6.0, a.Player().Position().Y, 1e-6)
}

func TestVolume_ReportsEnteringCollider(t *testing.T) {
	a, _ := newArena(t)
	v := &victim{}
	a.RegisterPlayer(combat.Collider{ID: "player-body", Owner: "player", Damageable: v})

	vol := a.NewVolume(a.Boss(), 0.7, 0)
	var entered []combat.Collider
	vol.OnEnter(func(c combat.Collider) { entered = append(entered, c) })

	steps(a, 1)
	assert.Empty(t, entered)
	assert.Empty(t, vol.Overlapping())

	offset := a.Player().Position().Sub(a.Boss().Position())
	vol.SetPose(combat.Pose{Offset: offset})
	steps(a, 1)

	require.Len(t, entered, 1)
	assert.Equal(t, "player", entered[0].Owner)
	assert.Equal(t, combat.LayerPlayer, entered[0].Layer)
	assert.Len(t, vol.Overlapping(), 1)

	steps(a, 3)
	assert.Len(t, entered, 1, "a lasting overlap begins once")

	vol.ResetPose()
	steps(a, 1)
	assert.Empty(t, vol.Overlapping())
}

func TestVolume_DrivesHitbox(t *testing.T) {
	a, _ := newArena(t)
	sched := clock.NewScheduler()
	v := &victim{}
	a.RegisterPlayer(combat.Collider{ID: "player-body", Owner: "player", Damageable: v})

	vol := a.NewVolume(a.Boss(), 0.7, 0)
	hb := combat.NewHitbox(combat.HitboxConfig{Owner: "boss", Targets: combat.MaskOf(combat.LayerPlayer)}, vol, sched)
	vol.OnEnter(func(c combat.Collider) { hb.Touch(c) })

	hb.Activate(0, 1)
	vol.SetPose(combat.Pose{Offset: a.Player().Position().Sub(a.Boss().Position())})
	steps(a, 5)
	hb.Scan()

	assert.Equal(t, []int{1}, v.taken)
	assert.Equal(t, []string{"player"}, hb.HitTargets())
}

func TestVolume_IgnoresUnregisteredShapes(t *testing.T) {
	a, _ := newArena(t)
	vol := a.NewVolume(a.Player(), 0.5, 0)
	calls := 0
	vol.OnEnter(func(combat.Collider) { calls++ })

	steps(a, 2)
	assert.Zero(t, calls)
	assert.Empty(t, vol.Overlapping())
}

func TestVolume_CenterFollowsOwner(t *testing.T) {
	a, _ := newArena(t)
	vol := a.NewVolume(a.Player(), 0.5, 0.8)
	assert.Equal(t, cp.Vector{X: 3.8, Y: 6}, vol.Center())

	vol.SetPose(combat.Pose{Offset: cp.Vector{Y: -1}, Angle: 1})
	assert.Equal(t, cp.Vector{X: 3, Y: 5}, vol.Center())
	assert.InDelta(t, 1.0, vol.Pose().Angle, 1e-9)

	vol.ResetPose()
	assert.Equal(t, cp.Vector{X: 0.8}, vol.Pose().Offset)
}
