package combat_test

import (
	"math"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/combat"
)

type point cp.Vector

func (p *point) Position() cp.Vector { return cp.Vector(*p) }

type seqFixture struct {
	sched    *clock.Scheduler
	vol      *fakeVolume
	victim   *victim
	seq      *combat.Sequencer
	resolved []combat.AttackResolved
}

func newSeqFixture(t *testing.T, cfg combat.SequencerConfig) *seqFixture {
	t.Helper()
	f := &seqFixture{sched: clock.NewScheduler(), victim: &victim{}}
	f.vol = &fakeVolume{overlaps: []combat.Collider{{
		ID: "player-body", Owner: "player", Layer: combat.LayerPlayer,
		Hurtbox: &combat.Hurtbox{Target: f.victim},
	}}}
	hb := combat.NewHitbox(combat.HitboxConfig{
		Owner: "boss", Targets: combat.MaskOf(combat.LayerPlayer), RequireHurtbox: true,
	}, f.vol, f.sched)
	self := &point{}
	f.seq = combat.NewSequencer(cfg, hb, f.sched, self)
	f.seq.OnResolved(func(r combat.AttackResolved) { f.resolved = append(f.resolved, r) })
	return f
}

func timedCfg() combat.SequencerConfig {
	return combat.SequencerConfig{Windup: 300 * time.Millisecond, Active: 200 * time.Millisecond}
}

func TestSequencer_TimedLifecycle(t *testing.T) {
	f := newSeqFixture(t, timedCfg())

	require.True(t, f.seq.QueueAttack(1))
	assert.Equal(t, combat.AttackWindup, f.seq.State())
	assert.False(t, f.seq.QueueAttack(1), "busy sequencer rejects")

	f.sched.Advance(300 * time.Millisecond)
	assert.Equal(t, combat.AttackActive, f.seq.State())
	assert.Equal(t, []int{1}, f.victim.taken)

	f.sched.Advance(199 * time.Millisecond)
	assert.Empty(t, f.resolved)
	f.sched.Advance(time.Millisecond)
	assert.Equal(t, combat.AttackIdle, f.seq.State())
	require.Len(t, f.resolved, 1)
	assert.Equal(t, combat.AttackResolved{Damage: 1, Hits: 1}, f.resolved[0])
	assert.False(t, f.seq.Hitbox().Active())
	assert.Equal(t, 1, f.vol.resets)
}

func TestSequencer_ZeroWindupStartsActive(t *testing.T) {
	cfg := timedCfg()
	cfg.Windup = 0
	f := newSeqFixture(t, cfg)

	require.True(t, f.seq.QueueAttack(10))
	assert.Equal(t, combat.AttackActive, f.seq.State())
	assert.Equal(t, []int{10}, f.victim.taken)

	f.sched.Advance(200 * time.Millisecond)
	require.Len(t, f.resolved, 1)
	assert.Equal(t, combat.AttackResolved{Damage: 10, Hits: 1}, f.resolved[0], "hits survive the hitbox watchdog")
}

func TestSequencer_MarkersWaitForCalls(t *testing.T) {
	cfg := timedCfg()
	cfg.Drive = combat.DriveMarkers
	f := newSeqFixture(t, cfg)

	require.True(t, f.seq.QueueAttack(2))
	f.sched.Advance(10 * time.Second)
	assert.Equal(t, combat.AttackWindup, f.seq.State(), "no marker, no progress")

	f.seq.EndActive()
	assert.Equal(t, combat.AttackWindup, f.seq.State(), "end marker before begin is ignored")

	f.seq.BeginActive()
	assert.Equal(t, combat.AttackActive, f.seq.State())
	f.seq.EndActive()
	assert.Equal(t, combat.AttackIdle, f.seq.State())
	assert.Len(t, f.resolved, 1)
}

func TestSequencer_MissingBeginMarkerFallsBackToTimedSchedule(t *testing.T) {
	cfg := timedCfg()
	cfg.Drive = combat.DriveMarkers
	cfg.MarkerTimeout = cfg.Windup
	f := newSeqFixture(t, cfg)

	require.True(t, f.seq.QueueAttack(2))
	f.sched.Advance(300 * time.Millisecond)
	assert.Equal(t, combat.AttackActive, f.seq.State())
	assert.True(t, f.seq.Hitbox().Active(), "the hitbox stays armed for the active window")

	f.sched.Advance(199 * time.Millisecond)
	assert.Empty(t, f.resolved)
	f.sched.Advance(time.Millisecond)
	require.Len(t, f.resolved, 1)
	assert.Equal(t, combat.AttackResolved{Damage: 2, Hits: 1}, f.resolved[0])
}

func TestSequencer_BeginMarkerBoundsActive(t *testing.T) {
	cfg := timedCfg()
	cfg.Drive = combat.DriveMarkers
	cfg.MarkerTimeout = 50 * time.Millisecond
	f := newSeqFixture(t, cfg)

	require.True(t, f.seq.QueueAttack(2))
	f.seq.BeginActive()
	f.sched.Advance(199 * time.Millisecond)
	assert.Equal(t, combat.AttackActive, f.seq.State(), "never shorter than the active window")
	f.sched.Advance(time.Millisecond)
	assert.Equal(t, combat.AttackIdle, f.seq.State())
	require.Len(t, f.resolved, 1)
	assert.Equal(t, 1, f.resolved[0].Hits)
}

func TestSequencer_DrivesShareTiming(t *testing.T) {
	type timing struct {
		active   time.Duration
		resolved time.Duration
		hits     int
	}
	run := func(cfg combat.SequencerConfig) timing {
		f := newSeqFixture(t, cfg)
		var got timing
		f.seq.OnResolved(func(r combat.AttackResolved) {
			got.resolved = f.sched.Now()
			got.hits = r.Hits
		})
		require.True(t, f.seq.QueueAttack(1))
		for range 1000 {
			f.sched.Advance(time.Millisecond)
			if f.seq.Hitbox().Active() {
				got.active += time.Millisecond
			}
		}
		return got
	}

	timed := timedCfg()
	markers := timedCfg()
	markers.Drive = combat.DriveMarkers
	markers.MarkerTimeout = markers.Windup

	want := timing{active: 200 * time.Millisecond, resolved: 500 * time.Millisecond, hits: 1}
	assert.Equal(t, want, run(timed))
	assert.Equal(t, want, run(markers))
}

func TestSequencer_CancelDoesNotPublish(t *testing.T) {
	f := newSeqFixture(t, timedCfg())

	require.True(t, f.seq.QueueAttack(1))
	f.sched.Advance(350 * time.Millisecond)
	f.seq.Cancel()
	f.sched.Advance(time.Second)

	assert.Equal(t, combat.AttackIdle, f.seq.State())
	assert.Empty(t, f.resolved)
	assert.False(t, f.seq.Hitbox().Active())
}

func TestSequencer_AimsAtTarget(t *testing.T) {
	cfg := timedCfg()
	cfg.AimAtTarget = true
	cfg.AdvanceTowardTarget = true
	cfg.ForwardDistance = 1
	f := newSeqFixture(t, cfg)
	target := &point{X: 0, Y: 4}
	f.seq.SetTarget(target)

	require.True(t, f.seq.QueueAttack(1))
	f.sched.Advance(300 * time.Millisecond)

	assert.InDelta(t, math.Pi/2, f.vol.pose.Angle, 1e-9)
	assert.InDelta(t, 0, f.vol.pose.Offset.X, 1e-9)
	assert.InDelta(t, 1, f.vol.pose.Offset.Y, 1e-9, "advance is capped by forward distance")
}

func TestSequencer_AdvanceStopsAtTarget(t *testing.T) {
	cfg := timedCfg()
	cfg.AimAtTarget = true
	cfg.AdvanceTowardTarget = true
	cfg.ForwardDistance = 1
	f := newSeqFixture(t, cfg)
	f.seq.SetTarget(&point{X: 0.5, Y: 0})

	require.True(t, f.seq.QueueAttack(1))
	f.sched.Advance(300 * time.Millisecond)

	assert.InDelta(t, 0.5, f.vol.pose.Offset.X, 1e-9)
}

func TestSequencer_NoTargetUsesDefaultPose(t *testing.T) {
	cfg := timedCfg()
	cfg.AimAtTarget = true
	cfg.DefaultPose = combat.Pose{Offset: cp.Vector{X: 0.7}}
	f := newSeqFixture(t, cfg)

	require.True(t, f.seq.QueueAttack(1))
	f.sched.Advance(300 * time.Millisecond)

	assert.Equal(t, cfg.DefaultPose, f.vol.pose)
}

func TestSequencer_LockedPredictionIgnoresLaterMovement(t *testing.T) {
	cfg := timedCfg()
	cfg.AimAtTarget = true
	cfg.LockPrediction = true
	f := newSeqFixture(t, cfg)
	target := &point{X: 3, Y: 0}
	f.seq.SetTarget(target)

	require.True(t, f.seq.QueueAttack(1))
	pose, ok := f.seq.Predicted()
	require.True(t, ok)
	assert.InDelta(t, 0, pose.Angle, 1e-9)

	*target = point{X: 0, Y: 3}
	f.sched.Advance(300 * time.Millisecond)
	assert.InDelta(t, 0, f.vol.pose.Angle, 1e-9)
}

func TestSequencer_UnlockedAimsAtActiveStart(t *testing.T) {
	cfg := timedCfg()
	cfg.AimAtTarget = true
	f := newSeqFixture(t, cfg)
	target := &point{X: 3, Y: 0}
	f.seq.SetTarget(target)

	require.True(t, f.seq.QueueAttack(1))
	*target = point{X: 0, Y: -3}
	f.sched.Advance(300 * time.Millisecond)
	assert.InDelta(t, -math.Pi/2, f.vol.pose.Angle, 1e-9)
}

func TestSequencer_RequeueFromResolvedHandler(t *testing.T) {
	f := newSeqFixture(t, timedCfg())
	requeued := false
	f.seq.OnResolved(func(combat.AttackResolved) {
		if !requeued {
			requeued = f.seq.QueueAttack(1)
		}
	})

	require.True(t, f.seq.QueueAttack(1))
	f.sched.Advance(500 * time.Millisecond)
	assert.True(t, requeued)
	assert.Equal(t, combat.AttackWindup, f.seq.State())
}

func TestParseDriveMode(t *testing.T) {
	assert.Equal(t, combat.DriveMarkers, combat.ParseDriveMode("markers"))
	assert.Equal(t, combat.DriveTimed, combat.ParseDriveMode("timed"))
	assert.Equal(t, combat.DriveTimed, combat.ParseDriveMode(""))
}
