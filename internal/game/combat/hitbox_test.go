package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/combat"
)

type victim struct {
	taken []int
}

func (v *victim) TakeDamage(amount int) {
	v.taken = append(v.taken, amount)
}

func (v *victim) total() int {
	sum := 0
	for _, n := range v.taken {
		sum += n
	}
	return sum
}

type fakeVolume struct {
	overlaps []combat.Collider
	pose     combat.Pose
	posed    int
	resets   int
}

func (f *fakeVolume) Overlapping() []combat.Collider { return f.overlaps }
func (f *fakeVolume) SetPose(p combat.Pose)          { f.pose = p; f.posed++ }
func (f *fakeVolume) ResetPose()                      { f.pose = combat.Pose{}; f.resets++ }

func bossCollider(id string, v *victim) combat.Collider {
	return combat.Collider{ID: id, Owner: "boss", Layer: combat.LayerBoss, Damageable: v}
}

func newPlayerHitbox(vol combat.Volume, sched *clock.Scheduler) *combat.Hitbox {
	return combat.NewHitbox(combat.HitboxConfig{
		Owner:   "player",
		Targets: combat.MaskOf(combat.LayerBoss),
	}, vol, sched)
}

func TestHitbox_ActivateHitsExistingOverlaps(t *testing.T) {
	sched := clock.NewScheduler()
	v := &victim{}
	vol := &fakeVolume{overlaps: []combat.Collider{bossCollider("boss-body", v)}}
	hb := newPlayerHitbox(vol, sched)

	hb.Activate(200*time.Millisecond, 10)

	assert.True(t, hb.Active())
	assert.Equal(t, []int{10}, v.taken)
	assert.Equal(t, []string{"boss"}, hb.HitTargets())
}

func TestHitbox_OncePerActivation(t *testing.T) {
	sched := clock.NewScheduler()
	v := &victim{}
	vol := &fakeVolume{overlaps: []combat.Collider{
		bossCollider("boss-body", v),
		bossCollider("boss-tail", v),
	}}
	hb := newPlayerHitbox(vol, sched)

	hb.Activate(time.Second, 5)
	for i := 0; i < 10; i++ {
		hb.Scan()
	}
	assert.Equal(t, []int{5}, v.taken, "two colliders of one owner take one hit")

	hb.Activate(time.Second, 7)
	assert.Equal(t, []int{5, 7}, v.taken, "a new activation clears the hit set")
}

func TestHitbox_FiltersOwnerLayerAndCapability(t *testing.T) {
	sched := clock.NewScheduler()
	self := &victim{}
	other := &victim{}
	vol := &fakeVolume{overlaps: []combat.Collider{
		{ID: "own-body", Owner: "player", Layer: combat.LayerBoss, Damageable: self},
		{ID: "station", Owner: "station", Layer: combat.LayerStation, Damageable: other},
		{ID: "rock", Owner: "rock", Layer: combat.LayerBoss},
	}}
	hb := newPlayerHitbox(vol, sched)

	hb.Activate(time.Second, 3)

	assert.Empty(t, self.taken)
	assert.Empty(t, other.taken)
	assert.Empty(t, hb.HitTargets())
}

func TestHitbox_RequireHurtbox(t *testing.T) {
	sched := clock.NewScheduler()
	direct := &victim{}
	marked := &victim{}
	vol := &fakeVolume{overlaps: []combat.Collider{
		{ID: "body", Owner: "a", Layer: combat.LayerPlayer, Damageable: direct},
		{ID: "hurt", Owner: "b", Layer: combat.LayerPlayer, Hurtbox: &combat.Hurtbox{Target: marked}},
	}}
	hb := combat.NewHitbox(combat.HitboxConfig{
		Owner:          "boss",
		Targets:        combat.MaskOf(combat.LayerPlayer),
		RequireHurtbox: true,
	}, vol, sched)

	hb.Activate(time.Second, 1)

	assert.Empty(t, direct.taken)
	assert.Equal(t, []int{1}, marked.taken)
}

func TestHitbox_WatchdogDeactivates(t *testing.T) {
	sched := clock.NewScheduler()
	hb := newPlayerHitbox(nil, sched)

	hb.Activate(200*time.Millisecond, 1)
	sched.Advance(199 * time.Millisecond)
	assert.True(t, hb.Active())
	sched.Advance(time.Millisecond)
	assert.False(t, hb.Active())
}

func TestHitbox_StaleWatchdogDoesNotCutNewActivation(t *testing.T) {
	sched := clock.NewScheduler()
	hb := newPlayerHitbox(nil, sched)

	hb.Activate(200*time.Millisecond, 1)
	sched.Advance(150 * time.Millisecond)
	hb.Activate(200*time.Millisecond, 1)
	sched.Advance(100 * time.Millisecond)
	assert.True(t, hb.Active(), "first watchdog must be ignored")
	sched.Advance(100 * time.Millisecond)
	assert.False(t, hb.Active())
}

func TestHitbox_TouchAndModifier(t *testing.T) {
	sched := clock.NewScheduler()
	v := &victim{}
	hb := newPlayerHitbox(nil, sched)
	hb.SetModifier(func(_ combat.Collider, dmg int) int { return dmg * 3 })

	assert.False(t, hb.Touch(bossCollider("boss-body", v)), "inactive hitbox ignores touches")
	hb.Activate(time.Second, 4)
	assert.True(t, hb.Touch(bossCollider("boss-body", v)))
	assert.False(t, hb.Touch(bossCollider("boss-body", v)))
	assert.Equal(t, []int{12}, v.taken)
}

func TestHitbox_DeactivateDuringDamageStopsScan(t *testing.T) {
	sched := clock.NewScheduler()
	var hb *combat.Hitbox
	first := &killer{fn: func() { hb.Deactivate() }}
	second := &victim{}
	vol := &fakeVolume{overlaps: []combat.Collider{
		{ID: "a", Owner: "a", Layer: combat.LayerBoss, Damageable: first},
		{ID: "b", Owner: "b", Layer: combat.LayerBoss, Damageable: second},
	}}
	hb = newPlayerHitbox(vol, sched)

	hb.Activate(time.Second, 1)

	assert.False(t, hb.Active())
	assert.Empty(t, second.taken)
}

type killer struct{ fn func() }

func (k *killer) TakeDamage(int) { k.fn() }

func TestNewHitbox_NilSchedulerPanics(t *testing.T) {
	require.Panics(t, func() { combat.NewHitbox(combat.HitboxConfig{}, nil, nil) })
}

// Property: within one activation each owner is damaged at most once no matter
// how many colliders it has or how often the volume is scanned.
func TestPropertyHitSetNeverDuplicates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sched := clock.NewScheduler()
		owners := rapid.IntRange(1, 5).Draw(rt, "owners")
		victims := make([]*victim, owners)
		var overlaps []combat.Collider
		for i := range victims {
			victims[i] = &victim{}
			shapes := rapid.IntRange(1, 4).Draw(rt, "shapes")
			for s := 0; s < shapes; s++ {
				overlaps = append(overlaps, combat.Collider{
					ID:         string(rune('a'+i)) + string(rune('0'+s)),
					Owner:      string(rune('a' + i)),
					Layer:      combat.LayerBoss,
					Damageable: victims[i],
				})
			}
		}
		vol := &fakeVolume{overlaps: overlaps}
		hb := newPlayerHitbox(vol, sched)
		activations := rapid.IntRange(1, 4).Draw(rt, "activations")
		scans := rapid.IntRange(0, 10).Draw(rt, "scans")
		for a := 0; a < activations; a++ {
			hb.Activate(time.Second, 1)
			for s := 0; s < scans; s++ {
				hb.Scan()
			}
			if len(hb.HitTargets()) != owners {
				rt.Fatalf("expected %d targets, got %d", owners, len(hb.HitTargets()))
			}
		}
		for i, v := range victims {
			if len(v.taken) != activations {
				rt.Fatalf("owner %d hit %d times over %d activations", i, len(v.taken), activations)
			}
		}
	})
}
