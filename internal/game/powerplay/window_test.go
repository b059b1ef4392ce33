package powerplay_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/powerplay"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

type mover struct{ move, dash float64 }

func (m *mover) MoveSpeed() float64     { return m.move }
func (m *mover) SetMoveSpeed(v float64) { m.move = v }
func (m *mover) DashSpeed() float64     { return m.dash }
func (m *mover) SetDashSpeed(v float64) { m.dash = v }

type fixture struct {
	sched   *clock.Scheduler
	bus     *signal.Bus
	mover   *mover
	win     *powerplay.Window
	started []signal.PowerPlayStarted
	ended   []signal.PowerPlayEnded
	hits    []signal.PowerPlayHitConfirmed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{sched: clock.NewScheduler(), bus: signal.NewBus(), mover: &mover{move: 6, dash: 12}}
	f.win = powerplay.NewWindow(powerplay.DefaultConfig(), f.sched, f.bus, f.mover, zaptest.NewLogger(t))
	f.bus.PowerPlayStarted.Subscribe(func(e signal.PowerPlayStarted) { f.started = append(f.started, e) })
	f.bus.PowerPlayEnded.Subscribe(func(e signal.PowerPlayEnded) { f.ended = append(f.ended, e) })
	f.bus.PowerPlayHitConfirmed.Subscribe(func(e signal.PowerPlayHitConfirmed) { f.hits = append(f.hits, e) })
	return f
}

func TestWindow_StartAppliesBuff(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.win.StartWindow(0))
	assert.True(t, f.win.Active())
	assert.Equal(t, []signal.PowerPlayStarted{{Duration: 5 * time.Second}}, f.started)
	assert.InDelta(t, 7.2, f.mover.move, 1e-9)
	assert.InDelta(t, 14.4, f.mover.dash, 1e-9)
	assert.Equal(t, 5*time.Second, f.win.Remaining())
}

func TestWindow_TimesOut(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.win.StartWindow(2*time.Second))

	f.sched.Advance(2 * time.Second)

	assert.False(t, f.win.Active())
	assert.Equal(t, []signal.PowerPlayEnded{{Consumed: false}}, f.ended)
	assert.Equal(t, 6.0, f.mover.move)
	assert.Equal(t, 12.0, f.mover.dash)
}

func TestWindow_ConsumeOnHitOnce(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.win.StartWindow(0))

	// ceil(10 * 1.35 * 1.75) = ceil(23.625) = 24
	assert.Equal(t, 24, f.win.ConsumeOnHit(10))
	assert.False(t, f.win.Active())
	assert.True(t, f.win.Consumed())
	assert.Equal(t, 10, f.win.ConsumeOnHit(10), "second hit is unmodified")

	assert.Equal(t, []signal.PowerPlayHitConfirmed{{BaseDamage: 10, FinalDamage: 24}}, f.hits)
	assert.Equal(t, []signal.PowerPlayEnded{{Consumed: true}}, f.ended)

	f.sched.Advance(time.Minute)
	assert.Len(t, f.ended, 1, "stale auto-end must not fire")
}

func TestWindow_InactivePassesDamageThrough(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 10, f.win.ConsumeOnHit(10))
	assert.Empty(t, f.hits)
}

func TestWindow_CooldownFromEnd(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.win.StartWindow(time.Second))
	assert.False(t, f.win.StartWindow(time.Second), "already active")

	f.sched.Advance(time.Second)
	assert.Equal(t, 10*time.Second, f.win.CooldownRemaining())
	f.sched.Advance(9999 * time.Millisecond)
	assert.False(t, f.win.StartWindow(0))
	f.sched.Advance(time.Millisecond)
	assert.True(t, f.win.StartWindow(0))
	assert.Len(t, f.started, 2)
}

func TestWindow_EndWhenInactiveIsNoop(t *testing.T) {
	f := newFixture(t)
	f.win.EndWindow()
	assert.Empty(t, f.ended)
	assert.Zero(t, f.win.CooldownRemaining())
}

func TestWindow_HaltRestoresSilently(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.win.StartWindow(0))
	f.win.Halt()
	f.sched.Advance(time.Minute)
	assert.False(t, f.win.Active())
	assert.Empty(t, f.ended)
	assert.Equal(t, 6.0, f.mover.move)
}

func TestWindow_NilMover(t *testing.T) {
	sched := clock.NewScheduler()
	win := powerplay.NewWindow(powerplay.DefaultConfig(), sched, signal.NewBus(), nil, nil)
	require.True(t, win.StartWindow(0))
	win.EndWindow()
	assert.False(t, win.Active())
}

// Property: any sequence of starts, hits, ends and time steps leaves the
// mover's speeds exactly at their originals whenever the window is closed,
// and at most one hit per window is amplified.
func TestPropertyBuffRestoredExactly(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sched := clock.NewScheduler()
		bus := signal.NewBus()
		m := &mover{
			move: rapid.Float64Range(0.1, 50).Draw(rt, "move"),
			dash: rapid.Float64Range(0.1, 50).Draw(rt, "dash"),
		}
		origMove, origDash := m.move, m.dash
		win := powerplay.NewWindow(powerplay.DefaultConfig(), sched, bus, m, nil)
		amplified := 0
		windows := 0
		bus.PowerPlayStarted.Subscribe(func(signal.PowerPlayStarted) { windows++ })
		bus.PowerPlayHitConfirmed.Subscribe(func(signal.PowerPlayHitConfirmed) { amplified++ })

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				win.StartWindow(time.Duration(rapid.IntRange(0, 6000).Draw(rt, "ms")) * time.Millisecond)
			case 1:
				win.ConsumeOnHit(rapid.IntRange(1, 50).Draw(rt, "base"))
			case 2:
				win.EndWindow()
			case 3:
				sched.Advance(time.Duration(rapid.IntRange(0, 12000).Draw(rt, "adv")) * time.Millisecond)
			}
			if !win.Active() && (m.move != origMove || m.dash != origDash) {
				rt.Fatalf("speeds not restored: %v/%v want %v/%v", m.move, m.dash, origMove, origDash)
			}
		}
		if amplified > windows {
			rt.Fatalf("%d amplified hits over %d windows", amplified, windows)
		}
	})
}
