package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
)

func TestScheduler_FiresAtDeadline(t *testing.T) {
	s := clock.NewScheduler()
	var firedAt time.Duration
	s.After(500*time.Millisecond, func() { firedAt = s.Now() })

	s.Advance(499 * time.Millisecond)
	assert.Zero(t, firedAt, "must not fire early")
	assert.Equal(t, 1, s.Pending())

	s.Advance(10 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, firedAt, "callback observes its own deadline")
	assert.Equal(t, 509*time.Millisecond, s.Now())
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_ZeroDelayWaitsForAdvance(t *testing.T) {
	s := clock.NewScheduler()
	fired := false
	s.After(0, func() { fired = true })
	assert.False(t, fired)
	s.Advance(0)
	assert.True(t, fired)
}

func TestScheduler_Cancel(t *testing.T) {
	s := clock.NewScheduler()
	fired := false
	tm := s.After(time.Second, func() { fired = true })

	assert.True(t, tm.Cancel())
	assert.False(t, tm.Cancel(), "second cancel is a no-op")
	assert.False(t, tm.Pending())

	s.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_CancelAfterFireIsNoop(t *testing.T) {
	s := clock.NewScheduler()
	tm := s.After(time.Millisecond, func() {})
	s.Advance(time.Second)
	assert.False(t, tm.Cancel())
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_TiesFireInScheduleOrder(t *testing.T) {
	s := clock.NewScheduler()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		s.After(100*time.Millisecond, func() { order = append(order, i) })
	}
	s.Advance(time.Second)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestScheduler_ChainedTimersFireInOneAdvance(t *testing.T) {
	s := clock.NewScheduler()
	var stamps []time.Duration
	s.After(100*time.Millisecond, func() {
		stamps = append(stamps, s.Now())
		s.After(200*time.Millisecond, func() {
			stamps = append(stamps, s.Now())
		})
	})
	s.Advance(time.Second)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 300 * time.Millisecond}, stamps)
}

func TestScheduler_CancelAll(t *testing.T) {
	s := clock.NewScheduler()
	count := 0
	for i := 1; i <= 3; i++ {
		s.After(time.Duration(i)*time.Second, func() { count++ })
	}
	s.CancelAll()
	assert.Equal(t, 0, s.Pending())
	s.Advance(10 * time.Second)
	assert.Equal(t, 0, count)
}

func TestScheduler_NilCallbackPanics(t *testing.T) {
	s := clock.NewScheduler()
	assert.Panics(t, func() { s.After(time.Second, nil) })
}

// Property: timers always fire in non-decreasing deadline order regardless of
// how the clock is stepped.
func TestPropertyScheduler_DeadlineOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := clock.NewScheduler()
		n := rapid.IntRange(1, 30).Draw(rt, "n")
		var fired []time.Duration
		for i := 0; i < n; i++ {
			d := time.Duration(rapid.IntRange(0, 5000).Draw(rt, "delay_ms")) * time.Millisecond
			s.After(d, func() { fired = append(fired, s.Now()) })
		}
		for s.Pending() > 0 {
			s.Advance(time.Duration(rapid.IntRange(1, 700).Draw(rt, "step_ms")) * time.Millisecond)
		}
		require.Len(rt, fired, n)
		for i := 1; i < len(fired); i++ {
			assert.LessOrEqual(rt, fired[i-1], fired[i])
		}
	})
}

func TestEpoch_GuardDropsStaleCallbacks(t *testing.T) {
	var e clock.Epoch
	calls := 0
	stale := e.Guard(func() { calls++ })
	e.Bump()
	fresh := e.Guard(func() { calls += 10 })

	stale()
	fresh()
	assert.Equal(t, 10, calls)
	assert.Equal(t, uint64(1), e.Current())
}

func TestEpoch_WithScheduler(t *testing.T) {
	s := clock.NewScheduler()
	var e clock.Epoch
	fired := false
	s.After(time.Second, e.Guard(func() { fired = true }))
	e.Bump()
	s.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestFixedStep_CarriesRemainder(t *testing.T) {
	f := clock.NewFixedStep(20*time.Millisecond, 5)
	assert.Equal(t, 1, f.Accumulate(33*time.Millisecond))
	assert.Equal(t, 1, f.Accumulate(10*time.Millisecond), "13ms carried + 10ms")
	assert.Equal(t, 0, f.Accumulate(0))
}

func TestFixedStep_CapsCatchUp(t *testing.T) {
	f := clock.NewFixedStep(20*time.Millisecond, 3)
	assert.Equal(t, 3, f.Accumulate(time.Second))
	assert.Equal(t, 0, f.Accumulate(time.Millisecond), "surplus dropped after a stall")
}

// Property: without hitting the cap, total steps equal floor(total time / step).
func TestPropertyFixedStep_Conserves(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := clock.NewFixedStep(10*time.Millisecond, 1000)
		var total time.Duration
		steps := 0
		frames := rapid.IntRange(1, 50).Draw(rt, "frames")
		for i := 0; i < frames; i++ {
			dt := time.Duration(rapid.IntRange(0, 40).Draw(rt, "dt_ms")) * time.Millisecond
			total += dt
			steps += f.Accumulate(dt)
		}
		assert.Equal(rt, int(total/(10*time.Millisecond)), steps)
	})
}
