// Package clock provides the game-time scheduler every session state machine
// runs on.
//
// Game time only moves when Advance is called. A session advances it once per
// frame, so timers fire on the session goroutine in deadline order and never
// race with input handling.
package clock

import (
	"container/heap"
	"time"
)

// Timer is a pending one-shot callback created by Scheduler.After.
type Timer struct {
	at        time.Duration
	seq       uint64
	fn        func()
	cancelled bool
	fired     bool
	index     int
	owner     *Scheduler
}

// Cancel prevents the callback from firing. Safe to call multiple times and
// after the timer fired.
//
// Postcondition: Returns true if this call stopped a pending callback.
func (t *Timer) Cancel() bool {
	if t == nil || t.cancelled || t.fired {
		return false
	}
	t.cancelled = true
	t.owner.live--
	return true
}

// Pending reports whether the callback is still due to fire.
func (t *Timer) Pending() bool {
	return t != nil && !t.cancelled && !t.fired
}

// Deadline returns the game time at which the timer fires.
func (t *Timer) Deadline() time.Duration {
	return t.at
}

// Scheduler runs one-shot callbacks against a game clock.
// It is not safe for concurrent use; the owning session serialises access.
type Scheduler struct {
	now   time.Duration
	seq   uint64
	live  int
	queue timerQueue
}

// NewScheduler returns a Scheduler whose clock reads zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the current game time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// After schedules fn to run once game time has advanced by delay.
// A delay <= 0 fires on the next Advance, never synchronously.
//
// Precondition: fn must not be nil.
// Postcondition: Returns a pending Timer.
func (s *Scheduler) After(delay time.Duration, fn func()) *Timer {
	if fn == nil {
		panic("clock.Scheduler.After: fn must not be nil")
	}
	if delay < 0 {
		delay = 0
	}
	s.seq++
	t := &Timer{at: s.now + delay, seq: s.seq, fn: fn, owner: s}
	heap.Push(&s.queue, t)
	s.live++
	return t
}

// Advance moves the clock forward by dt and fires every timer whose deadline
// falls inside the step, earliest first; ties fire in scheduling order.
// Callbacks observe Now() equal to their own deadline. Timers scheduled by a
// callback fire within the same Advance when their deadline is also covered.
//
// Precondition: dt >= 0.
// Postcondition: Now() has advanced by dt.
func (s *Scheduler) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	target := s.now + dt
	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.at > target {
			break
		}
		heap.Pop(&s.queue)
		if next.cancelled {
			continue
		}
		if next.at > s.now {
			s.now = next.at
		}
		next.fired = true
		s.live--
		next.fn()
	}
	s.now = target
}

// Pending returns the number of timers still due to fire.
func (s *Scheduler) Pending() int {
	return s.live
}

// CancelAll cancels every pending timer.
//
// Postcondition: Pending() == 0.
func (s *Scheduler) CancelAll() {
	for _, t := range s.queue {
		t.Cancel()
	}
	s.queue = s.queue[:0]
}

// timerQueue is a min-heap ordered by deadline then sequence.
type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
