package clock

// Epoch is a generation counter that invalidates callbacks scheduled before
// the most recent Bump. State machines bump it when they are reset so stale
// timers and signal waits become no-ops when they later fire.
type Epoch struct {
	gen uint64
}

// Current returns the current generation.
func (e *Epoch) Current() uint64 {
	return e.gen
}

// Bump invalidates every callback guarded so far.
func (e *Epoch) Bump() {
	e.gen++
}

// Guard wraps fn so it only runs if no Bump happened since Guard was called.
//
// Precondition: fn must not be nil.
func (e *Epoch) Guard(fn func()) func() {
	gen := e.gen
	return func() {
		if e.gen != gen {
			return
		}
		fn()
	}
}
