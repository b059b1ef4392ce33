package player

// Focus is the resource spent on lifelines.
type Focus struct {
	max     int
	current int
}

// NewFocus returns a Focus holding start points, clamped to [0, max].
func NewFocus(max, start int) *Focus {
	if start > max {
		start = max
	}
	if start < 0 {
		start = 0
	}
	return &Focus{max: max, current: start}
}

func (f *Focus) Current() int { return f.current }
func (f *Focus) Max() int     { return f.max }

// Spend removes n points if that many are available.
func (f *Focus) Spend(n int) bool {
	if n < 0 || f.current < n {
		return false
	}
	f.current -= n
	return true
}

// Gain adds n points, capped at Max.
func (f *Focus) Gain(n int) {
	if n <= 0 {
		return
	}
	f.current += n
	if f.current > f.max {
		f.current = f.max
	}
}
