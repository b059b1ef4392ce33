package quiz

import (
	"sort"
	"time"

	"github.com/cory-johannsen/quizboss/internal/game/dice"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// Lifeline kinds as reported in LifelineUsed.
const (
	LifelineFiftyFifty = "fifty_fifty"
	LifelineFreeze     = "freeze"
)

// DefaultFreeze is how long a freeze holds the countdown.
const DefaultFreeze = 3 * time.Second

// Spender pays for lifelines. *player.Focus satisfies it.
type Spender interface {
	Spend(n int) bool
}

// Lifelines spends focus to help with the active question.
type Lifelines struct {
	flow   *Flow
	focus  Spender
	src    dice.Source
	bus    *signal.Bus
	freeze time.Duration
}

// NewLifelines binds lifelines to flow.
//
// Precondition: flow, focus and src must not be nil.
func NewLifelines(flow *Flow, focus Spender, src dice.Source, freeze time.Duration) *Lifelines {
	if flow == nil || focus == nil || src == nil {
		panic("quiz.NewLifelines: flow, focus and src must not be nil")
	}
	if freeze <= 0 {
		freeze = DefaultFreeze
	}
	return &Lifelines{flow: flow, focus: focus, src: src, bus: flow.bus, freeze: freeze}
}

// FiftyFifty hides two wrong options of the active question.
//
// Postcondition: Returns the hidden options and true, or nil and false with no
// focus spent when no question is active or a 50/50 was already used on it.
func (l *Lifelines) FiftyFifty() ([]int, bool) {
	q := l.flow.Current()
	if !l.flow.QuestionActive() || len(l.flow.HiddenOptions()) > 0 {
		return nil, false
	}
	if !l.focus.Spend(1) {
		return nil, false
	}
	wrong := make([]int, 0, len(q.Options)-1)
	for i := range q.Options {
		if i != q.CorrectIndex {
			wrong = append(wrong, i)
		}
	}
	keep := l.src.Intn(len(wrong))
	hidden := make([]int, 0, len(wrong)-1)
	for i, o := range wrong {
		if i != keep {
			hidden = append(hidden, o)
		}
	}
	sort.Ints(hidden)
	l.flow.hide(hidden)
	l.bus.LifelineUsed.Publish(signal.LifelineUsed{Kind: LifelineFiftyFifty, Hidden: hidden})
	return hidden, true
}

// Freeze holds the active question's countdown.
//
// Postcondition: Returns false with no focus spent when no question is
// active or the countdown is already frozen.
func (l *Lifelines) Freeze() bool {
	if !l.flow.QuestionActive() || l.flow.Frozen() {
		return false
	}
	if !l.focus.Spend(1) {
		return false
	}
	l.flow.freezeFor(l.freeze)
	l.bus.LifelineUsed.Publish(signal.LifelineUsed{Kind: LifelineFreeze})
	return true
}
