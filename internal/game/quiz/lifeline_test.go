package quiz_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/quizboss/internal/game/dice"
	"github.com/cory-johannsen/quizboss/internal/game/player"
	"github.com/cory-johannsen/quizboss/internal/game/quiz"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

func TestFiftyFifty_HidesTwoWrongOptions(t *testing.T) {
	f := newFlowFixture(t, quiz.AdvanceAuto, 3)
	focus := player.NewFocus(3, 2)
	var used []signal.LifelineUsed
	f.bus.LifelineUsed.Subscribe(func(e signal.LifelineUsed) { used = append(used, e) })
	ll := quiz.NewLifelines(f.flow, focus, dice.NewSequence(1), 0)

	_, ok := ll.FiftyFifty()
	assert.False(t, ok, "no active question")
	assert.Equal(t, 2, focus.Current())

	f.flow.NextQuestion()
	hidden, ok := ll.FiftyFifty()
	require.True(t, ok)
	// wrong options are 0, 2, 3; the source keeps index 1 of them (option 2)
	assert.Equal(t, []int{0, 3}, hidden)
	assert.Equal(t, hidden, f.flow.HiddenOptions())
	assert.Equal(t, 1, focus.Current())
	assert.Equal(t, []signal.LifelineUsed{{Kind: quiz.LifelineFiftyFifty, Hidden: []int{0, 3}}}, used)

	_, ok = ll.FiftyFifty()
	assert.False(t, ok, "once per question")
	assert.Equal(t, 1, focus.Current())

	f.flow.SubmitAnswer(0)
	assert.True(t, f.flow.QuestionActive(), "hidden options cannot be chosen")
	f.flow.SubmitAnswer(1)
	assert.False(t, f.flow.QuestionActive())
}

func TestFreeze_HoldsCountdown(t *testing.T) {
	f := newFlowFixture(t, quiz.AdvanceAuto, 3)
	focus := player.NewFocus(3, 2)
	ll := quiz.NewLifelines(f.flow, focus, dice.NewSequence(0), 0)
	f.flow.NextQuestion()
	f.advance(time.Second)

	require.True(t, ll.Freeze())
	assert.False(t, ll.Freeze(), "already frozen")
	f.advance(3 * time.Second)
	assert.Equal(t, 9*time.Second, f.flow.Remaining())
	f.advance(time.Second)
	assert.Equal(t, 8*time.Second, f.flow.Remaining())
	assert.Equal(t, 1, focus.Current())
}

func TestLifelines_NoFocus(t *testing.T) {
	f := newFlowFixture(t, quiz.AdvanceAuto, 3)
	ll := quiz.NewLifelines(f.flow, player.NewFocus(3, 0), dice.NewSequence(0), 0)
	f.flow.NextQuestion()

	_, ok := ll.FiftyFifty()
	assert.False(t, ok)
	assert.False(t, ll.Freeze())
	assert.Empty(t, f.flow.HiddenOptions())
}

// Property: a 50/50 never hides the correct option and always hides exactly two.
func TestPropertyFiftyFiftyKeepsCorrect(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFlowFixture(t, quiz.AdvanceAuto, 1)
		seed := rapid.IntRange(0, 1000).Draw(rt, "seed")
		ll := quiz.NewLifelines(f.flow, player.NewFocus(3, 3), dice.NewSequence(seed), 0)
		f.flow.NextQuestion()
		hidden, ok := ll.FiftyFifty()
		if !ok {
			rt.Fatalf("50/50 refused")
		}
		if len(hidden) != 2 {
			rt.Fatalf("hid %d options", len(hidden))
		}
		for _, h := range hidden {
			if h == f.flow.Current().CorrectIndex {
				rt.Fatalf("hid the correct option %d", h)
			}
		}
	})
}
