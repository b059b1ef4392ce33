// Package quiz drives the question lifecycle: starting questions when the
// player is ready, counting down, judging answers and deciding when the
// next question may start.
package quiz

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/combat"
	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// AdvanceMode selects how the flow moves past a resolved question.
type AdvanceMode int

const (
	// AdvanceAuto starts the next question on its own.
	AdvanceAuto AdvanceMode = iota
	// AdvanceManual shows a prompt after wrong answers and timeouts and
	// waits for Continue.
	AdvanceManual
)

// ParseAdvanceMode maps a config string to an AdvanceMode; unknown values are auto.
func ParseAdvanceMode(s string) AdvanceMode {
	if s == "manual" {
		return AdvanceManual
	}
	return AdvanceAuto
}

// State is the lifecycle position of the current question.
type State int

const (
	Idle State = iota
	Active
	Correct
	Wrong
	Timeout
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Correct:
		return "correct"
	case Wrong:
		return "wrong"
	case Timeout:
		return "timeout"
	default:
		return "idle"
	}
}

// Gate is the safe zone the flow waits on.
type Gate interface {
	Active() bool
	ForceReturnPlayerAndReady()
}

// Boss receives answer damage and wrong-answer punishments.
type Boss interface {
	ApplyDamage(amount int)
	OnWrongAnswer()
	Dead() bool
}

// PowerPlay is the window opened by a correct answer.
type PowerPlay interface {
	StartWindow(d time.Duration) bool
}

// Config tunes the flow's delays.
type Config struct {
	Mode              AdvanceMode
	PowerPlayDuration time.Duration

	CorrectAdvanceDelay time.Duration
	TimeoutAdvanceDelay time.Duration
	ManualPromptDelay   time.Duration

	WrongAnswerTimeout       time.Duration
	ManualWrongAnswerTimeout time.Duration
	WrongAnswerGrace         time.Duration
	ManualWrongAnswerGrace   time.Duration

	SafeZonePoll      time.Duration
	MaxCombo          int
	PerfectDodgeBonus float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Mode:                     AdvanceAuto,
		PowerPlayDuration:        5 * time.Second,
		CorrectAdvanceDelay:      750 * time.Millisecond,
		TimeoutAdvanceDelay:      750 * time.Millisecond,
		ManualPromptDelay:        100 * time.Millisecond,
		WrongAnswerTimeout:       2 * time.Second,
		ManualWrongAnswerTimeout: 3 * time.Second,
		WrongAnswerGrace:         250 * time.Millisecond,
		ManualWrongAnswerGrace:   100 * time.Millisecond,
		SafeZonePoll:             100 * time.Millisecond,
		MaxCombo:                 10,
		PerfectDodgeBonus:        0.1,
	}
}

// Deps are the collaborators of a Flow. Gate and PowerPlay may be nil: a
// nil gate never blocks and a nil power play never starts.
type Deps struct {
	Sched     *clock.Scheduler
	Bus       *signal.Bus
	Pack      *question.Pack
	Gate      Gate
	Boss      Boss
	PowerPlay PowerPlay
	Formula   combat.Formula
	Logger    *zap.Logger
}

// Flow is the question state machine of one session. Not safe for
// concurrent use; the session goroutine owns it.
type Flow struct {
	cfg     Config
	sched   *clock.Scheduler
	bus     *signal.Bus
	pack    *question.Pack
	gate    Gate
	boss    Boss
	pp      PowerPlay
	formula combat.Formula
	logger  *zap.Logger
	subs    signal.Group

	// pending tags every scheduled continuation; bumping it drops them all.
	pending clock.Epoch
	halted  bool

	index     int
	current   *question.Question
	remaining time.Duration
	startedAt time.Duration
	state     State
	combo     int
	nextBonus float64

	waiting           bool
	awaitingAdvance   bool
	awaitingPowerPlay bool
	awaitingChallenge bool
	challengeTimer    *clock.Timer

	frozenUntil time.Duration
	hidden      map[int]bool
}

// NewFlow returns an idle flow positioned before the first question.
//
// Precondition: Sched, Bus, Pack and Boss must not be nil.
func NewFlow(cfg Config, deps Deps) *Flow {
	if deps.Sched == nil || deps.Bus == nil || deps.Pack == nil || deps.Boss == nil {
		panic("quiz.NewFlow: Sched, Bus, Pack and Boss must not be nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	f := &Flow{
		cfg:     cfg,
		sched:   deps.Sched,
		bus:     deps.Bus,
		pack:    deps.Pack,
		gate:    deps.Gate,
		boss:    deps.Boss,
		pp:      deps.PowerPlay,
		formula: deps.Formula,
		logger:  deps.Logger,
		index:   -1,
	}
	signal.On(&f.subs, &f.bus.PerfectDodgeSuccess, func(signal.PerfectDodgeSuccess) {
		if f.cfg.PerfectDodgeBonus > f.nextBonus {
			f.nextBonus = f.cfg.PerfectDodgeBonus
		}
	})
	signal.On(&f.subs, &f.bus.PowerPlayEnded, func(signal.PowerPlayEnded) { f.onPowerPlayEnded() })
	signal.On(&f.subs, &f.bus.WrongAnswerChallengeEnded, func(signal.WrongAnswerChallengeEnded) { f.finishWrong() })
	return f
}

// Index returns the position of the current question, -1 before the first.
func (f *Flow) Index() int { return f.index }

// Current returns the current question, or nil before the first.
func (f *Flow) Current() *question.Question { return f.current }

// QuestionActive reports whether an answer is being awaited.
func (f *Flow) QuestionActive() bool { return f.state == Active }

// State returns the lifecycle state of the current question.
func (f *Flow) State() State { return f.state }

// Remaining returns the countdown of the active question.
func (f *Flow) Remaining() time.Duration { return f.remaining }

// Combo returns the correct-answer streak.
func (f *Flow) Combo() int { return f.combo }

// NextAnswerBonus returns the pending one-shot damage bonus.
func (f *Flow) NextAnswerBonus() float64 { return f.nextBonus }

// AwaitingAdvance reports whether the manual advance prompt is showing.
func (f *Flow) AwaitingAdvance() bool { return f.awaitingAdvance }

// WaitingForGate reports whether the flow is polling the safe zone.
func (f *Flow) WaitingForGate() bool { return f.waiting }

// Halted reports whether Halt was called.
func (f *Flow) Halted() bool { return f.halted }

// ConsumeNextAnswerBonus returns the pending bonus and clears it.
func (f *Flow) ConsumeNextAnswerBonus() float64 {
	v := f.nextBonus
	f.nextBonus = 0
	return v
}

// NextQuestion starts the next question once the safe zone is active,
// polling it until then. Running out of questions wins the game.
func (f *Flow) NextQuestion() {
	if f.halted || f.state == Active {
		return
	}
	f.pending.Bump()
	if f.gate != nil && !f.gate.Active() {
		f.waiting = true
		f.after(f.cfg.SafeZonePoll, f.NextQuestion)
		return
	}
	f.waiting = false
	f.startNext()
}

func (f *Flow) startNext() {
	f.index++
	q, ok := f.pack.At(f.index)
	if !ok {
		f.current = nil
		f.state = Idle
		f.logger.Info("question pack exhausted", zap.Int("answered", f.index))
		f.bus.GameWon.Publish(signal.GameWon{})
		return
	}
	f.current = q
	f.remaining = q.TimeLimit
	f.startedAt = f.sched.Now()
	f.state = Active
	f.awaitingAdvance = false
	f.frozenUntil = 0
	f.hidden = nil
	f.logger.Debug("question started", zap.Int("index", f.index), zap.String("id", q.ID))
	f.bus.AdvancePromptHidden.Publish(signal.AdvancePromptHidden{})
	f.bus.QuestionStarted.Publish(signal.QuestionStarted{Index: f.index, Question: q})
}

// Update counts the active question down by dt, the frame that just ended
// at the scheduler's current time. Time under a freeze or before the question
// started does not count.
// Reaching zero times the question out.
func (f *Flow) Update(dt time.Duration) {
	if f.halted || f.state != Active || dt <= 0 {
		return
	}
	now := f.sched.Now()
	dt = min(dt, now-f.startedAt)
	if start := now - dt; f.frozenUntil > start {
		held := f.frozenUntil - start
		if f.frozenUntil > now {
			held = dt
		}
		dt -= held
	}
	if dt <= 0 {
		return
	}
	f.remaining -= dt
	if f.remaining > 0 {
		return
	}
	f.remaining = 0
	f.state = Timeout
	f.combo = 0
	f.logger.Debug("question timed out", zap.Int("index", f.index))
	f.bus.QuestionTimeout.Publish(signal.QuestionTimeout{Index: f.index})
	if f.halted {
		return
	}
	if f.cfg.Mode == AdvanceManual {
		f.after(f.cfg.ManualPromptDelay, f.showPrompt)
		return
	}
	f.advanceAfter(f.cfg.TimeoutAdvanceDelay)
}

// SubmitAnswer judges choice for the active question. It is ignored unless a
// question is active, the safe zone is active and choice is a visible option.
func (f *Flow) SubmitAnswer(choice int) {
	if f.halted || f.state != Active {
		return
	}
	if f.gate != nil && !f.gate.Active() {
		return
	}
	if !f.current.ValidChoice(choice) || f.hidden[choice] {
		return
	}
	correct := f.current.IsCorrect(choice)
	if correct {
		f.state = Correct
	} else {
		f.state = Wrong
	}
	f.bus.AnswerSubmitted.Publish(signal.AnswerSubmitted{Choice: choice, Correct: correct})
	if f.halted {
		return
	}
	if correct {
		f.onCorrect()
	} else {
		f.onWrong()
	}
}

func (f *Flow) onCorrect() {
	started := f.pp != nil && f.pp.StartWindow(f.cfg.PowerPlayDuration)
	dmg := f.formula.Damage(combat.AnswerInput{
		Difficulty:      f.current.Difficulty,
		Combo:           f.combo,
		Remaining:       f.remaining,
		TimeLimit:       f.current.TimeLimit,
		NextAnswerBonus: f.ConsumeNextAnswerBonus(),
	})
	f.logger.Debug("correct answer", zap.Int("damage", dmg), zap.Int("combo", f.combo), zap.Bool("power_play", started))
	if f.combo < f.cfg.MaxCombo {
		f.combo++
	}
	if started {
		f.awaitingPowerPlay = true
	}
	f.boss.ApplyDamage(dmg)
	if f.halted || started {
		return
	}
	f.advanceAfter(f.cfg.CorrectAdvanceDelay)
}

func (f *Flow) onWrong() {
	f.combo = 0
	timeout := f.cfg.WrongAnswerTimeout
	if f.cfg.Mode == AdvanceManual {
		timeout = f.cfg.ManualWrongAnswerTimeout
	}
	f.awaitingChallenge = true
	f.challengeTimer = f.after(timeout, func() {
		f.logger.Debug("wrong answer challenge timed out")
		f.finishWrong()
	})
	f.boss.OnWrongAnswer()
}

func (f *Flow) finishWrong() {
	if !f.awaitingChallenge {
		return
	}
	f.awaitingChallenge = false
	if f.challengeTimer != nil {
		f.challengeTimer.Cancel()
		f.challengeTimer = nil
	}
	grace := f.cfg.WrongAnswerGrace
	if f.cfg.Mode == AdvanceManual {
		grace = f.cfg.ManualWrongAnswerGrace
	}
	f.after(grace, func() {
		if f.boss.Dead() {
			return
		}
		if f.cfg.Mode == AdvanceManual {
			f.showPrompt()
			return
		}
		f.NextQuestion()
	})
}

func (f *Flow) onPowerPlayEnded() {
	if !f.awaitingPowerPlay || f.halted {
		return
	}
	f.awaitingPowerPlay = false
	if f.boss.Dead() {
		return
	}
	if f.gate != nil {
		f.gate.ForceReturnPlayerAndReady()
	}
	f.NextQuestion()
}

// advanceAfter starts the next question after d without waiting on the
// safe zone, unless the boss died in the meantime.
func (f *Flow) advanceAfter(d time.Duration) {
	f.after(d, func() {
		if f.boss.Dead() || f.state == Active {
			return
		}
		f.pending.Bump()
		f.waiting = false
		f.startNext()
	})
}

func (f *Flow) showPrompt() {
	f.awaitingAdvance = true
	f.bus.AdvancePromptShown.Publish(signal.AdvancePromptShown{})
}

// Continue dismisses the manual advance prompt and asks for the next question.
func (f *Flow) Continue() {
	if f.halted || f.cfg.Mode != AdvanceManual || !f.awaitingAdvance {
		return
	}
	f.awaitingAdvance = false
	f.bus.AdvancePromptHidden.Publish(signal.AdvancePromptHidden{})
	f.NextQuestion()
}

// Cancel abandons the active question, or the advance prompt, and waits for
// the player to ready up again before the next one.
//
// Postcondition: Returns false with no change when there is nothing to cancel.
func (f *Flow) Cancel() bool {
	if f.halted || (f.state != Active && !f.awaitingAdvance) {
		return false
	}
	f.pending.Bump()
	if f.state == Active {
		f.state = Idle
	}
	f.awaitingChallenge = false
	f.awaitingPowerPlay = false
	if f.awaitingAdvance {
		f.awaitingAdvance = false
		f.bus.AdvancePromptHidden.Publish(signal.AdvancePromptHidden{})
	}
	f.bus.AnswerModeExited.Publish(signal.AnswerModeExited{})
	f.NextQuestion()
	return true
}

// Halt stops the flow for good. Pending continuations and waits are dropped.
func (f *Flow) Halt() {
	f.halted = true
	f.pending.Bump()
	f.waiting = false
	f.awaitingChallenge = false
	f.awaitingPowerPlay = false
	f.subs.Close()
}

// after schedules fn under the current pending epoch.
func (f *Flow) after(d time.Duration, fn func()) *clock.Timer {
	if f.halted {
		return nil
	}
	return f.sched.After(d, f.pending.Guard(func() {
		if !f.halted {
			fn()
		}
	}))
}

// HiddenOptions returns the options removed by a 50/50, in ascending order.
func (f *Flow) HiddenOptions() []int {
	out := make([]int, 0, len(f.hidden))
	for i := 0; i < question.OptionCount; i++ {
		if f.hidden[i] {
			out = append(out, i)
		}
	}
	return out
}

// Frozen reports whether the countdown is held by a freeze.
func (f *Flow) Frozen() bool {
	return f.state == Active && f.sched.Now() < f.frozenUntil
}

func (f *Flow) hide(options []int) {
	if f.hidden == nil {
		f.hidden = make(map[int]bool, len(options))
	}
	for _, o := range options {
		f.hidden[o] = true
	}
}

func (f *Flow) freezeFor(d time.Duration) {
	f.frozenUntil = f.sched.Now() + d
}
