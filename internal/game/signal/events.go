package signal

import (
	"time"

	"github.com/cory-johannsen/quizboss/internal/game/question"
)

type (
	GameStarted struct{}
	GameWon     struct{}
	GameLost    struct{}
	GamePaused  struct{}
	GameResumed struct{}
)

// QuestionStarted is raised when a question becomes active.
type QuestionStarted struct {
	Index    int
	Question *question.Question
}

// AnswerSubmitted is raised synchronously before any consequence of the answer.
type AnswerSubmitted struct {
	Choice  int
	Correct bool
}

// QuestionTimeout is raised when the countdown reaches zero.
type QuestionTimeout struct {
	Index int
}

// PunishTelegraphStarted marks the warning phase before the perfect-dodge window.
type PunishTelegraphStarted struct {
	Duration time.Duration
}

type PerfectDodgeWindowStarted struct {
	Duration time.Duration
}

type PerfectDodgeWindowEnded struct {
	Succeeded bool
}

type PerfectDodgeSuccess struct{}

// WrongAnswerChallengeEnded fires once per punish flow, after the punish
// attack resolved or immediately on a perfect dodge.
type WrongAnswerChallengeEnded struct {
	Dodged bool
}

type PowerPlayStarted struct {
	Duration time.Duration
}

type PowerPlayEnded struct {
	Consumed bool
}

// PowerPlayHitConfirmed is raised when a hit consumed the Power Play bonus.
type PowerPlayHitConfirmed struct {
	BaseDamage  int
	FinalDamage int
}

type (
	AdvancePromptShown  struct{}
	AdvancePromptHidden struct{}
	AnswerModeExited    struct{}
)

type BossDamaged struct {
	Amount int
	HP     int
	MaxHP  int
}

type BossPhaseChanged struct {
	From string
	To   string
}

type BossDefeated struct{}

type PlayerDamaged struct {
	Amount int
	Hearts int
}

// DodgeExecuted is raised when the player starts a dash.
type DodgeExecuted struct{}

type ReadyChanged struct {
	Inside bool
	Ready  bool
}

type LifelineUsed struct {
	Kind   string
	Hidden []int
}
