package session

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/game/quiz"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

// OptionLabel returns the letter a player types for option i.
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// FormatQuestion renders q as shown to the player, leaving out hidden options.
func FormatQuestion(index, total int, q *question.Question, hidden []int) string {
	skip := make(map[int]bool, len(hidden))
	for _, h := range hidden {
		skip[h] = true
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d [%s, %ds]: %s", index+1, total, q.Difficulty, int(q.TimeLimit/time.Second), q.Prompt)
	for i, opt := range q.Options {
		if skip[i] {
			continue
		}
		fmt.Fprintf(&b, "\n  %s) %s", OptionLabel(i), opt)
	}
	return b.String()
}

func (s *Session) notify(kind Kind, text string) {
	if err := s.outbox.Push(Notice{Kind: kind, Text: text}); err != nil {
		s.logger.Debug("notice dropped", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// subscribeNotices narrates the fight into the outbox.
func (s *Session) subscribeNotices() {
	bus := s.bus
	signal.On(&s.subs, &bus.GameStarted, func(signal.GameStarted) {
		s.notify(KindGame, fmt.Sprintf("The fight begins! %d questions stand between you and the boss.", s.pack.Len()))
	})
	signal.On(&s.subs, &bus.GameWon, func(signal.GameWon) { s.notify(KindGame, "Victory! The boss is beaten.") })
	signal.On(&s.subs, &bus.GameLost, func(signal.GameLost) { s.notify(KindGame, "Defeat. You are out of hearts.") })
	signal.On(&s.subs, &bus.GamePaused, func(signal.GamePaused) { s.notify(KindGame, "Paused.") })
	signal.On(&s.subs, &bus.GameResumed, func(signal.GameResumed) { s.notify(KindGame, "Resumed.") })

	signal.On(&s.subs, &bus.QuestionStarted, func(e signal.QuestionStarted) {
		s.notify(KindQuestion, FormatQuestion(e.Index, s.pack.Len(), e.Question, nil))
	})
	signal.On(&s.subs, &bus.AnswerSubmitted, func(e signal.AnswerSubmitted) {
		if e.Correct {
			s.notify(KindResult, "Correct!")
			return
		}
		q := s.flow.Current()
		text := "Wrong!"
		if q != nil {
			text = fmt.Sprintf("Wrong! The answer was %s) %s.", OptionLabel(q.CorrectIndex), q.Options[q.CorrectIndex])
			if q.Explanation != "" {
				text += " " + q.Explanation
			}
		}
		s.notify(KindResult, text)
	})
	signal.On(&s.subs, &bus.QuestionTimeout, func(signal.QuestionTimeout) { s.notify(KindResult, "Time's up!") })
	signal.On(&s.subs, &bus.AdvancePromptShown, func(signal.AdvancePromptShown) {
		s.notify(KindInfo, "Type 'continue' for the next question.")
	})
	signal.On(&s.subs, &bus.ReadyChanged, func(e signal.ReadyChanged) {
		switch {
		case e.Inside && e.Ready:
			s.notify(KindPlayer, "Ready.")
		case e.Inside:
			s.notify(KindPlayer, "You are in the station. Type 'ready' when set.")
		default:
			s.notify(KindPlayer, "You left the station.")
		}
	})
	signal.On(&s.subs, &bus.LifelineUsed, func(e signal.LifelineUsed) {
		if e.Kind == quiz.LifelineFreeze {
			s.notify(KindInfo, "The clock is frozen.")
			return
		}
		if q := s.flow.Current(); q != nil {
			s.notify(KindQuestion, FormatQuestion(s.flow.Index(), s.pack.Len(), q, e.Hidden))
		}
	})

	signal.On(&s.subs, &bus.PunishTelegraphStarted, func(signal.PunishTelegraphStarted) {
		s.notify(KindWarning, "The boss winds up an attack...")
	})
	signal.On(&s.subs, &bus.PerfectDodgeWindowStarted, func(signal.PerfectDodgeWindowStarted) {
		s.notify(KindWarning, "DODGE NOW!")
	})
	signal.On(&s.subs, &bus.PerfectDodgeSuccess, func(signal.PerfectDodgeSuccess) {
		s.notify(KindPlayer, "Perfect dodge! Your next answer hits harder.")
	})
	signal.On(&s.subs, &bus.PowerPlayStarted, func(e signal.PowerPlayStarted) {
		s.notify(KindPowerPlay, fmt.Sprintf("POWER PLAY! Strike the boss within %.1fs.", e.Duration.Seconds()))
	})
	signal.On(&s.subs, &bus.PowerPlayHitConfirmed, func(e signal.PowerPlayHitConfirmed) {
		s.notify(KindPowerPlay, fmt.Sprintf("Power hit for %d!", e.FinalDamage))
	})
	signal.On(&s.subs, &bus.PowerPlayEnded, func(e signal.PowerPlayEnded) {
		if !e.Consumed {
			s.notify(KindPowerPlay, "The Power Play fades.")
		}
	})

	signal.On(&s.subs, &bus.BossDamaged, func(e signal.BossDamaged) {
		s.notify(KindBoss, fmt.Sprintf("The boss takes %d damage (%d/%d).", e.Amount, e.HP, e.MaxHP))
	})
	signal.On(&s.subs, &bus.BossPhaseChanged, func(e signal.BossPhaseChanged) {
		switch e.To {
		case "transition":
			s.notify(KindBoss, "The boss staggers and roars!")
		case "phase2":
			s.notify(KindBoss, "The boss enters its second phase.")
		}
	})
	signal.On(&s.subs, &bus.BossDefeated, func(signal.BossDefeated) { s.notify(KindBoss, "The boss collapses!") })
	signal.On(&s.subs, &bus.PlayerDamaged, func(e signal.PlayerDamaged) {
		s.notify(KindPlayer, fmt.Sprintf("You are hit! %d hearts left.", e.Hearts))
	})
}

// Snapshot is a point-in-time view of a session, safe to share across
// goroutines.
type Snapshot struct {
	ID        string
	Pack      string
	State     State
	Started   time.Time
	BossHP    int
	BossMaxHP int
	BossPhase string
	Hearts    int
	MaxHearts int
	Focus     int
	Charges   int
	// Question is the 1-based number of the current question, 0 before the first.
	Question       int
	Total          int
	QuestionActive bool
	Remaining      time.Duration
	Combo          int
	PowerPlay      bool
	Inside         bool
	Ready          bool
	PlayerX        float64
	PlayerY        float64
	BossX          float64
	BossY          float64
}

// Snapshot returns the view published after the last frame or command.
func (s *Session) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

func (s *Session) publishSnapshot() {
	pp := s.arena.Player().Position()
	bp := s.arena.Boss().Position()
	s.snapshot.Store(&Snapshot{
		ID:             s.id,
		Pack:           s.pack.Name(),
		State:          s.match.State(),
		Started:        s.started,
		BossHP:         s.boss.HP(),
		BossMaxHP:      s.boss.MaxHP(),
		BossPhase:      s.boss.Phase().String(),
		Hearts:         s.health.Hearts(),
		MaxHearts:      s.health.Max(),
		Focus:          s.focus.Current(),
		Charges:        s.attacker.Charges(),
		Question:       min(s.flow.Index()+1, s.pack.Len()),
		Total:          s.pack.Len(),
		QuestionActive: s.flow.QuestionActive(),
		Remaining:      s.flow.Remaining(),
		Combo:          s.flow.Combo(),
		PowerPlay:      s.window.Active(),
		Inside:         s.gate.Inside(),
		Ready:          s.gate.Ready(),
		PlayerX:        pp.X,
		PlayerY:        pp.Y,
		BossX:          bp.X,
		BossY:          bp.Y,
	})
}
