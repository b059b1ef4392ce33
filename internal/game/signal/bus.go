package signal

// Bus holds every topic of one session. Components receive the Bus at
// construction instead of reaching for a global event registry.
type Bus struct {
	GameStarted Topic[GameStarted]
	GameWon     Topic[GameWon]
	GameLost    Topic[GameLost]
	GamePaused  Topic[GamePaused]
	GameResumed Topic[GameResumed]

	QuestionStarted  Topic[QuestionStarted]
	AnswerSubmitted  Topic[AnswerSubmitted]
	QuestionTimeout  Topic[QuestionTimeout]
	AnswerModeExited Topic[AnswerModeExited]

	AdvancePromptShown  Topic[AdvancePromptShown]
	AdvancePromptHidden Topic[AdvancePromptHidden]

	PunishTelegraphStarted    Topic[PunishTelegraphStarted]
	PerfectDodgeWindowStarted Topic[PerfectDodgeWindowStarted]
	PerfectDodgeWindowEnded   Topic[PerfectDodgeWindowEnded]
	PerfectDodgeSuccess       Topic[PerfectDodgeSuccess]
	WrongAnswerChallengeEnded Topic[WrongAnswerChallengeEnded]

	PowerPlayStarted      Topic[PowerPlayStarted]
	PowerPlayEnded        Topic[PowerPlayEnded]
	PowerPlayHitConfirmed Topic[PowerPlayHitConfirmed]

	BossDamaged      Topic[BossDamaged]
	BossPhaseChanged Topic[BossPhaseChanged]
	BossDefeated     Topic[BossDefeated]

	PlayerDamaged Topic[PlayerDamaged]
	DodgeExecuted Topic[DodgeExecuted]
	ReadyChanged  Topic[ReadyChanged]
	LifelineUsed  Topic[LifelineUsed]
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}
