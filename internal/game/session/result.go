package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Outcome values stored for finished sessions.
const (
	OutcomeWon       = "won"
	OutcomeLost      = "lost"
	OutcomeAbandoned = "abandoned"
)

// Result summarises a finished session.
type Result struct {
	SessionID string
	Pack      string
	Outcome   string
	// Reached is the number of questions shown.
	Reached    int
	BossHP     int
	Hearts     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// ResultRecorder persists finished sessions.
type ResultRecorder interface {
	RecordResult(ctx context.Context, r Result) error
}

// ResultOf builds the Result for a final snapshot.
func ResultOf(snap Snapshot, finished time.Time) Result {
	outcome := OutcomeAbandoned
	switch snap.State {
	case StateWon:
		outcome = OutcomeWon
	case StateLost:
		outcome = OutcomeLost
	}
	return Result{
		SessionID:  snap.ID,
		Pack:       snap.Pack,
		Outcome:    outcome,
		Reached:    snap.Question,
		BossHP:     snap.BossHP,
		Hearts:     snap.Hearts,
		StartedAt:  snap.Started,
		FinishedAt: finished,
	}
}

const recordTimeout = 5 * time.Second

func (m *Manager) record(s *Session) {
	m.mu.RLock()
	rec := m.recorder
	m.mu.RUnlock()
	if rec == nil {
		return
	}
	res := ResultOf(s.Snapshot(), time.Now())
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := rec.RecordResult(ctx, res); err != nil {
		s.logger.Warn("recording session result", zap.Error(err))
		return
	}
	s.logger.Debug("session result recorded", zap.String("outcome", res.Outcome), zap.Int("reached", res.Reached))
}
