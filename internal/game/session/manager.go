package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/config"
	"github.com/cory-johannsen/quizboss/internal/game/dice"
	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/observability"
	"github.com/cory-johannsen/quizboss/internal/scripting"
)

var (
	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned by Start at the configured session cap.
	ErrTooManySessions = errors.New("too many running sessions")
)

// PackSource resolves a pack name to a loaded question pack.
type PackSource interface {
	Pack(name string) (*question.Pack, error)
}

// Manager starts sessions and tracks them until they end.
// All methods are safe for concurrent use.
type Manager struct {
	cfg     config.Config
	packs   PackSource
	scripts *scripting.Manager
	logger  *zap.Logger

	mu       sync.RWMutex
	source   dice.Source
	recorder ResultRecorder
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewManager creates an empty Manager. scripts may be nil.
//
// Precondition: packs and logger must be non-nil.
// Postcondition: Returns a Manager with no sessions.
func NewManager(cfg config.Config, packs PackSource, scripts *scripting.Manager, logger *zap.Logger) *Manager {
	if packs == nil || logger == nil {
		panic("session.NewManager: packs and logger must not be nil")
	}
	return &Manager{
		cfg:      cfg,
		packs:    packs,
		scripts:  scripts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// SetSource makes every session started afterwards draw randomness from src.
func (m *Manager) SetSource(src dice.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = src
}

// SetRecorder stores the Result of every session that finishes afterwards in r.
func (m *Manager) SetRecorder(r ResultRecorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = r
}

// Start creates a session playing pack and runs it on its own goroutine
// until it finishes or ctx is cancelled. An empty pack name plays the
// configured default pack.
//
// Postcondition: Returns the running session, or an error when the pack
// cannot be resolved, the session cap is reached or the scripts fail to load.
func (m *Manager) Start(ctx context.Context, pack string) (*Session, error) {
	if pack == "" {
		pack = m.cfg.Content.DefaultPack
	}
	p, err := m.packs.Pack(pack)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if limit := m.cfg.Server.MaxSessions; limit > 0 && len(m.sessions) >= limit {
		return nil, ErrTooManySessions
	}
	id := uuid.NewString()
	s, err := New(Options{
		ID:      id,
		Pack:    p,
		Config:  m.cfg,
		Scripts: m.scripts,
		Source:  m.source,
		Logger:  observability.SessionLogger(m.logger, id, p.Name()),
	})
	if err != nil {
		return nil, err
	}
	m.sessions[id] = s

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("session ended with error", zap.Error(err))
		}
		m.record(s)
		m.remove(id)
	}()
	m.logger.Info("session started", zap.String("session_id", id), zap.String("pack", p.Name()))
	return s, nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Get returns the running session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns a snapshot of every running session, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	out := make([]Snapshot, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].ID < out[j].ID
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}

// Count returns the number of running sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop ends the session with id. It returns once the stop is requested, not
// once the session has finished; wait on Done for that.
func (m *Manager) Stop(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Stop()
	return nil
}

// Shutdown stops every session and waits for their goroutines to return.
//
// Postcondition: Returns ctx.Err() if ctx ends first; sessions keep stopping
// in the background.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	for _, s := range m.sessions {
		s.Stop()
	}
	m.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
