package session

import (
	"errors"
	"sync"
)

// Kind classifies a Notice so frontends can style it.
type Kind string

const (
	KindInfo      Kind = "info"
	KindQuestion  Kind = "question"
	KindResult    Kind = "result"
	KindWarning   Kind = "warning"
	KindPowerPlay Kind = "powerplay"
	KindBoss      Kind = "boss"
	KindPlayer    Kind = "player"
	KindGame      Kind = "game"
	KindReject    Kind = "reject"
)

// Notice is one line of game narration for the player.
type Notice struct {
	Kind Kind
	Text string
}

var (
	// ErrOutboxClosed is returned by Push after Close.
	ErrOutboxClosed = errors.New("session outbox closed")
	// ErrOutboxFull is returned by Push when the reader fell behind.
	ErrOutboxFull = errors.New("session outbox full")
)

// Outbox carries notices from the session goroutine to one frontend reader.
// All methods are safe for concurrent use.
type Outbox struct {
	events chan Notice
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox buffering up to size notices.
//
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = 64
	}
	return &Outbox{events: make(chan Notice, size)}
}

// Push enqueues n without blocking.
//
// Postcondition: n is enqueued, or ErrOutboxClosed / ErrOutboxFull is returned.
func (o *Outbox) Push(n Notice) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrOutboxClosed
	}
	select {
	case o.events <- n:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Events returns the read-only notice channel. It is closed by Close once
// the session ends, after every notice already pushed.
func (o *Outbox) Events() <-chan Notice {
	return o.events
}

// Close marks the outbox closed and closes the events channel.
//
// Postcondition: Further Push calls return ErrOutboxClosed.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
