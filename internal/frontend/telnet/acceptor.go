package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/config"
)

// SessionHandler runs the command loop for one connected client.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// Acceptor listens for Telnet connections and hands each one to a
// SessionHandler on its own goroutine.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Conn]context.CancelFunc
	running  bool
	wg       sync.WaitGroup
}

// NewAcceptor creates a Telnet acceptor with the given configuration.
//
// Precondition: handler and logger must be non-nil.
// Postcondition: Returns an Acceptor ready to be started with ListenAndServe.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	if handler == nil || logger == nil {
		panic("telnet.NewAcceptor: handler and logger must not be nil")
	}
	return &Acceptor{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		conns:   make(map[*Conn]context.CancelFunc),
	}
}

// ListenAndServe binds the configured address and serves until Stop is
// called.
//
// Precondition: The acceptor must not already be running.
// Postcondition: Returns nil after Stop, or the listen error.
func (a *Acceptor) ListenAndServe() error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(ln)
}

// Serve accepts connections on ln until Stop is called. The acceptor takes
// ownership of ln.
func (a *Acceptor) Serve(ln net.Listener) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		_ = ln.Close()
		return errors.New("telnet acceptor already running")
	}
	a.listener = ln
	a.running = true
	a.mu.Unlock()

	a.logger.Info("telnet acceptor listening", zap.String("addr", ln.Addr().String()))
	for {
		raw, err := ln.Accept()
		if err != nil {
			if !a.IsRunning() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			a.logger.Error("accepting connection", zap.Error(err))
			time.Sleep(50 * time.Millisecond)
			continue
		}
		conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
		ctx, cancel := context.WithCancel(context.Background())

		a.mu.Lock()
		if !a.running {
			a.mu.Unlock()
			cancel()
			_ = conn.Close()
			return nil
		}
		a.conns[conn] = cancel
		a.wg.Add(1)
		a.mu.Unlock()

		go a.handleConn(ctx, conn)
	}
}

func (a *Acceptor) handleConn(ctx context.Context, conn *Conn) {
	defer a.wg.Done()
	start := time.Now()
	addr := conn.RemoteAddr().String()
	defer func() {
		a.mu.Lock()
		if cancel, ok := a.conns[conn]; ok {
			cancel()
			delete(a.conns, conn)
		}
		a.mu.Unlock()
		_ = conn.Close()
	}()

	a.logger.Info("client connected", zap.String("remote_addr", addr))
	if err := conn.Negotiate(); err != nil {
		a.logger.Warn("telnet negotiation failed", zap.String("remote_addr", addr), zap.Error(err))
		return
	}

	// a blocked ReadLine only returns once the socket closes
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err := a.handler.HandleSession(ctx, conn)
	fields := []zap.Field{zap.String("remote_addr", addr), zap.Duration("duration", time.Since(start))}
	if err != nil && ctx.Err() == nil {
		a.logger.Debug("client session ended", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Info("client disconnected", fields...)
}

// Stop closes the listener, cancels every client session and waits for the
// handlers to return or ctx to end.
//
// Postcondition: Returns ctx.Err() if handlers were still running at the deadline.
func (a *Acceptor) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	if a.listener != nil {
		_ = a.listener.Close()
	}
	for _, cancel := range a.conns {
		cancel()
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		a.logger.Info("telnet acceptor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the listening address, or "" before the listener is bound.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return ""
}

// IsRunning reports whether the acceptor is accepting connections.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Clients returns the number of connected clients.
func (a *Acceptor) Clients() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.conns)
}
