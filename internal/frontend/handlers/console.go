package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/frontend/telnet"
	"github.com/cory-johannsen/quizboss/internal/game/session"
)

// PackLister lists the packs a player may choose from.
type PackLister interface {
	Names() []string
}

// SessionStarter starts and stops fights. *session.Manager implements it.
type SessionStarter interface {
	Start(ctx context.Context, pack string) (*session.Session, error)
	Stop(id string) error
}

// Console connects one Telnet client to boss fights: it picks a pack, starts
// a session, forwards typed commands and prints the session's notices.
type Console struct {
	sessions    SessionStarter
	packs       PackLister
	defaultPack string
	registry    *Registry
	logger      *zap.Logger
}

// NewConsole creates a Console.
//
// Precondition: sessions, packs and logger must be non-nil.
func NewConsole(sessions SessionStarter, packs PackLister, defaultPack string, logger *zap.Logger) *Console {
	if sessions == nil || packs == nil || logger == nil {
		panic("handlers.NewConsole: sessions, packs and logger must not be nil")
	}
	return &Console{
		sessions:    sessions,
		packs:       packs,
		defaultPack: defaultPack,
		registry:    DefaultRegistry(),
		logger:      logger,
	}
}

// input is one line read from the client, or the error that ended reading.
type input struct {
	line string
	err  error
}

// HandleSession implements telnet.SessionHandler.
//
// Postcondition: Returns nil when the player quits, or the read error that
// ended the connection. Any session started here has been stopped.
func (c *Console) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, conn)

	_ = conn.WriteLine(telnet.Colorize(telnet.Bold+telnet.BrightYellow, "=== QUIZ BOSS ===") +
		"\nAnswer questions in the station to damage the boss. Miss, and it comes for you.")
	for {
		pack, ok, err := c.choosePack(ctx, conn, lines)
		if err != nil || !ok {
			return err
		}
		s, err := c.sessions.Start(ctx, pack)
		if err != nil {
			c.logger.Info("session start refused", zap.String("pack", pack), zap.Error(err))
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Cannot start a fight: %v", err))
			if errors.Is(err, session.ErrTooManySessions) {
				return nil
			}
			continue
		}
		again, err := c.play(ctx, conn, lines, s)
		if err != nil || !again {
			return err
		}
	}
}

// readLines pumps conn's input into a channel until reading fails or ctx ends.
func readLines(ctx context.Context, conn *telnet.Conn) <-chan input {
	out := make(chan input)
	go func() {
		defer close(out)
		for {
			line, err := conn.ReadLine()
			if errors.Is(err, telnet.ErrLineTooLong) {
				_ = conn.Notify(telnet.Colorize(telnet.Dim, "That line is too long."))
				continue
			}
			select {
			case out <- input{line: strings.TrimSpace(line), err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// next waits for the next input line.
func next(ctx context.Context, lines <-chan input) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case in, ok := <-lines:
		if !ok {
			return "", errors.New("input closed")
		}
		return in.line, in.err
	}
}

// choosePack asks for a pack until the player picks one or quits.
func (c *Console) choosePack(ctx context.Context, conn *telnet.Conn, lines <-chan input) (string, bool, error) {
	for {
		names := c.packs.Names()
		_ = conn.WriteLine(RenderPacks(names, c.defaultPack))
		_ = conn.WritePrompt(fmt.Sprintf("Pick a pack by number or name (Enter for %s, quit to leave): ", c.defaultPack))
		line, err := next(ctx, lines)
		if err != nil {
			return "", false, err
		}
		switch strings.ToLower(line) {
		case "":
			return c.defaultPack, true, nil
		case "quit", "exit", "q":
			_ = conn.WriteLine("Goodbye.")
			return "", false, nil
		}
		if n, err := strconv.Atoi(line); err == nil {
			if n >= 1 && n <= len(names) {
				return names[n-1], true, nil
			}
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "There is no pack %d.", n))
			continue
		}
		return line, true, nil
	}
}

// play runs one fight. It reports whether the player wants another.
func (c *Console) play(ctx context.Context, conn *telnet.Conn, lines <-chan input, s *session.Session) (bool, error) {
	log := c.logger.With(zap.String("session_id", s.ID()))
	log.Info("console attached", zap.String("pack", s.Pack().Name()))

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		for n := range s.Notices() {
			conn.SetPrompt(Prompt(s.Snapshot()))
			_ = conn.Notify(RenderNotice(n))
		}
	}()

	_ = conn.WriteLine(fmt.Sprintf("Fighting the %s boss. Walk into the station and type 'ready'. Type 'help' for commands.", s.Pack().Name()))
	_ = conn.WritePrompt(Prompt(s.Snapshot()))

	stop := func() {
		_ = c.sessions.Stop(s.ID())
		<-s.Done()
		<-pumped
	}
	for {
		select {
		case <-ctx.Done():
			stop()
			return false, ctx.Err()
		case <-pumped:
			_ = conn.WriteLine("")
			_ = conn.WriteLine(RenderStatus(s.Snapshot()))
			return c.askAgain(ctx, conn, lines)
		case in, ok := <-lines:
			if !ok || in.err != nil {
				stop()
				if !ok {
					return false, nil
				}
				return false, in.err
			}
			if quit := c.dispatch(conn, s, in.line); quit {
				stop()
				_ = conn.WriteLine("You leave the arena.")
				return false, nil
			}
		}
	}
}

// dispatch handles one typed line during a fight. It reports whether the
// player asked to quit.
func (c *Console) dispatch(conn *telnet.Conn, s *session.Session, line string) bool {
	if line == "" {
		_ = conn.WritePrompt(Prompt(s.Snapshot()))
		return false
	}
	parsed, err := c.registry.Parse(line)
	if err != nil {
		_ = conn.Notify(telnet.Colorf(telnet.Dim, "%v. Type 'help' for commands.", err))
		return false
	}
	switch parsed.Local {
	case LocalQuit:
		return true
	case LocalHelp:
		_ = conn.Notify(RenderHelp(c.registry))
		return false
	case LocalStatus:
		_ = conn.Notify(RenderStatus(s.Snapshot()))
		return false
	}
	if err := s.Send(parsed.Command); err != nil {
		_ = conn.Notify(telnet.Colorf(telnet.Dim, "Command dropped: %v", err))
		return false
	}
	_ = conn.WritePrompt(Prompt(s.Snapshot()))
	return false
}

func (c *Console) askAgain(ctx context.Context, conn *telnet.Conn, lines <-chan input) (bool, error) {
	_ = conn.WritePrompt("Fight again? (yes/no): ")
	line, err := next(ctx, lines)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	}
	_ = conn.WriteLine("Goodbye.")
	return false, nil
}
