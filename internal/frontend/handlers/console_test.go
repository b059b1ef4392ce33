package handlers

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/quizboss/internal/config"
	"github.com/cory-johannsen/quizboss/internal/frontend/telnet"
	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/game/session"
)

type fakePacks struct {
	packs map[string]*question.Pack
}

func (f *fakePacks) Pack(name string) (*question.Pack, error) {
	if p, ok := f.packs[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no pack %q", name)
}

func (f *fakePacks) Names() []string {
	names := make([]string, 0, len(f.packs))
	for n := range f.packs {
		names = append(names, n)
	}
	return names
}

// client collects everything the console writes.
type client struct {
	raw net.Conn
	mu  sync.Mutex
	buf strings.Builder
}

func (c *client) pump() {
	tmp := make([]byte, 1024)
	for {
		n, err := c.raw.Read(tmp)
		c.mu.Lock()
		c.buf.Write(tmp[:n])
		c.mu.Unlock()
		if err != nil {
			return
		}
	}
}

func (c *client) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return telnet.StripANSI(c.buf.String())
}

func (c *client) send(t *testing.T, line string) {
	t.Helper()
	_, err := c.raw.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

func (c *client) waitFor(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool { return strings.Contains(c.output(), substr) },
		3*time.Second, 10*time.Millisecond, "waiting for %q in:\n%s", substr, c.output())
}

type consoleRig struct {
	client  *client
	manager *session.Manager
	done    chan error
}

func newConsoleRig(t *testing.T, maxSessions int) *consoleRig {
	t.Helper()
	cfg, err := config.LoadFromViper(config.NewViper())
	require.NoError(t, err)
	cfg.Server.MaxSessions = maxSessions
	cfg.Content.DefaultPack = "Test Pack"
	cfg.Boss.PatrolDuringQuestion = false
	cfg.PowerPlay.Duration = 300 * time.Millisecond

	p, err := question.NewPack("Test Pack", []*question.Question{{
		ID: "q1", Prompt: "Two plus two?", Options: []string{"4", "3", "5", "22"}, TimeLimit: 10 * time.Second,
	}})
	require.NoError(t, err)
	packs := &fakePacks{packs: map[string]*question.Pack{"Test Pack": p}}
	logger := zaptest.NewLogger(t)
	mgr := session.NewManager(cfg, packs, nil, logger)
	console := NewConsole(mgr, packs, "Test Pack", logger)

	server, raw := net.Pipe()
	c := &client{raw: raw}
	go c.pump()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- console.HandleSession(ctx, telnet.NewConn(server, 0, 0)) }()

	t.Cleanup(func() {
		cancel()
		_ = raw.Close()
		_ = server.Close()
		sctx, scancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer scancel()
		_ = mgr.Shutdown(sctx)
	})
	return &consoleRig{client: c, manager: mgr, done: done}
}

func (r *consoleRig) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("console did not return")
		return nil
	}
}

func TestConsole_QuitAtPackPrompt(t *testing.T) {
	rig := newConsoleRig(t, 0)
	rig.client.waitFor(t, "1) Test Pack (default)")
	rig.client.send(t, "quit")
	assert.NoError(t, rig.wait(t))
	assert.Contains(t, rig.client.output(), "Goodbye.")
	assert.Zero(t, rig.manager.Count())
}

func TestConsole_PlayHelpStatusQuit(t *testing.T) {
	rig := newConsoleRig(t, 0)
	rig.client.waitFor(t, "Pick a pack")
	rig.client.send(t, "")
	rig.client.waitFor(t, "Fighting the Test Pack boss")
	require.Eventually(t, func() bool { return rig.manager.Count() == 1 }, time.Second, 10*time.Millisecond)

	rig.client.send(t, "help")
	rig.client.waitFor(t, "Combat:")
	rig.client.send(t, "status")
	rig.client.waitFor(t, "Boss  [")
	rig.client.send(t, "dance")
	rig.client.waitFor(t, `unknown command: "dance"`)

	rig.client.send(t, "quit")
	assert.NoError(t, rig.wait(t))
	rig.client.waitFor(t, "You leave the arena.")
	require.Eventually(t, func() bool { return rig.manager.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestConsole_ReadyAndAnswerWins(t *testing.T) {
	rig := newConsoleRig(t, 0)
	rig.client.waitFor(t, "Pick a pack")
	rig.client.send(t, "1")
	rig.client.waitFor(t, "You are in the station.")

	rig.client.send(t, "ready")
	rig.client.waitFor(t, "Two plus two?")
	rig.client.send(t, "a")
	rig.client.waitFor(t, "Correct!")
	rig.client.waitFor(t, "Victory! The boss is beaten.")
	rig.client.waitFor(t, "Fight again?")

	rig.client.send(t, "no")
	assert.NoError(t, rig.wait(t))
}

func TestConsole_UnknownPackNumber(t *testing.T) {
	rig := newConsoleRig(t, 0)
	rig.client.waitFor(t, "Pick a pack")
	rig.client.send(t, "9")
	rig.client.waitFor(t, "There is no pack 9.")
	rig.client.send(t, "q")
	assert.NoError(t, rig.wait(t))
}

func TestConsole_SessionCapRefuses(t *testing.T) {
	rig := newConsoleRig(t, 1)
	_, err := rig.manager.Start(context.Background(), "Test Pack")
	require.NoError(t, err)

	rig.client.waitFor(t, "Pick a pack")
	rig.client.send(t, "")
	assert.NoError(t, rig.wait(t))
	assert.Contains(t, rig.client.output(), "Cannot start a fight")
}

func TestConsole_DisconnectStopsSession(t *testing.T) {
	rig := newConsoleRig(t, 0)
	rig.client.waitFor(t, "Pick a pack")
	rig.client.send(t, "")
	rig.client.waitFor(t, "Fighting the Test Pack boss")

	_ = rig.client.raw.Close()
	assert.Error(t, rig.wait(t))
	require.Eventually(t, func() bool { return rig.manager.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
