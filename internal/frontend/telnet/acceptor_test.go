package telnet

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/quizboss/internal/config"
)

// echoHandler echoes lines back until "quit" or cancellation.
type echoHandler struct {
	sessions atomic.Int32
}

func (h *echoHandler) HandleSession(ctx context.Context, conn *Conn) error {
	h.sessions.Add(1)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if line == "quit" {
			return conn.WriteLine("bye")
		}
		_ = conn.WriteLine("echo: " + line)
	}
}

func startAcceptor(t *testing.T, h SessionHandler) *Acceptor {
	t.Helper()
	cfg := config.TelnetConfig{Host: "127.0.0.1", ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	acc := NewAcceptor(cfg, h, zaptest.NewLogger(t))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- acc.Serve(ln) }()
	require.Eventually(t, acc.IsRunning, 2*time.Second, 5*time.Millisecond)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, acc.Stop(ctx))
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after Stop")
		}
	})
	return acc
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	c, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	_ = c.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(c)
	neg := make([]byte, 3)
	_, err = io.ReadFull(r, neg)
	require.NoError(t, err)
	assert.Equal(t, []byte{IAC, WILL, OptSuppressGoAhead}, neg)
	return c, r
}

func TestAcceptor_EchoAndQuit(t *testing.T) {
	h := &echoHandler{}
	acc := startAcceptor(t, h)
	c, r := dial(t, acc.Addr())

	_, err := c.Write([]byte("hello\r\n"))
	require.NoError(t, err)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "echo: hello\r\n", line)

	_, err = c.Write([]byte("quit\r\n"))
	require.NoError(t, err)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "bye\r\n", line)

	require.Eventually(t, func() bool { return acc.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), h.sessions.Load())
}

func TestAcceptor_MultipleClients(t *testing.T) {
	h := &echoHandler{}
	acc := startAcceptor(t, h)

	const n = 3
	for i := range n {
		c, r := dial(t, acc.Addr())
		msg := strings.Repeat("x", i+1)
		_, err := c.Write([]byte(msg + "\n"))
		require.NoError(t, err)
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "echo: "+msg+"\r\n", line)
	}
	assert.Equal(t, n, acc.Clients())
	assert.Equal(t, int32(n), h.sessions.Load())
}

func TestAcceptor_StopDisconnectsIdleClients(t *testing.T) {
	h := &echoHandler{}
	cfg := config.TelnetConfig{Host: "127.0.0.1"}
	acc := NewAcceptor(cfg, h, zaptest.NewLogger(t))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = acc.Serve(ln) }()
	require.Eventually(t, acc.IsRunning, 2*time.Second, 5*time.Millisecond)

	c, r := dial(t, acc.Addr())
	require.Eventually(t, func() bool { return acc.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, acc.Stop(ctx))
	assert.False(t, acc.IsRunning())
	assert.Zero(t, acc.Clients())

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = r.ReadByte()
	assert.Error(t, err, "server side should have closed the connection")
}

func TestAcceptor_StopBeforeServeIsNoop(t *testing.T) {
	acc := NewAcceptor(config.TelnetConfig{}, &echoHandler{}, zaptest.NewLogger(t))
	assert.NoError(t, acc.Stop(context.Background()))
	assert.Empty(t, acc.Addr())
}

func TestNewAcceptor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewAcceptor(config.TelnetConfig{}, nil, zaptest.NewLogger(t)) })
}
