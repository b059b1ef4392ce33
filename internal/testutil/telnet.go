package testutil

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cory-johannsen/quizboss/internal/frontend/telnet"
)

// TelnetClient is a Telnet test client that records everything the server
// sends, with ANSI styling and IAC negotiation removed.
type TelnetClient struct {
	conn net.Conn
	t    *testing.T

	mu   sync.Mutex
	buf  strings.Builder
	mark int
	done chan struct{}
}

// NewTelnetClient dials the given address and starts recording output.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test. The
// connection is closed when the test ends.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}

	c := &TelnetClient{conn: conn, t: t, done: make(chan struct{})}
	go c.pump()
	t.Cleanup(func() {
		_ = conn.Close()
		<-c.done
	})

	t.Logf("telnet client connected to %s [%s]", addr, time.Since(start))
	return c
}

func (c *TelnetClient) pump() {
	defer close(c.done)
	tmp := make([]byte, 1024)
	for {
		n, err := c.conn.Read(tmp)
		if n > 0 {
			text := telnet.StripANSI(string(telnet.FilterIAC(tmp[:n])))
			c.mu.Lock()
			c.buf.WriteString(text)
			c.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Output returns everything received so far.
func (c *TelnetClient) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// ReadUntil waits until output received since the previous ReadUntil match
// contains substr, and returns that output.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the output up to and including the match, or fails
// the test on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		c.mu.Lock()
		all := c.buf.String()
		if i := strings.Index(all[c.mark:], substr); i >= 0 {
			end := c.mark + i + len(substr)
			out := all[c.mark:end]
			c.mark = end
			c.mu.Unlock()
			return out
		}
		c.mu.Unlock()
		if time.Now().After(deadline) {
			c.t.Fatalf("reading until %q: got %q", substr, all[c.mark:])
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
// Postcondition: text + \r\n is written to the connection.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
