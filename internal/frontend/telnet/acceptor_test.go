package telnet

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/pantheon/internal/config"
)

type echoHandler struct {
	sessions atomic.Int32
}

func (h *echoHandler) HandleSession(ctx context.Context, conn *Conn) error {
	h.sessions.Add(1)
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return err
		}
		if line == "quit" {
			return conn.WriteLine("bye")
		}
		_ = conn.WriteLine("echo: " + line)
	}
}

func startAcceptor(t *testing.T, h SessionHandler) (*Acceptor, chan error) {
	t.Helper()
	acc := NewAcceptor(config.TelnetConfig{Host: "127.0.0.1", Port: 0, WriteTimeout: 2 * time.Second}, h, zaptest.NewLogger(t))
	errCh := make(chan error, 1)
	go func() { errCh <- acc.ListenAndServe() }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	return acc, errCh
}

// readUntil reads lines (ignoring Telnet negotiation bytes) until one contains want.
func readUntil(t *testing.T, r *bufio.Reader, conn net.Conn, want string) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.Contains(line, want) {
			return line
		}
	}
}

func TestAcceptor_EchoAndQuit(t *testing.T) {
	h := &echoHandler{}
	acc, errCh := startAcceptor(t, h)

	conn, err := net.DialTimeout("tcp", acc.Addr(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	_, err = conn.Write([]byte("hello\r\n"))
	require.NoError(t, err)
	assert.Contains(t, readUntil(t, r, conn, "echo"), "echo: hello")

	_, err = conn.Write([]byte("quit\r\n"))
	require.NoError(t, err)
	readUntil(t, r, conn, "bye")

	acc.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("acceptor did not stop in time")
	}
	assert.Equal(t, int32(1), h.sessions.Load())
}

func TestAcceptor_StopCancelsBlockedSessions(t *testing.T) {
	h := &echoHandler{}
	acc, errCh := startAcceptor(t, h)

	const clients = 3
	for i := 0; i < clients; i++ {
		conn, err := net.DialTimeout("tcp", acc.Addr(), 2*time.Second)
		require.NoError(t, err)
		defer conn.Close()
	}
	require.Eventually(t, func() bool { return h.sessions.Load() == clients }, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		acc.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not interrupt idle sessions")
	}
	assert.NoError(t, <-errCh)
}
