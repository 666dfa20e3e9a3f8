package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/chatd/internal/auth"
	"github.com/vovakirdan/chatd/internal/proto"
)

const waitTimeout = 2 * time.Second

// fakeConn is an in-memory Conn. Tests push client lines into fromClient and
// read server messages from fromServer.
type fakeConn struct {
	fromClient chan string
	fromServer chan string
	stop       chan struct{}
	once       sync.Once
	failSends  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		fromClient: make(chan string),
		fromServer: make(chan string, 256),
		stop:       make(chan struct{}),
	}
}

func (c *fakeConn) Recv() (string, error) {
	select {
	case line := <-c.fromClient:
		return line, nil
	case <-c.stop:
		return "", ErrConnClosed
	}
}

func (c *fakeConn) Send(msg string) error {
	if c.failSends {
		return ErrConnClosed
	}
	select {
	case <-c.stop:
		return ErrConnClosed
	default:
	}
	select {
	case c.fromServer <- msg:
		return nil
	case <-c.stop:
		return ErrConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

type testClient struct {
	conn *fakeConn
	done chan error
}

func newTestHub(t *testing.T, users map[string]string) (*Hub, context.Context) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(auth.NewCredentials(users), nil)
	go hub.Run(ctx)
	return hub, ctx
}

func connect(t *testing.T, hub *Hub, ctx context.Context) *testClient {
	t.Helper()

	c := &testClient{conn: newFakeConn(), done: make(chan error, 1)}
	go func() { c.done <- hub.Serve(ctx, c.conn) }()
	t.Cleanup(func() { _ = c.conn.Close() })
	return c
}

func login(t *testing.T, hub *Hub, ctx context.Context, user, password string) *testClient {
	t.Helper()

	c := connect(t, hub, ctx)
	mustRecv(t, c, proto.PromptUsername)
	c.say(t, user)
	mustRecv(t, c, proto.PromptPassword)
	c.say(t, password)
	mustRecv(t, c, proto.Welcome(user))
	return c
}

func (c *testClient) say(t *testing.T, line string) {
	t.Helper()
	select {
	case c.conn.fromClient <- line:
	case <-time.After(waitTimeout):
		t.Fatalf("server did not read %q", line)
	}
}

func (c *testClient) disconnect(t *testing.T) error {
	t.Helper()
	_ = c.conn.Close()
	select {
	case err := <-c.done:
		return err
	case <-time.After(waitTimeout):
		t.Fatalf("handler did not return after disconnect")
		return nil
	}
}

// mustRecv waits for want, skipping any other message.
func mustRecv(t *testing.T, c *testClient, want string) {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case got := <-c.conn.fromServer:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("expected message %q not received", want)
		}
	}
}

// mustNotRecv fails if unwanted arrives within d.
func mustNotRecv(t *testing.T, c *testClient, unwanted string, d time.Duration) {
	t.Helper()

	deadline := time.After(d)
	for {
		select {
		case got := <-c.conn.fromServer:
			if got == unwanted {
				t.Fatalf("unexpected message %q", unwanted)
			}
		case <-deadline:
			return
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
