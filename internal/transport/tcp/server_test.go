package tcp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatd/internal/auth"
	"github.com/vovakirdan/chatd/internal/core"
	"github.com/vovakirdan/chatd/internal/log"
	"github.com/vovakirdan/chatd/internal/proto"
)

type lineClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func startServer(t *testing.T) (*Server, *core.Hub, context.CancelFunc, chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	creds := auth.NewCredentials(map[string]string{"alice": "pw1", "bob": "pw2"})
	hub := core.NewHub(creds, log.Nop())
	go hub.Run(ctx)

	srv := NewServer("127.0.0.1:0", hub, 1024, log.Nop())
	require.NoError(t, srv.Listen())

	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(ctx) }()
	return srv, hub, cancel, runErr
}

func dial(t *testing.T, srv *Server) *lineClient {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &lineClient{conn: conn, r: bufio.NewReader(conn)}
}

func (c *lineClient) send(t *testing.T, line string) {
	t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

// expect reads lines until want shows up.
func (c *lineClient) expect(t *testing.T, want string) {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		line, err := c.r.ReadString('\n')
		require.NoError(t, err, "waiting for %q", want)
		if strings.TrimSuffix(line, "\n") == want {
			return
		}
	}
}

func (c *lineClient) login(t *testing.T, user, password string) {
	t.Helper()
	c.expect(t, proto.PromptUsername)
	c.send(t, user)
	c.expect(t, proto.PromptPassword)
	c.send(t, password)
	c.expect(t, proto.Welcome(user))
}

func TestServerChatOverTCP(t *testing.T) {
	srv, hub, _, _ := startServer(t)

	alice := dial(t, srv)
	alice.login(t, "alice", "pw1")
	bob := dial(t, srv)
	bob.login(t, "bob", "pw2")
	alice.expect(t, "bob has joined the chat")

	alice.send(t, "/msg bob hello")
	bob.expect(t, "[alice]: hello")

	alice.send(t, "/create_group team")
	alice.expect(t, "Group team created")
	bob.send(t, "/join_group team")
	bob.expect(t, "Joined group team")
	alice.send(t, "/group_msg team hi all")
	bob.expect(t, "[Group team]: hi all")

	require.NoError(t, bob.conn.Close())
	require.Eventually(t, func() bool { return !hub.Sessions().IsOnline("bob") }, 2*time.Second, 5*time.Millisecond)

	alice.send(t, "/msg bob are you there")
	require.Eventually(t, func() bool { return hub.Backlog().PendingFor("bob") == 1 }, 2*time.Second, 5*time.Millisecond)

	bob = dial(t, srv)
	bob.login(t, "bob", "pw2")
	bob.expect(t, "[alice]: are you there")
}

func TestServerRejectsDuplicateLogin(t *testing.T) {
	srv, _, _, _ := startServer(t)

	alice := dial(t, srv)
	alice.login(t, "alice", "pw1")

	dup := dial(t, srv)
	dup.expect(t, proto.PromptUsername)
	dup.send(t, "alice")
	dup.expect(t, proto.PromptPassword)
	dup.send(t, "pw1")
	dup.expect(t, proto.AuthFailed)

	// The server closes the rejected connection.
	_, err := dup.r.ReadString('\n')
	require.Error(t, err)

	alice.send(t, "/bogus")
	alice.expect(t, proto.InvalidCommand)
}

func TestServerShutdownClosesClients(t *testing.T) {
	srv, _, cancel, runErr := startServer(t)

	alice := dial(t, srv)
	alice.login(t, "alice", "pw1")
	require.Eventually(t, func() bool { return srv.Active() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not stop")
	}
	require.NoError(t, srv.Wait(2*time.Second))
	require.Equal(t, 0, srv.Active())

	require.NoError(t, alice.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := alice.r.ReadString('\n')
	require.Error(t, err)
}

func TestServerRunBeforeListen(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil, 1024, log.Nop())
	require.Error(t, srv.Run(context.Background()))
}

func TestListenFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln.Addr().String(), nil, 1024, log.Nop())
	require.Error(t, srv.Listen())
}
