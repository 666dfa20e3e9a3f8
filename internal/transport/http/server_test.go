package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatd/internal/auth"
	"github.com/vovakirdan/chatd/internal/config"
	"github.com/vovakirdan/chatd/internal/core"
	"github.com/vovakirdan/chatd/internal/log"
	"github.com/vovakirdan/chatd/internal/proto"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupServer(t *testing.T, secret string) (*httptest.Server, *core.Hub) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	creds := auth.NewCredentials(map[string]string{"alice": "pw1", "bob": "pw2"})
	hub := core.NewHub(creds, log.Nop())
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.AdminJWTSecret = secret

	srv := httptest.NewServer(NewHandler(hub, cfg, log.Nop()))
	t.Cleanup(srv.Close)
	return srv, hub
}

func adminToken(t *testing.T) string {
	t.Helper()
	cfg := config.Default()
	token, err := auth.GenerateToken(&auth.JWTConfig{
		Secret: []byte(testSecret),
		Issuer: cfg.AdminJWTIssuer,
		TTL:    time.Hour,
	}, "ops")
	require.NoError(t, err)
	return token
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type wsClient struct {
	conn *websocket.Conn
}

func dialWS(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, srv.URL+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return &wsClient{conn: conn}
}

func (c *wsClient) send(t *testing.T, line string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.conn.Write(ctx, websocket.MessageText, []byte(line)))
}

// expect reads messages until want shows up.
func (c *wsClient) expect(t *testing.T, want string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		_, data, err := c.conn.Read(ctx)
		require.NoError(t, err, "waiting for %q", want)
		if string(data) == want {
			return
		}
	}
}

func (c *wsClient) login(t *testing.T, user, password string) {
	t.Helper()
	c.expect(t, proto.PromptUsername)
	c.send(t, user)
	c.expect(t, proto.PromptPassword)
	c.send(t, password)
	c.expect(t, proto.Welcome(user))
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t, "")

	resp := get(t, srv.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminAPI_RequiresToken(t *testing.T) {
	srv, _ := setupServer(t, testSecret)

	resp := get(t, srv.URL+"/api/stats", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, srv.URL+"/api/stats", "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, srv.URL+"/api/stats", adminToken(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminAPI_OpenWithoutSecret(t *testing.T) {
	srv, _ := setupServer(t, "")

	resp := get(t, srv.URL+"/api/sessions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body SessionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Empty(t, body.Users)
}

func TestWebSocketChatAndStats(t *testing.T) {
	srv, hub := setupServer(t, testSecret)
	token := adminToken(t)

	alice := dialWS(t, srv)
	alice.login(t, "alice", "pw1")
	bob := dialWS(t, srv)
	bob.login(t, "bob", "pw2")
	alice.expect(t, proto.Joined("bob"))

	alice.send(t, "/create_group devs")
	alice.expect(t, proto.GroupCreated("devs"))
	bob.send(t, "/join_group devs")
	bob.expect(t, proto.GroupJoined("devs"))

	alice.send(t, "/msg bob hi there")
	bob.expect(t, proto.Delivery("alice", "hi there"))

	bob.send(t, "/group_msg devs ship it")
	alice.expect(t, proto.Delivery(proto.GroupLabel("devs"), "ship it"))

	require.Eventually(t, func() bool { return hub.Backlog().Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	resp := get(t, srv.URL+"/api/stats", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, StatsResponse{Online: 2, Groups: 1, Backlog: 0}, stats)

	resp = get(t, srv.URL+"/api/sessions", token)
	var sessions SessionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sessions))
	require.Equal(t, []string{"alice", "bob"}, sessions.Users)

	resp = get(t, srv.URL+"/api/groups", token)
	var groups GroupsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&groups))
	require.Len(t, groups.Groups, 1)
	require.Equal(t, "devs", groups.Groups[0].Name)
	require.Equal(t, 0, groups.Groups[0].ID)
	require.ElementsMatch(t, []string{"alice", "bob"}, groups.Groups[0].Members)
}

func TestWebSocketTruncatesOversizedFrames(t *testing.T) {
	srv, _ := setupServer(t, "")
	limit := config.Default().ReadBufferSize

	alice := dialWS(t, srv)
	alice.login(t, "alice", "pw1")
	bob := dialWS(t, srv)
	bob.login(t, "bob", "pw2")

	// Larger than the library's default 32 KiB frame limit.
	line := "/msg bob " + strings.Repeat("x", 70000)
	alice.send(t, line)
	bob.expect(t, proto.Delivery("alice", line[len("/msg bob "):limit]))

	alice.send(t, "/create_group devs")
	alice.expect(t, proto.GroupCreated("devs"))
}

func TestWebSocketBadCredentials(t *testing.T) {
	srv, hub := setupServer(t, "")

	c := dialWS(t, srv)
	c.expect(t, proto.PromptUsername)
	c.send(t, "alice")
	c.expect(t, proto.PromptPassword)
	c.send(t, "wrong")
	c.expect(t, proto.AuthFailed)

	require.False(t, hub.Sessions().IsOnline("alice"))
}

func TestWebSocketDisconnectLogsOut(t *testing.T) {
	srv, hub := setupServer(t, "")

	c := dialWS(t, srv)
	c.login(t, "alice", "pw1")
	require.True(t, hub.Sessions().IsOnline("alice"))

	require.NoError(t, c.conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return !hub.Sessions().IsOnline("alice") }, 2*time.Second, 10*time.Millisecond)
}
