package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatd/internal/core"
)

const (
	wsWriteTimeout = 10 * time.Second
	// wsReadLimit caps a single frame. Anything up to it is truncated to
	// maxLine like a TCP line; larger frames end the session.
	wsReadLimit = 1 << 20
)

// WSHandler upgrades HTTP connections and hands them to the hub as ordinary chat connections.
type WSHandler struct {
	hub     ChatHub
	maxLine int
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. Text frames longer than
// maxLine bytes are truncated, like over-long TCP lines.
func NewWSHandler(hub ChatHub, maxLine int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, maxLine: maxLine, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	conn.SetReadLimit(int64(max(wsReadLimit, h.maxLine)))

	wc := &wsConn{
		ctx:     r.Context(),
		conn:    conn,
		maxLine: h.maxLine,
		remote:  r.RemoteAddr,
	}
	if err := h.hub.Serve(r.Context(), wc); err != nil && !core.IsDisconnect(err) {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("ws session ended with error")
	}
	_ = wc.Close()
}

// wsConn adapts a WebSocket to core.Conn: one text message per line.
type wsConn struct {
	ctx     context.Context
	conn    *websocket.Conn
	maxLine int
	remote  string
}

func (c *wsConn) Recv() (string, error) {
	for {
		typ, data, err := c.conn.Read(c.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				return "", io.EOF
			}
			return "", err
		}
		if typ != websocket.MessageText {
			continue
		}
		if c.maxLine > 0 && len(data) > c.maxLine {
			data = data[:c.maxLine]
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *wsConn) Send(msg string) error {
	ctx, cancel := context.WithTimeout(c.ctx, wsWriteTimeout)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
		if errors.Is(err, context.Canceled) {
			return core.ErrConnClosed
		}
		return err
	}
	return nil
}

func (c *wsConn) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	if err != nil && websocket.CloseStatus(err) != -1 {
		return nil
	}
	return err
}

func (c *wsConn) RemoteAddr() string {
	return c.remote
}
