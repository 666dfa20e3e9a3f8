package tcp

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"time"
)

// minBufferSize is the smallest buffer bufio accepts.
const minBufferSize = 16

// Conn frames a TCP stream into lines. Each Recv returns one line without its
// terminator; lines longer than the read limit are truncated and the excess
// is discarded. Each Send writes the message followed by '\n'.
type Conn struct {
	conn         net.Conn
	r            *bufio.Reader
	limit        int
	writeTimeout time.Duration
}

// NewConn wraps c. limit is the maximum number of bytes kept per line.
func NewConn(c net.Conn, limit int, writeTimeout time.Duration) *Conn {
	if limit < minBufferSize {
		limit = minBufferSize
	}
	return &Conn{
		conn:         c,
		r:            bufio.NewReaderSize(c, limit),
		limit:        limit,
		writeTimeout: writeTimeout,
	}
}

// Recv reads the next line.
func (c *Conn) Recv() (string, error) {
	chunk, err := c.r.ReadSlice('\n')
	switch {
	case err == nil:
		return trimEOL(string(chunk)), nil
	case errors.Is(err, bufio.ErrBufferFull):
		line := string(chunk)
		// A truncated last line is still a line; EOF surfaces on the next call.
		if discardErr := c.discardLine(); discardErr != nil && !errors.Is(discardErr, io.EOF) {
			return "", discardErr
		}
		return trimEOL(line), nil
	case len(chunk) > 0:
		// Last line without terminator before EOF; the error surfaces on the next call.
		return trimEOL(string(chunk)), nil
	default:
		return "", err
	}
}

func (c *Conn) discardLine() error {
	for {
		_, err := c.r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return err
	}
}

// Send writes one message line.
func (c *Conn) Send(msg string) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := c.conn.Write([]byte(msg + "\n"))
	return err
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func trimEOL(s string) string {
	return strings.TrimRight(s, "\r\n")
}
