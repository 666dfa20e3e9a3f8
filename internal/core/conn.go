package core

import "io"

// Conn is a line-oriented connection to a chat client.
// Transports (TCP, WebSocket) adapt their sockets to it.
type Conn interface {
	io.Closer

	// Recv blocks until the next command line arrives.
	Recv() (string, error)

	// Send writes one server message.
	Send(msg string) error

	// RemoteAddr describes the peer for logging.
	RemoteAddr() string
}
