package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatd/internal/core"
)

const (
	defaultWriteTimeout = 10 * time.Second
	maxAcceptBackoff    = time.Second
)

// Handler serves one accepted connection until it ends.
type Handler interface {
	Serve(ctx context.Context, conn core.Conn) error
}

// Server accepts TCP connections and runs a supervised handler goroutine for each.
type Server struct {
	addr         string
	handler      Handler
	readLimit    int
	writeTimeout time.Duration
	log          *zerolog.Logger

	listener net.Listener
	wg       sync.WaitGroup
	active   atomic.Int64
}

// NewServer builds an acceptor for addr. Call Listen before Run.
func NewServer(addr string, handler Handler, readLimit int, logger *zerolog.Logger) *Server {
	return &Server{
		addr:         addr,
		handler:      handler,
		readLimit:    readLimit,
		writeTimeout: defaultWriteTimeout,
		log:          logger,
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close releases the listening socket without serving. Run closes it on its own.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Active returns the number of connections being served.
func (s *Server) Active() int {
	return int(s.active.Load())
}

// Run accepts connections until ctx is cancelled. Handlers receive ctx and
// are expected to close their connection when it is done.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("tcp server: Run called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = s.listener.Close() })
	defer stop()

	s.log.Info().Str("addr", s.listener.Addr().String()).Msg("tcp server listening")

	var backoff time.Duration
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			backoff = nextBackoff(backoff)
			s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("accept failed")
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		backoff = 0

		s.wg.Add(1)
		s.active.Add(1)
		go s.serve(ctx, nc)
	}
}

func (s *Server) serve(ctx context.Context, nc net.Conn) {
	defer s.wg.Done()
	defer s.active.Add(-1)

	remote := nc.RemoteAddr().String()
	s.log.Info().Str("remote", remote).Msg("client connected")

	err := s.handler.Serve(ctx, NewConn(nc, s.readLimit, s.writeTimeout))
	if core.IsDisconnect(err) {
		s.log.Info().Str("remote", remote).Msg("client disconnected")
		return
	}
	s.log.Warn().Err(err).Str("remote", remote).Msg("client connection ended with error")
}

// Wait blocks until every handler has returned or timeout elapses.
func (s *Server) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		s.log.Warn().Int("active", s.Active()).Msg("tcp shutdown timeout reached")
		return context.DeadlineExceeded
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	if cur == 0 {
		return 5 * time.Millisecond
	}
	cur *= 2
	if cur > maxAcceptBackoff {
		cur = maxAcceptBackoff
	}
	return cur
}
