package core

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/vovakirdan/chatd/internal/utils"
)

// State is the lifecycle position of a connection.
type State int32

const (
	StateConnecting State = iota
	StateAwaitingUsername
	StateAwaitingPassword
	StateAuthenticated
	StateRejected
	StateActive
	StateClosed
)

var stateNames = [...]string{"connecting", "awaiting_username", "awaiting_password", "authenticated", "rejected", "active", "closed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Session owns one client connection for the lifetime of its handler.
// Sends are serialized so the delivery worker and command replies never interleave.
type Session struct {
	ID   string
	User string

	conn     Conn
	loginSeq uint64
	state    atomic.Int32
	sendMu sync.Mutex
	recvMu sync.Mutex
	closed sync.Once
}

func newSession(conn Conn) *Session {
	return &Session{ID: utils.NewID(), conn: conn}
}

// Send writes msg to the client.
func (s *Session) Send(msg string) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.conn.Send(msg)
}

func (s *Session) recv() (string, error) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()
	return s.conn.Recv()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Close releases the connection. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closed.Do(func() {
		s.setState(StateClosed)
		err = s.conn.Close()
	})
	return err
}

// Sessions tracks which usernames are online and which session owns each.
type Sessions struct {
	mu     sync.RWMutex
	online map[string]*Session
	seq    uint64
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{online: make(map[string]*Session)}
}

// Login registers s as the owner of user. At most one session per user exists at a time.
func (r *Sessions) Login(user string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.online[user]; exists {
		return ErrAlreadyOnline
	}
	r.seq++
	s.User = user
	s.loginSeq = r.seq
	r.online[user] = s
	return nil
}

// Logout removes user if s still owns it. Returns true if removed.
func (r *Sessions) Logout(user string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, exists := r.online[user]; !exists || cur != s {
		return false
	}
	delete(r.online, user)
	return true
}

// Get returns the live session of user.
func (r *Sessions) Get(user string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.online[user]
	return s, ok
}

// IsOnline reports whether user has a live session.
func (r *Sessions) IsOnline(user string) bool {
	_, ok := r.Get(user)
	return ok
}

// Online returns the sorted usernames currently connected.
func (r *Sessions) Online() []string {
	r.mu.RLock()
	users := lo.Keys(r.online)
	r.mu.RUnlock()

	slices.Sort(users)
	return users
}

// Others returns every live session except the one owned by user.
func (r *Sessions) Others(user string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Filter(lo.Values(r.online), func(s *Session, _ int) bool {
		return s.User != user
	})
}

// Before returns the live sessions that logged in earlier than s.
func (r *Sessions) Before(s *Session) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Filter(lo.Values(r.online), func(other *Session, _ int) bool {
		return other.loginSeq < s.loginSeq
	})
}
