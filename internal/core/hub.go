package core

import (
	"github.com/rs/zerolog"
)

// Authenticator validates a username/password pair.
type Authenticator interface {
	Verify(username, password string) error
}

// Hub owns the shared chat state: sessions, groups and the message backlog.
// Connection handlers call Serve; a single Run loop delivers queued messages.
type Hub struct {
	creds    Authenticator
	sessions *Sessions
	groups   *Groups
	backlog  *Backlog
	log      *zerolog.Logger
}

// NewHub creates a new chat hub instance.
func NewHub(creds Authenticator, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		creds:    creds,
		sessions: NewSessions(),
		groups:   NewGroups(),
		backlog:  NewBacklog(),
		log:      logger,
	}
}

// Sessions exposes the session registry.
func (h *Hub) Sessions() *Sessions { return h.sessions }

// Groups exposes the group registry.
func (h *Hub) Groups() *Groups { return h.groups }

// Backlog exposes the pending message queue.
func (h *Hub) Backlog() *Backlog { return h.backlog }
