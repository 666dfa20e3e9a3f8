package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatd/internal/proto"
)

// Serve runs the whole life of one connection: authentication, the command
// loop and teardown. It returns when the peer disconnects, a read or write
// fails, authentication is rejected, or ctx is cancelled. The connection is
// always closed on return.
func (h *Hub) Serve(ctx context.Context, conn Conn) error {
	sess := newSession(conn)
	defer sess.Close()

	stop := context.AfterFunc(ctx, func() { _ = sess.Close() })
	defer stop()

	log := h.log.With().Str("conn_id", sess.ID).Str("remote", conn.RemoteAddr()).Logger()
	log.Debug().Msg("connection opened")

	if err := h.authenticate(sess, &log); err != nil {
		return err
	}
	defer h.teardown(sess, &log)

	h.announce(sess, &log)
	// Anything queued while the user was away can go out now.
	h.backlog.Signal()

	sess.setState(StateActive)
	for {
		line, err := sess.recv()
		if err != nil {
			return fmt.Errorf("recv: %w", err)
		}
		if err := h.Dispatch(sess, line); err != nil {
			return fmt.Errorf("reply: %w", err)
		}
	}
}

// authenticate walks the username/password prompts and registers the session.
func (h *Hub) authenticate(sess *Session, log *zerolog.Logger) error {
	sess.setState(StateAwaitingUsername)
	if err := sess.Send(proto.PromptUsername); err != nil {
		return fmt.Errorf("send username prompt: %w", err)
	}
	username, err := sess.recv()
	if err != nil {
		log.Debug().Err(err).Msg("disconnected before username")
		return fmt.Errorf("recv username: %w", err)
	}
	username = strings.TrimSpace(username)

	sess.setState(StateAwaitingPassword)
	if err := sess.Send(proto.PromptPassword); err != nil {
		return fmt.Errorf("send password prompt: %w", err)
	}
	password, err := sess.recv()
	if err != nil {
		log.Debug().Err(err).Str("user", username).Msg("disconnected before password")
		return fmt.Errorf("recv password: %w", err)
	}
	password = strings.TrimSpace(password)

	if err := h.login(sess, username, password); err != nil {
		sess.setState(StateRejected)
		log.Warn().Err(err).Str("user", username).Msg("authentication failed")
		// The client may already be gone; the rejection stands either way.
		_ = sess.Send(proto.AuthFailed)
		return err
	}

	sess.setState(StateAuthenticated)
	log.Info().Str("user", username).Msg("authentication successful")
	return nil
}

// login verifies credentials, claims the username and sends the welcome line.
// The send lock is held across registration and welcome so no delivery can
// reach the client before it has been greeted.
func (h *Hub) login(sess *Session, username, password string) error {
	if err := h.creds.Verify(username, password); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	sess.sendMu.Lock()
	defer sess.sendMu.Unlock()

	if err := h.sessions.Login(username, sess); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if err := sess.conn.Send(proto.Welcome(username)); err != nil {
		h.sessions.Logout(username, sess)
		return fmt.Errorf("send welcome: %w", err)
	}
	return nil
}

// announce tells every user who logged in earlier about the newcomer and
// tells the newcomer about them. Users logging in later announce themselves,
// so each pair sees exactly one notice about the other.
func (h *Hub) announce(sess *Session, log *zerolog.Logger) {
	notice := proto.Joined(sess.User)
	for _, other := range h.sessions.Before(sess) {
		if err := other.Send(notice); err != nil {
			log.Debug().Err(err).Str("user", other.User).Msg("join notice not delivered")
		}
		if err := sess.Send(proto.Joined(other.User)); err != nil {
			log.Debug().Err(err).Msg("roster notice not delivered")
			return
		}
	}
}

// teardown releases the username so the user can log in again.
// Queued messages for the user stay in the backlog.
func (h *Hub) teardown(sess *Session, log *zerolog.Logger) {
	removed := h.sessions.Logout(sess.User, sess)
	_ = sess.Close()
	log.Info().
		Str("user", sess.User).
		Bool("released", removed).
		Int("pending", h.backlog.PendingFor(sess.User)).
		Msg("disconnected")
}

// IsDisconnect reports whether err from Serve is an ordinary end of a connection
// rather than something worth logging loudly.
func IsDisconnect(err error) bool {
	return err == nil ||
		errors.Is(err, ErrAuthentication) ||
		errors.Is(err, ErrConnClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
