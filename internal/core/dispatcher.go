package core

import (
	"errors"

	"github.com/vovakirdan/chatd/internal/proto"
)

// Dispatch executes one command line for an active session and sends the reply, if any.
// Only a failure to write the reply is returned; command errors become replies.
func (h *Hub) Dispatch(sess *Session, line string) error {
	reply, err := h.execute(sess.User, line)
	if err != nil {
		var ce *CoreError
		if errors.As(err, &ce) {
			h.log.Debug().Str("user", sess.User).Str("code", ce.Code).Msg("command rejected")
			reply = ce.Message
		} else {
			h.log.Error().Err(err).Str("user", sess.User).Msg("command failed")
			reply = proto.InvalidCommand
		}
	}
	if reply == "" {
		return nil
	}
	return sess.Send(reply)
}

// execute applies one command on behalf of user and returns the reply text.
// Send-type commands only enqueue and reply with nothing.
func (h *Hub) execute(user, line string) (string, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return "", coreError(ErrCodeInvalidCommand, proto.InvalidCommand, err)
	}

	switch cmd.Kind {
	case CommandDirectMessage:
		h.backlog.Push(PendingMessage{Label: user, To: cmd.Target, Body: cmd.Text})
		h.log.Info().Str("user", user).Str("to", cmd.Target).Msg("direct message queued")
		return "", nil

	case CommandCreateGroup:
		g, err := h.groups.Create(cmd.Target, user)
		if err != nil {
			return "", coreError(ErrCodeGroupExists, proto.GroupExists(cmd.Target), err)
		}
		h.log.Info().Str("user", user).Str("group", g.Name).Int("group_id", g.ID).Msg("group created")
		return proto.GroupCreated(cmd.Target), nil

	case CommandJoinGroup:
		if err := h.groups.Join(cmd.Target, user); err != nil {
			return "", coreError(ErrCodeGroupNotFound, proto.GroupMissing(cmd.Target), err)
		}
		h.log.Info().Str("user", user).Str("group", cmd.Target).Msg("joined group")
		return proto.GroupJoined(cmd.Target), nil

	case CommandGroupMessage:
		label := proto.GroupLabel(cmd.Target)
		err := h.groups.FanOut(cmd.Target, func(members []string) {
			msgs := make([]PendingMessage, 0, len(members))
			for _, member := range members {
				if member == user {
					continue
				}
				msgs = append(msgs, PendingMessage{Label: label, To: member, Body: cmd.Text})
			}
			h.backlog.Push(msgs...)
		})
		if err != nil {
			return "", coreError(ErrCodeGroupNotFound, proto.GroupMissing(cmd.Target), err)
		}
		h.log.Info().Str("user", user).Str("group", cmd.Target).Msg("group message queued")
		return "", nil

	case CommandLeaveGroup:
		if err := h.groups.Leave(cmd.Target, user); err != nil {
			code := ErrCodeNotMember
			if errors.Is(err, ErrGroupNotFound) {
				code = ErrCodeGroupNotFound
			}
			return "", coreError(code, proto.NotMember(user, cmd.Target), err)
		}
		h.log.Info().Str("user", user).Str("group", cmd.Target).Msg("left group")
		return proto.GroupLeft(cmd.Target), nil

	case CommandBroadcast:
		label := proto.BroadcastLabel(user)
		others := h.sessions.Others(user)
		msgs := make([]PendingMessage, 0, len(others))
		for _, s := range others {
			msgs = append(msgs, PendingMessage{Label: label, To: s.User, Body: cmd.Text})
		}
		h.backlog.Push(msgs...)
		h.log.Info().Str("user", user).Int("recipients", len(msgs)).Msg("broadcast queued")
		return "", nil
	}

	return "", coreError(ErrCodeInvalidCommand, proto.InvalidCommand, ErrInvalidCommand)
}
