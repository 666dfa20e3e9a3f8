package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vovakirdan/chatd/internal/proto"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandDirectMessage queues a message for one user.
	CommandDirectMessage CommandKind = iota
	// CommandCreateGroup creates a group with the sender as its only member.
	CommandCreateGroup
	// CommandJoinGroup adds the sender to a group.
	CommandJoinGroup
	// CommandGroupMessage queues a message for every other group member.
	CommandGroupMessage
	// CommandLeaveGroup removes the sender from a group.
	CommandLeaveGroup
	// CommandBroadcast queues a message for every other online user.
	CommandBroadcast
)

// Command represents an action requested by a client.
type Command struct {
	Kind   CommandKind
	Target string // receiver or group name
	Text   string
}

// ParseCommand interprets one client line.
// Arguments are whitespace separated; the message text is everything after the
// single separator that follows the last argument.
func ParseCommand(line string) (Command, error) {
	word, rest := nextWord(line)

	switch word {
	case proto.CmdMsg:
		return parseTargetAndText(CommandDirectMessage, rest)
	case proto.CmdGroupMsg:
		return parseTargetAndText(CommandGroupMessage, rest)
	case proto.CmdCreateGroup:
		return parseTarget(CommandCreateGroup, rest)
	case proto.CmdJoinGroup:
		return parseTarget(CommandJoinGroup, rest)
	case proto.CmdLeaveGroup:
		return parseTarget(CommandLeaveGroup, rest)
	case proto.CmdBroadcast:
		text := dropSeparator(rest)
		if text == "" {
			return Command{}, ErrInvalidCommand
		}
		return Command{Kind: CommandBroadcast, Text: text}, nil
	default:
		return Command{}, ErrInvalidCommand
	}
}

func parseTarget(kind CommandKind, rest string) (Command, error) {
	target, _ := nextWord(rest)
	if target == "" {
		return Command{}, ErrInvalidCommand
	}
	return Command{Kind: kind, Target: target}, nil
}

func parseTargetAndText(kind CommandKind, rest string) (Command, error) {
	target, rest := nextWord(rest)
	text := dropSeparator(rest)
	if target == "" || text == "" {
		return Command{}, ErrInvalidCommand
	}
	return Command{Kind: kind, Target: target, Text: text}, nil
}

// nextWord skips leading whitespace and splits off the first word.
func nextWord(s string) (word, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// dropSeparator removes the one whitespace character between arguments and text.
func dropSeparator(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || !unicode.IsSpace(r) {
		return s
	}
	return s[size:]
}
