// Package proto holds the literal strings of the line-based chat protocol.
package proto

import "fmt"

// Command tokens recognised at the start of a client line.
const (
	CmdMsg         = "/msg"
	CmdCreateGroup = "/create_group"
	CmdJoinGroup   = "/join_group"
	CmdGroupMsg    = "/group_msg"
	CmdLeaveGroup  = "/leave_group"
	CmdBroadcast   = "/broadcast"
)

// Fixed server replies.
const (
	PromptUsername = "Enter username: "
	PromptPassword = "Enter password: "
	AuthFailed     = "Authentication failed"
	InvalidCommand = "Invalid command"
)

// Welcome greets a freshly authenticated user.
func Welcome(user string) string {
	return fmt.Sprintf("Welcome to the server %s!", user)
}

// Joined is the presence notice sent when a user comes online.
func Joined(user string) string {
	return "\n" + user + " has joined the chat"
}

// Delivery renders a queued message for its receiver.
func Delivery(label, body string) string {
	return "[" + label + "]: " + body
}

// GroupLabel is the sender label of a group message.
func GroupLabel(group string) string {
	return "Group " + group
}

// BroadcastLabel is the sender label of a broadcast message.
func BroadcastLabel(user string) string {
	return "BROADCAST " + user
}

func GroupCreated(group string) string { return "Group " + group + " created" }
func GroupExists(group string) string { return "Group " + group + " already exists" }
func GroupMissing(group string) string { return "Group " + group + " does not exist" }
func GroupJoined(group string) string { return "Joined group " + group }
func GroupLeft(group string) string { return "Left group " + group }

// NotMember is the reply to leaving a group the user does not belong to.
func NotMember(user, group string) string {
	return "User " + user + " not a member of group " + group
}
