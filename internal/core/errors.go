package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeAuthFailed     = "auth_failed"
	ErrCodeInvalidCommand = "invalid_command"
	ErrCodeGroupExists    = "group_exists"
	ErrCodeGroupNotFound  = "group_not_found"
	ErrCodeNotMember      = "not_member"
)

var (
	// ErrAuthentication covers unknown users, bad passwords and duplicate logins.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAlreadyOnline is returned when a username already owns a live session.
	ErrAlreadyOnline = errors.New("user already online")
	// ErrInvalidCommand is returned for unrecognised or malformed command lines.
	ErrInvalidCommand = errors.New("invalid command")
	ErrGroupExists    = errors.New("group already exists")
	ErrGroupNotFound  = errors.New("group not found")
	ErrNotMember      = errors.New("not a group member")
	// ErrConnClosed is returned by Conn implementations after Close.
	ErrConnClosed = errors.New("connection closed")
)

// CoreError wraps a code and the human-readable reply sent to the client.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}
