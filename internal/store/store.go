package store

import (
	"context"
	"time"
)

// User is a credential row.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore provides access to stored credentials.
type UserStore interface {
	// ListUsers returns every stored user ordered by username.
	ListUsers(ctx context.Context) ([]User, error)
	// PutUser inserts or replaces a user.
	PutUser(ctx context.Context, username, passwordHash string) error
}

// Store is the full persistence interface.
type Store interface {
	UserStore
	Close() error
}
