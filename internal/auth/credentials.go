package auth

import (
	"bufio"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vovakirdan/chatd/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMalformedCredentials is returned for a credential entry without a ':' separator.
	ErrMalformedCredentials = errors.New("malformed credential entry")
)

// Credentials is an immutable username -> password lookup loaded once at startup.
// A password that looks like a bcrypt hash is verified as one, anything else is compared verbatim.
type Credentials struct {
	secrets map[string]string
}

// NewCredentials copies users into a new store.
func NewCredentials(users map[string]string) *Credentials {
	secrets := make(map[string]string, len(users))
	for name, secret := range users {
		secrets[name] = secret
	}
	return &Credentials{secrets: secrets}
}

// LoadFile reads a credential file with one username:password entry per token.
func LoadFile(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials: %w", err)
	}
	defer f.Close()

	creds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return creds, nil
}

// Parse reads whitespace separated username:password entries.
// Later entries for the same username replace earlier ones.
func Parse(r io.Reader) (*Credentials, error) {
	secrets := make(map[string]string)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		for _, entry := range strings.Fields(scanner.Text()) {
			name, secret, ok := strings.Cut(entry, ":")
			if !ok || name == "" {
				return nil, fmt.Errorf("line %d %q: %w", lineNo, entry, ErrMalformedCredentials)
			}
			secrets[name] = secret
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan credentials: %w", err)
	}

	return &Credentials{secrets: secrets}, nil
}

// Verify checks a username/password pair.
func (c *Credentials) Verify(username, password string) error {
	secret, ok := c.secrets[username]
	if !ok {
		return ErrInvalidCredentials
	}

	if IsHash(secret) {
		if err := ComparePassword(secret, password); err != nil {
			return ErrInvalidCredentials
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(secret), []byte(password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// Len returns the number of known users.
func (c *Credentials) Len() int {
	return len(c.secrets)
}

// LoadStore builds credentials from a user store. Stored values follow the same rules as the file.
func LoadStore(ctx context.Context, st store.UserStore) (*Credentials, error) {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	secrets := make(map[string]string, len(users))
	for _, u := range users {
		secrets[u.Username] = u.PasswordHash
	}
	return &Credentials{secrets: secrets}, nil
}
