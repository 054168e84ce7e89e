package sessions

import (
	"context"
	"errors"
)

var (
	// ErrSessionNotFound is returned by Load when no session is stored under the key.
	ErrSessionNotFound = errors.New("session not found")
	// ErrConflict may be returned by a Store that does not upsert when a concurrent writer stored
	// the same session first.
	ErrConflict = errors.New("session store conflict")
)

// Repo defines the persistence operations for sessions.
// Implementations must be safe for concurrent use.
type Repo interface {
	// Load retrieves a session by its key, returning ErrSessionNotFound when absent
	Load(ctx context.Context, id string) (*Session, error)

	// Store creates or replaces the session stored under session.ID
	Store(ctx context.Context, session *Session) error

	// Delete removes a session by key; deleting an absent key is not an error
	Delete(ctx context.Context, id string) error
}
