package session

import "errors"

// ErrNotFound is returned by a Store when no live session exists for an ID.
// Expired sessions are reported the same way as absent ones.
var ErrNotFound = errors.New("session not found")

// Store is the backing store contract for visitor sessions. Which store backs
// the service (in-memory map, external cache) is a deployment concern; the
// flow logic only depends on this interface.
//
// Implementations return copies of the session record. Mutation goes through
// the Set/Clear methods so the store controls its own consistency.
type Store interface {
	// Create allocates a new empty session and returns it.
	Create() (*Session, error)

	// Get returns the session for the given ID, or ErrNotFound.
	Get(id string) (*Session, error)

	// SetPendingAuth stores a new login attempt, overwriting any prior one.
	SetPendingAuth(id string, pending *PendingAuth) error

	// SetCredentials stores a completed login: credentials are set,
	// LoggedIn becomes true, and any PendingAuth is cleared.
	SetCredentials(id string, creds *Credentials) error

	// Clear resets a session to its initial empty shape (logout).
	Clear(id string) error

	// Delete removes a session entirely.
	Delete(id string)
}
