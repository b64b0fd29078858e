package oauthflow

import (
	"errors"
	"fmt"
)

// Callback verification failures. All three are local, detected before any
// network call, and terminal for the attempt: the visitor must restart at
// login to obtain a fresh verifier/state pair.
var (
	// ErrMissingLoginContext means the session has no pending login at all:
	// the visitor skipped login initiation or the session expired.
	ErrMissingLoginContext = errors.New("no pending login in session")

	// ErrIncompleteAuthorizationResponse means a required value (session
	// verifier/state or query state/code) is absent or empty: the visitor
	// denied consent or the session expired between redirect legs.
	ErrIncompleteAuthorizationResponse = errors.New("incomplete authorization response")

	// ErrStateMismatch means the returned state does not match the one stored
	// for this session: possible CSRF or a stale redirect. Token exchange must
	// never be attempted after this.
	ErrStateMismatch = errors.New("state parameter does not match session")
)

// ExchangeError wraps a failure of the remote code-for-token exchange.
// It is distinct from the local verification errors above: the authorization
// code has been consumed, so retrying requires a fresh login.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
