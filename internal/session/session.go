// Package session provides per-visitor session state for the OAuth2 login flow.
package session

import (
	"time"
)

// PendingAuth holds the ephemeral secrets of a login attempt. It exists only
// between login initiation and callback completion; a new login attempt
// overwrites it and a successful token exchange clears it.
type PendingAuth struct {
	// CodeVerifier is the PKCE code verifier, presented at token exchange
	CodeVerifier string

	// State is the anti-CSRF state parameter, compared against the callback
	State string
}

// Credentials holds the token bundle obtained from a successful exchange.
type Credentials struct {
	// AccessToken is used for delegated API calls
	AccessToken string

	// RefreshToken is present only when offline access was granted
	RefreshToken string

	// ExpiresIn is the access token lifetime in seconds, as reported by the
	// provider at exchange time
	ExpiresIn int64
}

// Session represents one visitor's state across otherwise-stateless HTTP
// requests. The visitor's cookie carries only the session ID; the record
// itself lives in the backing store.
type Session struct {
	// ID is a unique identifier for this session (64-char hex string)
	ID string

	// LoggedIn reports whether a completed authentication exists.
	// LoggedIn implies Credentials is non-nil.
	LoggedIn bool

	// PendingAuth is the in-flight login attempt, if any
	PendingAuth *PendingAuth

	// Credentials is the token bundle from a completed login, if any
	Credentials *Credentials

	// CreatedAt is when this session was created
	CreatedAt time.Time

	// ExpiresAt is when this session will expire
	ExpiresAt time.Time
}
