package oauthflow

import (
	"github.com/al-bashkir/twitter-pkce-login/internal/session"
)

// VerifyCallback validates an inbound authorization response against the
// login attempt stored in the visitor's session. The checks run in a fixed
// order and each one is a hard gate:
//
//  1. No pending login in the session at all -> ErrMissingLoginContext
//  2. Any of the four values absent or empty -> ErrIncompleteAuthorizationResponse
//  3. Query state differs from session state -> ErrStateMismatch
//
// Only a nil return permits the token exchange. The function is pure: no
// network I/O happens here, so a forged callback never causes an exchange
// attempt.
func VerifyCallback(pending *session.PendingAuth, queryState, code string) error {
	if pending == nil {
		return ErrMissingLoginContext
	}

	if pending.CodeVerifier == "" || pending.State == "" || queryState == "" || code == "" {
		return ErrIncompleteAuthorizationResponse
	}

	if queryState != pending.State {
		return ErrStateMismatch
	}

	return nil
}
