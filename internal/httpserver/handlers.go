package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/al-bashkir/twitter-pkce-login/internal/oauthflow"
	"github.com/al-bashkir/twitter-pkce-login/internal/session"
)

// handleStatus renders the status page, showing whether the visitor is
// logged in. First contact creates the empty session.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := s.visitorSession(w, r)
	if err != nil {
		slog.Error("status: session error", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not establish a session.")
		return
	}

	s.renderPage(w, http.StatusOK, "status.html", map[string]any{
		"LoggedIn": sess.LoggedIn,
	})
}

// handleLogin initiates the authorization flow:
// generate a fresh PKCE pair and state, bind them to the visitor's session,
// and redirect to the provider. A repeated login overwrites the previous
// attempt, so its state no longer verifies. No authentication is required to
// reach this endpoint.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := s.visitorSession(w, r)
	if err != nil {
		slog.Error("login: session error", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not establish a session.")
		return
	}

	flowData, err := s.provider.StartAuthFlow(r.Context())
	if err != nil {
		slog.Error("login: failed to start auth flow", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not start the login flow. Please try again.")
		return
	}

	pending := &session.PendingAuth{
		CodeVerifier: flowData.CodeVerifier,
		State:        flowData.State,
	}
	if err := s.sessions.SetPendingAuth(sess.ID, pending); err != nil {
		slog.Error("login: failed to store pending auth", "session_id", sess.ID, "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not start the login flow. Please try again.")
		return
	}

	slog.Info("login initiated",
		"session_id", sess.ID,
		"state", flowData.State,
	)

	http.Redirect(w, r, flowData.AuthURL, http.StatusFound)
}

// handleCallback completes the authorization flow:
//  1. Handle a provider error response, if any
//  2. Verify the callback against the session-bound expectation
//  3. Exchange the code for tokens (only after verification passes)
//  4. Store the credentials and mark the session logged in
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	errorParam := r.URL.Query().Get("error")
	errorDesc := r.URL.Query().Get("error_description")

	slog.Info("callback received", // #nosec G706 -- only boolean values logged, no injection risk
		"code_present", code != "",
		"state_present", state != "",
		"error_present", errorParam != "",
	)

	// Provider error responses (e.g. the visitor denied consent) short-circuit
	// before the local gates; there is nothing to verify or exchange.
	if errorParam != "" {
		slog.Warn("provider error in callback", // #nosec G706 -- values sanitized via sanitizeLog
			"error", sanitizeLog(errorParam),
			"description", sanitizeLog(errorDesc),
		)
		msg := "Authorization was not granted: " + errorParam
		if errorDesc != "" {
			msg = "Authorization was not granted: " + errorDesc
		}
		s.renderError(w, http.StatusBadRequest, msg)
		return
	}

	sess := s.lookupSession(r)

	var pending *session.PendingAuth
	if sess != nil {
		pending = sess.PendingAuth
	}

	if err := oauthflow.VerifyCallback(pending, state, code); err != nil {
		s.renderVerifyFailure(w, sess, err)
		return
	}

	// All local gates passed; only now is the remote exchange attempted.
	bundle, err := s.provider.ExchangeCode(r.Context(), code, pending.CodeVerifier)
	if err != nil {
		slog.Error("token exchange failed",
			"session_id", sess.ID,
			"error", err,
		)
		s.renderError(w, http.StatusForbidden,
			"The provider rejected the token exchange. The authorization code cannot be reused; please restart the login.")
		return
	}

	creds := &session.Credentials{
		AccessToken:  bundle.AccessToken,
		RefreshToken: bundle.RefreshToken,
		ExpiresIn:    bundle.ExpiresIn,
	}
	if err := s.sessions.SetCredentials(sess.ID, creds); err != nil {
		slog.Error("failed to store credentials", "session_id", sess.ID, "error", err)
		s.renderError(w, http.StatusInternalServerError, "Login succeeded but the session could not be updated. Please try again.")
		return
	}

	slog.Info("visitor logged in",
		"session_id", sess.ID,
		"refresh_token_present", bundle.RefreshToken != "",
		"expires_in", bundle.ExpiresIn,
	)

	http.Redirect(w, r, "/", http.StatusFound)
}

// renderVerifyFailure maps the local verification taxonomy to user-facing
// responses. All three outcomes are terminal for this attempt and respond
// with 400; none of them reaches the provider.
func (s *Server) renderVerifyFailure(w http.ResponseWriter, sess *session.Session, err error) {
	sessionID := ""
	if sess != nil {
		sessionID = sess.ID
	}

	switch {
	case errors.Is(err, oauthflow.ErrMissingLoginContext):
		slog.Warn("callback without login context", "session_id", sessionID)
		s.renderError(w, http.StatusBadRequest,
			"You have not started a login, or your session expired. Please start again from the home page.")
	case errors.Is(err, oauthflow.ErrIncompleteAuthorizationResponse):
		slog.Warn("incomplete authorization response", "session_id", sessionID)
		s.renderError(w, http.StatusBadRequest,
			"You denied the app or your session expired. Please start again from the home page.")
	case errors.Is(err, oauthflow.ErrStateMismatch):
		slog.Warn("state mismatch in callback", "session_id", sessionID)
		s.renderError(w, http.StatusBadRequest,
			"The returned state did not match this session. Please start again from the home page.")
	default:
		slog.Error("callback verification failed", "session_id", sessionID, "error", err)
		s.renderError(w, http.StatusBadRequest, "Callback verification failed.")
	}
}

// handleLogout clears the visitor's credentials and pending state, returning
// the session to its initial empty shape.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := s.lookupSession(r); sess != nil {
		if err := s.sessions.Clear(sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.Error("logout: failed to clear session", "session_id", sess.ID, "error", err)
		} else {
			slog.Info("visitor logged out", "session_id", sess.ID)
		}
	}

	http.Redirect(w, r, "/", http.StatusFound)
}
