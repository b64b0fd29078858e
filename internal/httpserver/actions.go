package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/al-bashkir/twitter-pkce-login/internal/session"
	"github.com/al-bashkir/twitter-pkce-login/internal/twitter"
)

// activeCredentials returns the visitor's credentials when logged in.
// An unauthenticated visitor is redirected (an expected outcome, not an
// error) and nil is returned; in that case no remote call may be made.
func (s *Server) activeCredentials(w http.ResponseWriter, r *http.Request, redirectTo string) *session.Credentials {
	sess := s.lookupSession(r)
	if sess == nil || !sess.LoggedIn || sess.Credentials == nil {
		http.Redirect(w, r, redirectTo, http.StatusFound)
		return nil
	}
	return sess.Credentials
}

// handleMe looks up the authenticated user's identity via the delegated API.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	creds := s.activeCredentials(w, r, "/twitter-login")
	if creds == nil {
		return
	}

	user, err := s.api.UsersMe(r.Context(), creds.AccessToken)
	if err != nil {
		s.renderAPIFailure(w, "identity lookup", err)
		return
	}

	slog.Info("identity lookup succeeded",
		"user_id", user.ID,
		"username", sanitizeLog(user.Username),
	)

	s.renderPage(w, http.StatusOK, "identity.html", user)
}

// handleFollow resolves the visitor's own id, then requests a follow edge to
// the configured target account.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	creds := s.activeCredentials(w, r, "/")
	if creds == nil {
		return
	}

	user, err := s.api.UsersMe(r.Context(), creds.AccessToken)
	if err != nil {
		s.renderAPIFailure(w, "identity lookup", err)
		return
	}

	targetID := s.cfg.Twitter.FollowTargetID
	result, err := s.api.Follow(r.Context(), creds.AccessToken, user.ID, targetID)
	if err != nil {
		s.renderAPIFailure(w, "follow", err)
		return
	}

	slog.Info("follow request completed",
		"user_id", user.ID,
		"target_id", targetID,
		"following", result.Following,
		"pending", result.PendingFollow,
	)

	msg := "You are now following the target account."
	if result.PendingFollow {
		msg = "Follow request sent; the target account is protected and must approve it."
	}

	s.renderPage(w, http.StatusOK, "success.html", map[string]string{
		"Message": msg,
	})
}

// renderAPIFailure maps delegated-call failures to a 500 response. The
// provider's own wording is shown to the visitor: a rejection here can mean
// an expired token or a product-tier limitation, and swallowing it would
// hide which.
func (s *Server) renderAPIFailure(w http.ResponseWriter, action string, err error) {
	slog.Error("delegated call failed", "action", action, "error", err)

	var apiErr *twitter.APIError
	if errors.As(err, &apiErr) {
		msg := "The " + action + " request was rejected"
		if apiErr.Title != "" {
			msg += ": " + apiErr.Title
		}
		if apiErr.Detail != "" {
			msg += " - " + apiErr.Detail
		}
		s.renderError(w, http.StatusInternalServerError, msg)
		return
	}

	s.renderError(w, http.StatusInternalServerError,
		"The "+action+" request failed. Please try again later.")
}
