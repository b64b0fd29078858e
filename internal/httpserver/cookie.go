package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/al-bashkir/twitter-pkce-login/internal/session"
)

// visitorSession resolves the session for this request's cookie, creating a
// fresh empty session (and setting the cookie) when the cookie is absent or
// points at an expired record.
func (s *Server) visitorSession(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	if sess := s.lookupSession(r); sess != nil {
		return sess, nil
	}

	sess, err := s.sessions.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   s.cfg.Session.Timeout,
		HttpOnly: true,
		Secure:   s.cfg.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Debug("session created", "session_id", sess.ID)

	return sess, nil
}

// lookupSession returns the live session named by the request's cookie, or
// nil. Unlike visitorSession it never creates one; the callback handler uses
// this so a visitor without a session fails verification instead of silently
// getting a fresh record.
func (s *Server) lookupSession(r *http.Request) *session.Session {
	cookie, err := r.Cookie(s.cfg.Session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	sess, err := s.sessions.Get(cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Error("session lookup failed", "error", err)
		}
		return nil
	}

	return sess
}
