// Package httpserver exposes the login flow and the delegated actions over HTTP.
package httpserver

import (
	"context"
	"crypto/tls"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/al-bashkir/twitter-pkce-login/internal/config"
	"github.com/al-bashkir/twitter-pkce-login/internal/oauthflow"
	"github.com/al-bashkir/twitter-pkce-login/internal/session"
	"github.com/al-bashkir/twitter-pkce-login/internal/twitter"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server is the HTTP server for the login flow and delegated actions
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	mux        *http.ServeMux
	templates  *template.Template
	provider   *oauthflow.Provider
	sessions   session.Store
	api        *twitter.Client
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, provider *oauthflow.Provider, sessions session.Store, api *twitter.Client) (*Server, error) {
	// Parse templates
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		templates: templates,
		provider:  provider,
		sessions:  sessions,
		api:       api,
	}

	// Register routes
	s.mux.HandleFunc("/{$}", s.handleStatus)
	s.mux.HandleFunc("/twitter-login", s.handleLogin)
	s.mux.HandleFunc("/callback", s.handleCallback)
	s.mux.HandleFunc("/logout", s.handleLogout)
	s.mux.HandleFunc("/me", s.handleMe)
	s.mux.HandleFunc("/follow", s.handleFollow)
	s.mux.HandleFunc("/health", s.handleHealth)

	// Wrap with middleware
	handler := loggingMiddleware(s.mux)
	handler = recoveryMiddleware(handler)
	handler = rateLimitMiddleware(handler)
	handler = securityHeadersMiddleware(handler)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         cfg.Listen.HTTP,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Configure TLS if enabled
	if cfg.TLS.Enabled {
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting HTTP server",
		"addr", s.cfg.Listen.HTTP,
		"tls", s.cfg.TLS.Enabled,
	)

	if s.cfg.TLS.Enabled {
		return s.httpServer.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
