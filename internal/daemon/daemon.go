// Package daemon wires the service components together and manages their lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/al-bashkir/twitter-pkce-login/internal/config"
	"github.com/al-bashkir/twitter-pkce-login/internal/httpserver"
	"github.com/al-bashkir/twitter-pkce-login/internal/oauthflow"
	"github.com/al-bashkir/twitter-pkce-login/internal/session"
	"github.com/al-bashkir/twitter-pkce-login/internal/twitter"
)

// Daemon represents the main service process that coordinates all components.
type Daemon struct {
	cfg        *config.Config
	provider   *oauthflow.Provider
	sessionMgr *session.Manager
	httpServer *httpserver.Server
}

// New creates a new daemon with all components initialized.
func New(cfg *config.Config) (*Daemon, error) {
	// Initialize the OAuth2 provider (discovery, when configured, needs a deadline)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, err := oauthflow.NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OAuth2 provider: %w", err)
	}

	slog.Info("OAuth2 provider initialized",
		"client_id", cfg.Provider.ClientID,
		"redirect_uri", cfg.Provider.RedirectURI,
		"scopes", cfg.Provider.Scopes,
	)

	// Initialize session manager
	sessionTimeout := time.Duration(cfg.Session.Timeout) * time.Second
	sessionMgr := session.NewManager(sessionTimeout)

	slog.Info("session manager initialized",
		"timeout", sessionTimeout,
	)

	// The delegated API client shares the provider's outbound HTTP client
	apiClient := twitter.NewClient(cfg.Twitter.APIBaseURL, provider.HTTPClient())

	// Initialize HTTP server
	httpServer, err := httpserver.NewServer(cfg, provider, sessionMgr, apiClient)
	if err != nil {
		sessionMgr.Stop()
		return nil, fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	slog.Info("HTTP server initialized",
		"listen", cfg.Listen.HTTP,
		"tls", cfg.TLS.Enabled,
	)

	return &Daemon{
		cfg:        cfg,
		provider:   provider,
		sessionMgr: sessionMgr,
		httpServer: httpServer,
	}, nil
}

// Run starts the daemon and blocks until a shutdown signal is received.
func (d *Daemon) Run() error {
	slog.Info("starting twitter login service")

	// Start HTTP server in a goroutine (it blocks on ListenAndServe)
	httpErrCh := make(chan error, 1)
	go func() {
		if err := d.httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrCh <- err
		}
		close(httpErrCh)
	}()

	// Wait for shutdown signal or startup error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-httpErrCh:
		if err != nil {
			slog.Error("HTTP server failed to start", "error", err)
			d.sessionMgr.Stop()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	// Shutdown gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("error stopping HTTP server", "error", err)
	}

	d.sessionMgr.Stop()

	slog.Info("service shutdown complete")
	return nil
}
