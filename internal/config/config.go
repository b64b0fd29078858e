// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	Provider ProviderConfig `yaml:"provider"`
	Twitter  TwitterConfig  `yaml:"twitter"`
	HTTP     HTTPConfig     `yaml:"http"`
	Session  SessionConfig  `yaml:"session"`
	TLS      TLSConfig      `yaml:"tls"`
	Log      LogConfig      `yaml:"log"`
}

// ListenConfig defines where the service listens for requests
type ListenConfig struct {
	HTTP string `yaml:"http"` // HTTP server address (e.g., ":3000")
}

// ProviderConfig defines the OAuth2 provider settings.
// Either Issuer (OIDC discovery) or both AuthorizeURL and TokenURL
// (static endpoints, used for Twitter) must be set.
type ProviderConfig struct {
	Issuer       string   `yaml:"issuer"`        // OIDC issuer URL (optional, enables discovery)
	AuthorizeURL string   `yaml:"authorize_url"` // Authorization endpoint
	TokenURL     string   `yaml:"token_url"`     // Token endpoint
	ClientID     string   `yaml:"client_id"`     // OAuth2 client ID
	ClientSecret string   `yaml:"client_secret"` // OAuth2 client secret (empty for public clients)
	RedirectURI  string   `yaml:"redirect_uri"`  // Callback URL
	Scopes       []string `yaml:"scopes"`        // Requested scopes
}

// TwitterConfig defines settings for delegated Twitter API calls
type TwitterConfig struct {
	APIBaseURL     string `yaml:"api_base_url"`     // Twitter API base URL
	FollowTargetID string `yaml:"follow_target_id"` // User ID the /follow action targets
}

// HTTPConfig defines outbound HTTP behavior
type HTTPConfig struct {
	ProxyURL string `yaml:"proxy_url"` // Optional proxy for outbound provider/API calls
}

// SessionConfig defines visitor session behavior
type SessionConfig struct {
	Timeout    int    `yaml:"timeout"`     // Session timeout in seconds
	CookieName string `yaml:"cookie_name"` // Name of the session ID cookie
}

// TLSConfig defines TLS settings for the HTTP server
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LogConfig defines logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
// Provider endpoints and scopes default to Twitter's OAuth2 surface,
// matching the delegated API client.
func DefaultConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			HTTP: ":3000",
		},
		Provider: ProviderConfig{
			AuthorizeURL: "https://twitter.com/i/oauth2/authorize",
			TokenURL:     "https://api.twitter.com/2/oauth2/token",
			Scopes: []string{
				"tweet.read",
				"users.read",
				"follows.read",
				"follows.write",
				"offline.access",
			},
		},
		Twitter: TwitterConfig{
			APIBaseURL: "https://api.twitter.com",
		},
		Session: SessionConfig{
			Timeout:    1800, // 30 minutes
			CookieName: "session",
		},
		TLS: TLSConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	// Provider overrides
	if v := os.Getenv("TPL_PROVIDER_ISSUER"); v != "" {
		c.Provider.Issuer = v
	}
	if v := os.Getenv("TPL_PROVIDER_CLIENT_ID"); v != "" {
		c.Provider.ClientID = v
	}
	if v := os.Getenv("TPL_PROVIDER_CLIENT_SECRET"); v != "" {
		c.Provider.ClientSecret = v
	}
	if v := os.Getenv("TPL_PROVIDER_REDIRECT_URI"); v != "" {
		c.Provider.RedirectURI = v
	}

	// Twitter overrides
	if v := os.Getenv("TPL_TWITTER_FOLLOW_TARGET_ID"); v != "" {
		c.Twitter.FollowTargetID = v
	}

	// Outbound proxy, matching the conventional variable name
	if v := os.Getenv("HTTP_PROXY"); v != "" && c.HTTP.ProxyURL == "" {
		c.HTTP.ProxyURL = v
	}

	// Log overrides
	if v := os.Getenv("TPL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TPL_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}

	// Listen overrides
	if v := os.Getenv("TPL_LISTEN_HTTP"); v != "" {
		c.Listen.HTTP = v
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Validate provider config
	if c.Provider.ClientID == "" {
		return fmt.Errorf("provider.client_id is required")
	}

	if c.Provider.RedirectURI == "" {
		return fmt.Errorf("provider.redirect_uri is required")
	}
	if !isHTTPURL(c.Provider.RedirectURI) {
		return fmt.Errorf("provider.redirect_uri must be a valid HTTP(S) URL")
	}

	if c.Provider.Issuer != "" {
		if !isHTTPURL(c.Provider.Issuer) {
			return fmt.Errorf("provider.issuer must be a valid HTTP(S) URL")
		}
	} else {
		if c.Provider.AuthorizeURL == "" || c.Provider.TokenURL == "" {
			return fmt.Errorf("provider.authorize_url and provider.token_url are required when provider.issuer is not set")
		}
		if !isHTTPURL(c.Provider.AuthorizeURL) {
			return fmt.Errorf("provider.authorize_url must be a valid HTTP(S) URL")
		}
		if !isHTTPURL(c.Provider.TokenURL) {
			return fmt.Errorf("provider.token_url must be a valid HTTP(S) URL")
		}
	}

	// An empty scope set is a configuration error, caught here before any
	// authorization link is ever built.
	if len(c.Provider.Scopes) == 0 {
		return fmt.Errorf("provider.scopes must contain at least one scope")
	}
	for _, scope := range c.Provider.Scopes {
		if strings.TrimSpace(scope) == "" {
			return fmt.Errorf("provider.scopes must not contain empty entries")
		}
	}

	// Validate Twitter config
	if c.Twitter.APIBaseURL == "" {
		return fmt.Errorf("twitter.api_base_url is required")
	}
	if !isHTTPURL(c.Twitter.APIBaseURL) {
		return fmt.Errorf("twitter.api_base_url must be a valid HTTP(S) URL")
	}

	// Validate outbound proxy
	if c.HTTP.ProxyURL != "" {
		if _, err := url.Parse(c.HTTP.ProxyURL); err != nil {
			return fmt.Errorf("http.proxy_url is not a valid URL: %w", err)
		}
	}

	// Validate session config
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("session.timeout must be positive")
	}
	if c.Session.Timeout > 86400 {
		return fmt.Errorf("session.timeout should not exceed 86400 seconds (24 hours)")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}

	// Validate TLS config
	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("tls.cert_file and tls.key_file are required when TLS is enabled")
		}

		if _, err := os.Stat(c.TLS.CertFile); err != nil {
			return fmt.Errorf("tls.cert_file not found: %w", err)
		}
		if _, err := os.Stat(c.TLS.KeyFile); err != nil {
			return fmt.Errorf("tls.key_file not found: %w", err)
		}
	}

	// Validate log config
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format must be one of: json, text")
	}

	// Validate listen config
	if c.Listen.HTTP == "" {
		return fmt.Errorf("listen.http is required")
	}

	return nil
}

// isHTTPURL reports whether s looks like an absolute http(s) URL.
func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SetupLogging configures the global slog logger based on the LogConfig.
func SetupLogging(cfg *LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// Redact returns a deep-enough copy of the config with secrets redacted for safe logging
func (c *Config) Redact() *Config {
	redacted := *c
	// Deep copy slices to avoid sharing underlying arrays with the original
	if c.Provider.Scopes != nil {
		redacted.Provider.Scopes = make([]string, len(c.Provider.Scopes))
		copy(redacted.Provider.Scopes, c.Provider.Scopes)
	}
	if redacted.Provider.ClientSecret != "" {
		redacted.Provider.ClientSecret = "[REDACTED]"
	}
	return &redacted
}
