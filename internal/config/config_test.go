package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const validConfig = `
listen:
  http: ":3000"
provider:
  client_id: "test-client"
  client_secret: "test-secret"
  redirect_uri: "http://localhost:3000/callback"
twitter:
  follow_target_id: "12345"
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider.ClientID != "test-client" {
		t.Errorf("ClientID = %q", cfg.Provider.ClientID)
	}
	if cfg.Twitter.FollowTargetID != "12345" {
		t.Errorf("FollowTargetID = %q", cfg.Twitter.FollowTargetID)
	}

	// Defaults fill what the file omits
	if cfg.Provider.AuthorizeURL != "https://twitter.com/i/oauth2/authorize" {
		t.Errorf("AuthorizeURL default = %q", cfg.Provider.AuthorizeURL)
	}
	if cfg.Provider.TokenURL != "https://api.twitter.com/2/oauth2/token" {
		t.Errorf("TokenURL default = %q", cfg.Provider.TokenURL)
	}
	if len(cfg.Provider.Scopes) == 0 {
		t.Error("expected default scopes")
	}
	if cfg.Session.Timeout != 1800 {
		t.Errorf("Session.Timeout default = %d", cfg.Session.Timeout)
	}
	if cfg.Session.CookieName != "session" {
		t.Errorf("Session.CookieName default = %q", cfg.Session.CookieName)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "provider: [not a map")

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Provider.ClientID = "client"
		cfg.Provider.RedirectURI = "http://localhost:3000/callback"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.Provider.ClientID = "" },
			wantErr: "client_id",
		},
		{
			name:    "missing redirect uri",
			mutate:  func(c *Config) { c.Provider.RedirectURI = "" },
			wantErr: "redirect_uri",
		},
		{
			name:    "redirect uri not a URL",
			mutate:  func(c *Config) { c.Provider.RedirectURI = "localhost/callback" },
			wantErr: "redirect_uri",
		},
		{
			name: "missing endpoints without issuer",
			mutate: func(c *Config) {
				c.Provider.AuthorizeURL = ""
				c.Provider.TokenURL = ""
			},
			wantErr: "authorize_url",
		},
		{
			name: "issuer replaces static endpoints",
			mutate: func(c *Config) {
				c.Provider.Issuer = "https://issuer.example.com"
				c.Provider.AuthorizeURL = ""
				c.Provider.TokenURL = ""
			},
		},
		{
			name:    "invalid issuer",
			mutate:  func(c *Config) { c.Provider.Issuer = "issuer.example.com" },
			wantErr: "issuer",
		},
		{
			name:    "empty scope set",
			mutate:  func(c *Config) { c.Provider.Scopes = nil },
			wantErr: "scopes",
		},
		{
			name:    "blank scope entry",
			mutate:  func(c *Config) { c.Provider.Scopes = []string{"tweet.read", " "} },
			wantErr: "scopes",
		},
		{
			name:    "missing api base url",
			mutate:  func(c *Config) { c.Twitter.APIBaseURL = "" },
			wantErr: "api_base_url",
		},
		{
			name:    "non-positive session timeout",
			mutate:  func(c *Config) { c.Session.Timeout = 0 },
			wantErr: "session.timeout",
		},
		{
			name:    "oversized session timeout",
			mutate:  func(c *Config) { c.Session.Timeout = 100000 },
			wantErr: "session.timeout",
		},
		{
			name:    "empty cookie name",
			mutate:  func(c *Config) { c.Session.CookieName = "" },
			wantErr: "cookie_name",
		},
		{
			name:    "tls enabled without files",
			mutate:  func(c *Config) { c.TLS.Enabled = true },
			wantErr: "tls",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "missing listen address",
			mutate:  func(c *Config) { c.Listen.HTTP = "" },
			wantErr: "listen.http",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, validConfig)

	t.Setenv("TPL_PROVIDER_CLIENT_ID", "env-client")
	t.Setenv("TPL_PROVIDER_CLIENT_SECRET", "env-secret")
	t.Setenv("TPL_TWITTER_FOLLOW_TARGET_ID", "env-target")
	t.Setenv("TPL_LOG_LEVEL", "debug")
	t.Setenv("TPL_LISTEN_HTTP", ":8080")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider.ClientID != "env-client" {
		t.Errorf("ClientID = %q, want env-client", cfg.Provider.ClientID)
	}
	if cfg.Provider.ClientSecret != "env-secret" {
		t.Errorf("ClientSecret = %q, want env-secret", cfg.Provider.ClientSecret)
	}
	if cfg.Twitter.FollowTargetID != "env-target" {
		t.Errorf("FollowTargetID = %q, want env-target", cfg.Twitter.FollowTargetID)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Listen.HTTP != ":8080" {
		t.Errorf("Listen.HTTP = %q, want :8080", cfg.Listen.HTTP)
	}
}

func TestRedact(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider.ClientID = "client"
	cfg.Provider.ClientSecret = "super-secret"

	redacted := cfg.Redact()

	if redacted.Provider.ClientSecret != "[REDACTED]" {
		t.Errorf("redacted secret = %q", redacted.Provider.ClientSecret)
	}
	if cfg.Provider.ClientSecret != "super-secret" {
		t.Error("original config was modified")
	}

	// Scope slice must be a copy, not shared
	redacted.Provider.Scopes[0] = "tampered"
	if cfg.Provider.Scopes[0] == "tampered" {
		t.Error("redacted config shares the scopes slice with the original")
	}
}

func TestRedactEmptySecret(t *testing.T) {
	cfg := DefaultConfig()

	redacted := cfg.Redact()
	if redacted.Provider.ClientSecret != "" {
		t.Errorf("redacted empty secret = %q, want empty", redacted.Provider.ClientSecret)
	}
}
