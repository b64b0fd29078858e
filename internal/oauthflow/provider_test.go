package oauthflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/al-bashkir/twitter-pkce-login/internal/config"
)

func newTestIssuer(t *testing.T) string {
	t.Helper()

	var baseURL string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.well-known/openid-configuration":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"issuer":                 baseURL,
				"authorization_endpoint": baseURL + "/authorize",
				"token_endpoint":         baseURL + "/token",
				"jwks_uri":               baseURL + "/keys",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	baseURL = ts.URL
	t.Cleanup(ts.Close)

	return baseURL
}

func TestNewProviderStaticEndpoints(t *testing.T) {
	cfg := &config.Config{
		Provider: config.ProviderConfig{
			AuthorizeURL: "https://twitter.com/i/oauth2/authorize",
			TokenURL:     "https://api.twitter.com/2/oauth2/token",
			ClientID:     "client",
			RedirectURI:  "http://localhost:3000/callback",
			Scopes:       []string{"tweet.read"},
		},
	}

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	flow, err := p.StartAuthFlow(context.Background())
	if err != nil {
		t.Fatalf("StartAuthFlow failed: %v", err)
	}
	if !strings.HasPrefix(flow.AuthURL, "https://twitter.com/i/oauth2/authorize") {
		t.Errorf("auth URL = %q, want the configured authorize endpoint", flow.AuthURL)
	}
}

func TestNewProviderDiscovery(t *testing.T) {
	issuer := newTestIssuer(t)

	cfg := &config.Config{
		Provider: config.ProviderConfig{
			Issuer:      issuer,
			ClientID:    "client",
			RedirectURI: "http://localhost:3000/callback",
			Scopes:      []string{"openid"},
		},
	}

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	flow, err := p.StartAuthFlow(context.Background())
	if err != nil {
		t.Fatalf("StartAuthFlow failed: %v", err)
	}
	if !strings.HasPrefix(flow.AuthURL, issuer+"/authorize") {
		t.Errorf("auth URL = %q, want the discovered authorize endpoint", flow.AuthURL)
	}
}

func TestNewProviderDiscoveryFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer ts.Close()

	cfg := &config.Config{
		Provider: config.ProviderConfig{
			Issuer:      ts.URL,
			ClientID:    "client",
			RedirectURI: "http://localhost:3000/callback",
			Scopes:      []string{"openid"},
		},
	}

	if _, err := NewProvider(context.Background(), cfg); err == nil {
		t.Error("expected error for issuer without discovery document")
	}
}

func TestNewProviderProxy(t *testing.T) {
	t.Run("configured proxy", func(t *testing.T) {
		cfg := &config.Config{
			Provider: config.ProviderConfig{
				AuthorizeURL: "https://provider.example.com/authorize",
				TokenURL:     "https://provider.example.com/token",
				ClientID:     "client",
				RedirectURI:  "http://localhost:3000/callback",
				Scopes:       []string{"tweet.read"},
			},
			HTTP: config.HTTPConfig{
				ProxyURL: "http://proxy.example.com:8080",
			},
		}

		p, err := NewProvider(context.Background(), cfg)
		if err != nil {
			t.Fatalf("NewProvider failed: %v", err)
		}
		if p.HTTPClient() == http.DefaultClient {
			t.Error("expected a dedicated client when a proxy is configured")
		}
	})

	t.Run("no proxy uses default client", func(t *testing.T) {
		cfg := &config.Config{
			Provider: config.ProviderConfig{
				AuthorizeURL: "https://provider.example.com/authorize",
				TokenURL:     "https://provider.example.com/token",
				ClientID:     "client",
				RedirectURI:  "http://localhost:3000/callback",
				Scopes:       []string{"tweet.read"},
			},
		}

		p, err := NewProvider(context.Background(), cfg)
		if err != nil {
			t.Fatalf("NewProvider failed: %v", err)
		}
		if p.HTTPClient() != http.DefaultClient {
			t.Error("expected the default client without a proxy")
		}
	})

	t.Run("invalid proxy URL", func(t *testing.T) {
		cfg := &config.Config{
			Provider: config.ProviderConfig{
				AuthorizeURL: "https://provider.example.com/authorize",
				TokenURL:     "https://provider.example.com/token",
				ClientID:     "client",
				RedirectURI:  "http://localhost:3000/callback",
				Scopes:       []string{"tweet.read"},
			},
			HTTP: config.HTTPConfig{
				ProxyURL: "http://proxy example com\x00",
			},
		}

		if _, err := NewProvider(context.Background(), cfg); err == nil {
			t.Error("expected error for invalid proxy URL")
		}
	})
}
