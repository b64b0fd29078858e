// Package oauthflow implements the server side of an OAuth2 Authorization
// Code flow with PKCE: secret generation, authorization link construction,
// callback verification, and the code-for-token exchange.
package oauthflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/al-bashkir/twitter-pkce-login/internal/config"
)

// Provider wraps the OAuth2 configuration for one remote authorization
// server. Endpoints come either from OIDC discovery (when an issuer is
// configured) or from statically configured authorize/token URLs, which is
// the mode used for Twitter.
type Provider struct {
	oauth2Config *oauth2.Config
	httpClient   *http.Client
}

// NewProvider creates a provider from the application configuration.
// When cfg.Provider.Issuer is set, endpoints are discovered via
// /.well-known/openid-configuration; otherwise the static endpoints are used.
// The returned provider routes all outbound calls through the configured
// proxy, if any.
func NewProvider(ctx context.Context, cfg *config.Config) (*Provider, error) {
	httpClient, err := newHTTPClient(&cfg.HTTP)
	if err != nil {
		return nil, err
	}

	var endpoint oauth2.Endpoint
	if cfg.Provider.Issuer != "" {
		// Discovery needs our proxy-aware client too
		discoveryCtx := oidc.ClientContext(ctx, httpClient)
		oidcProvider, err := oidc.NewProvider(discoveryCtx, cfg.Provider.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to discover provider endpoints: %w", err)
		}
		endpoint = oidcProvider.Endpoint()
	} else {
		endpoint = oauth2.Endpoint{
			AuthURL:   cfg.Provider.AuthorizeURL,
			TokenURL:  cfg.Provider.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		}
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
		RedirectURL:  cfg.Provider.RedirectURI,
		Endpoint:     endpoint,
		Scopes:       cfg.Provider.Scopes,
	}

	return &Provider{
		oauth2Config: oauth2Config,
		httpClient:   httpClient,
	}, nil
}

// HTTPClient returns the proxy-aware client used for provider calls.
// The delegated API client shares it so all outbound traffic takes the
// same route.
func (p *Provider) HTTPClient() *http.Client {
	return p.httpClient
}

// newHTTPClient builds the outbound HTTP client, honoring the configured
// proxy. With no proxy configured the default transport (which itself honors
// proxy environment variables) is used.
func newHTTPClient(cfg *config.HTTPConfig) (*http.Client, error) {
	if cfg == nil || cfg.ProxyURL == "" {
		return http.DefaultClient, nil
	}

	proxyURL, err := url.Parse(cfg.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy URL: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(proxyURL)

	return &http.Client{Transport: transport}, nil
}
