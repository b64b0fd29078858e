package oauthflow

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/oauth2"
)

// AuthFlowData contains the data needed to initiate an authorization flow.
type AuthFlowData struct {
	// State is the anti-CSRF state parameter, round-tripped through the
	// provider redirect
	State string

	// CodeVerifier is the PKCE code verifier (must be stored for token exchange)
	CodeVerifier string

	// AuthURL is the complete authorization URL to redirect the visitor to
	AuthURL string
}

// TokenBundle contains the tokens returned by the provider's token endpoint.
// The tokens are opaque to this service beyond passing AccessToken to
// delegated API calls.
type TokenBundle struct {
	// AccessToken is the OAuth2 access token; tagged json:"-" so it can
	// never leak through an encoded response body.
	AccessToken string `json:"-"`

	// RefreshToken is the OAuth2 refresh token (present only when the
	// offline.access scope was granted)
	RefreshToken string `json:"-"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64
}

// StartAuthFlow initiates an authorization flow with PKCE.
// It generates a fresh PKCE verifier/challenge and state parameter and
// constructs the authorization URL. No state is stored here; the caller
// binds the result to the visitor's session.
func (p *Provider) StartAuthFlow(ctx context.Context) (*AuthFlowData, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	challenge := generateCodeChallenge(verifier)

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	authURL := p.oauth2Config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	return &AuthFlowData{
		State:        state,
		CodeVerifier: verifier,
		AuthURL:      authURL,
	}, nil
}

// ExchangeCode exchanges an authorization code for tokens, presenting the
// PKCE code verifier so the provider can revalidate the challenge relation.
// Callers must only reach this after VerifyCallback succeeds. Remote
// rejection (invalid or reused code, verifier mismatch, network failure) is
// returned as an *ExchangeError.
func (p *Provider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenBundle, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth2Config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}

	var expiresIn int64
	if v, ok := token.Extra("expires_in").(float64); ok {
		expiresIn = int64(v)
	}

	return &TokenBundle{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// generateCodeVerifier creates a cryptographically random PKCE code verifier.
// The verifier is 32 random bytes encoded as base64url (43 characters).
// Per RFC 7636, the verifier must be 43-128 characters.
func generateCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// generateCodeChallenge creates a PKCE code challenge from the verifier.
// It uses the S256 method: BASE64URL(SHA256(ASCII(verifier)))
func generateCodeChallenge(verifier string) string {
	h := sha256.New()
	h.Write([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// generateState creates a random state parameter for CSRF protection.
// The state is 16 random bytes encoded as hex (32 characters).
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
