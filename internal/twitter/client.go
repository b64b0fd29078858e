// Package twitter is a minimal client for the Twitter v2 API calls this
// service makes on the visitor's behalf.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client issues delegated calls using a visitor's access token.
// It holds no token itself; every call takes the token for the one visitor
// it acts for.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given API base URL.
// Pass the provider's proxy-aware HTTP client so API traffic takes the same
// outbound route as the token exchange; a nil httpClient falls back to the
// default client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// User is the authenticated user's identity as returned by the API.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// FollowResult reports the outcome of a follow request.
type FollowResult struct {
	// Following is true when the follow edge now exists
	Following bool `json:"following"`

	// PendingFollow is true when the target account is protected and the
	// follow awaits approval
	PendingFollow bool `json:"pending_follow"`
}

// APIError is a rejection from the Twitter API, with the provider's own
// wording preserved. A 403 here can mean a product-tier limitation rather
// than a bug, so callers surface Title and Detail verbatim.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Title == "" && e.Detail == "" {
		return fmt.Sprintf("twitter api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("twitter api: %s (%s)", e.Title, e.Detail)
}

// UsersMe fetches the authenticated user's id, name, and handle.
func (c *Client) UsersMe(ctx context.Context, accessToken string) (*User, error) {
	var resp struct {
		Data User `json:"data"`
	}

	err := c.do(ctx, accessToken, http.MethodGet, "/2/users/me", nil, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Data.ID == "" {
		return nil, fmt.Errorf("twitter api: identity response missing user id")
	}

	return &resp.Data, nil
}

// Follow requests creation of a follow edge from sourceID to targetID.
func (c *Client) Follow(ctx context.Context, accessToken, sourceID, targetID string) (*FollowResult, error) {
	body := map[string]string{
		"target_user_id": targetID,
	}

	var resp struct {
		Data FollowResult `json:"data"`
	}

	path := fmt.Sprintf("/2/users/%s/following", sourceID)
	if err := c.do(ctx, accessToken, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	return &resp.Data, nil
}

// do issues one authenticated API request and decodes the response into out.
// Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, accessToken, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twitter api request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode twitter api response: %w", err)
		}
	}

	return nil
}

// decodeAPIError extracts the error shape the v2 API uses
// ({"title": ..., "detail": ...}); an undecodable body still yields an
// APIError carrying the status code.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var parsed struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		apiErr.Title = parsed.Title
		apiErr.Detail = parsed.Detail
	}

	return apiErr
}
