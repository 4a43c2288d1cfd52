// Package auth provides the REST client for the backend authentication
// service: anonymous sign-in, token sign-in, and the principal-change
// subscription that is the sole source of identity updates for a session.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"admissions-intake/internal/common/errors"
)

// Principal is the authenticated principal reported by the auth service. The
// opaque ID is the only part the rest of the service consumes.
type Principal struct {
	ID        string `json:"id"`
	Anonymous bool   `json:"anonymous"`
}

// TokenResponse holds the response from the auth service's token endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	PrincipalID string `json:"principal_id"`
	Anonymous   bool   `json:"anonymous"`
}

type signInMode int

const (
	modeNone signInMode = iota
	modeAnonymous
	modeToken
)

// Client talks to the backend auth service over HTTP. One Client serves one
// session; the principal it holds is last-write-wins.
type Client struct {
	baseURL    string
	tenant     string
	apiKey     string
	apiSecret  string
	httpClient *http.Client

	refreshMargin time.Duration

	mu           sync.Mutex
	accessToken  string
	tokenExpiry  time.Time
	principal    *Principal
	lastMode     signInMode
	lastToken    string
	subscribers  []*Subscription
	refreshTimer *time.Timer
	closed       bool
}

// NewClient creates a new auth service client.
func NewClient(baseURL, tenant, apiKey, apiSecret string, refreshMargin time.Duration) *Client {
	if refreshMargin <= 0 {
		refreshMargin = 30 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		tenant:        tenant,
		apiKey:        apiKey,
		apiSecret:     apiSecret,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		refreshMargin: refreshMargin,
	}
}

// SignInAnonymously obtains an anonymous principal from the auth service and
// notifies subscribers of the new principal.
func (c *Client) SignInAnonymously(ctx context.Context) (*Principal, error) {
	data := url.Values{}
	data.Set("grant_type", "anonymous")
	data.Set("api_key", c.apiKey)
	data.Set("api_secret", c.apiSecret)

	return c.signIn(ctx, data, modeAnonymous, "")
}

// SignInWithToken exchanges a pre-issued credential token for a principal and
// notifies subscribers of the new principal.
func (c *Client) SignInWithToken(ctx context.Context, token string) (*Principal, error) {
	data := url.Values{}
	data.Set("grant_type", "token")
	data.Set("api_key", c.apiKey)
	data.Set("api_secret", c.apiSecret)
	data.Set("token", token)

	return c.signIn(ctx, data, modeToken, token)
}

func (c *Client) signIn(ctx context.Context, data url.Values, mode signInMode, token string) (*Principal, error) {
	tokenURL := fmt.Sprintf("%s/tenants/%s/auth/token", c.baseURL, c.tenant)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "HTTP_REQUEST_ERROR",
			Message:   "Failed to create sign-in request",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "NETWORK_ERROR",
			Message:   "Failed to reach auth service",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &errors.StandardError{
			Code:      "AUTH_API_ERROR",
			Message:   "Auth service rejected sign-in",
			Details:   strings.TrimSpace(string(body)),
			Retryable: isTransientHTTPError(resp.StatusCode),
			Timestamp: time.Now().UTC(),
		}
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, &errors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "Failed to decode sign-in response",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	principal := &Principal{
		ID:        tokenResp.PrincipalID,
		Anonymous: tokenResp.Anonymous,
	}

	c.mu.Lock()
	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	c.principal = principal
	c.lastMode = mode
	c.lastToken = token
	c.scheduleRefreshLocked(time.Duration(tokenResp.ExpiresIn) * time.Second)
	subs := c.snapshotSubscribersLocked()
	c.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(principal)
	}

	return principal, nil
}

// scheduleRefreshLocked arms a one-shot re-sign-in shortly before token
// expiry so the backend can signal a refreshed principal. Caller holds c.mu.
func (c *Client) scheduleRefreshLocked(expiresIn time.Duration) {
	if c.closed {
		return
	}
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}

	delay := expiresIn - c.refreshMargin
	if delay < time.Second {
		delay = time.Second
	}
	c.refreshTimer = time.AfterFunc(delay, c.refresh)
}

// refresh re-runs the last sign-in mode. Success re-enters ready on every
// subscriber; failure stops the refresh chain (recoverable only by restart).
func (c *Client) refresh() {
	c.mu.Lock()
	mode := c.lastMode
	token := c.lastToken
	closed := c.closed
	c.mu.Unlock()

	if closed || mode == modeNone {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch mode {
	case modeToken:
		_, err = c.SignInWithToken(ctx, token)
	default:
		_, err = c.SignInAnonymously(ctx)
	}
	_ = err // a failed refresh leaves the last principal in place
}

// Principal returns the current principal, or nil before sign-in completes.
func (c *Client) Principal() *Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal
}

// Close tears the client down: the refresh chain stops and no subscriber
// callback fires afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	subs := c.subscribers
	c.subscribers = nil
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
