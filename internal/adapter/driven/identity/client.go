// Package identity implements the IdentityProvider port against the
// external email/password identity service's REST API.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityProvider = (*Client)(nil)

// Client implements the driven.IdentityProvider port.
//
// The service's account-creation endpoint returns a session for the newly
// created account, and the service SDKs make that the active caller. The
// client reproduces that behavior faithfully so the engine's
// capture/restore discipline is exercised against the real hazard.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu      sync.Mutex
	session model.Session
}

// NewClient creates a Client for the given identity service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Email string `json:"email"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SignIn authenticates with email and password and makes the resulting
// session the current caller.
func (c *Client) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	var resp sessionResponse
	status, err := c.postJSON(ctx, "/v1/sessions", credentialsBody{Email: email, Password: password}, &resp)
	if err != nil {
		return model.Session{}, fmt.Errorf("sign in %q: %w", email, err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return model.Session{}, fmt.Errorf("sign in %q: unexpected status %d", email, status)
	}

	session := model.Session{Token: resp.Token, AccountEmail: email}
	c.setSession(session)
	return session, nil
}

// CreateAccount creates an email/password account and returns its external
// id. A 409 from the service maps to driven.ErrDuplicateAccount. On success
// the current caller switches to the new account's session; callers must
// Restore the administrative session afterwards.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (string, error) {
	var resp sessionResponse
	status, err := c.postJSON(ctx, "/v1/accounts", credentialsBody{Email: email, Password: password}, &resp)
	if err != nil {
		return "", fmt.Errorf("create account %q: %w", email, err)
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		if resp.Token != "" {
			c.setSession(model.Session{Token: resp.Token, AccountEmail: email})
		}
		return resp.ID, nil
	case http.StatusConflict:
		return "", driven.ErrDuplicateAccount
	default:
		return "", fmt.Errorf("create account %q: unexpected status %d", email, status)
	}
}

// CurrentSession returns the session of the current caller.
func (c *Client) CurrentSession() model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Restore re-establishes the given session as the current caller after
// verifying the token is still accepted by the service.
func (c *Client) Restore(ctx context.Context, s model.Session) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/me", nil)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("restore session for %q: token rejected with status %d", s.AccountEmail, resp.StatusCode)
	}

	c.setSession(s)
	return nil
}

func (c *Client) setSession(s model.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// postJSON sends an authenticated JSON POST and decodes a 2xx body into out.
// Non-2xx statuses are returned to the caller for mapping; the service's
// error message is folded into the returned error only for 5xx.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.CurrentSession().Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= 500 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return resp.StatusCode, fmt.Errorf("service error: %s", errResp.Error)
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
