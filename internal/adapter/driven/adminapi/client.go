// Package adminapi implements the AdminAPI port against the privileged
// backend collaborator. Enumerating and deleting identity-service accounts
// requires elevated access the core process does not hold; this client only
// issues the requests and interprets the results.
package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AdminAPI = (*Client)(nil)

// DefaultTimeout bounds the orphan-cleanup call; the backend enumerates
// every synthesized account, which takes tens of seconds on large stores.
const DefaultTimeout = 30 * time.Second

// Client implements the driven.AdminAPI port over the backend's REST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	protectedEmail string
	timeout        time.Duration
}

// NewClient creates a Client. protectedEmail names the administrative
// account that must never be deleted; it is sent with every cleanup request
// and additionally filtered from reported deletions.
func NewClient(baseURL, protectedEmail string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient:     &http.Client{},
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		protectedEmail: protectedEmail,
		timeout:        timeout,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// Intended for testing with an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, protectedEmail string, timeout time.Duration) *Client {
	c := NewClient(baseURL, protectedEmail, timeout)
	c.httpClient = httpClient
	return c
}

type cleanupRequest struct {
	ProtectedEmail string `json:"protected_email"`
}

type cleanupResponse struct {
	Deleted         int               `json:"deleted"`
	DeletedAccounts []string          `json:"deleted_accounts"`
	Errors          []model.SyncError `json:"errors"`
}

// CleanupOrphanAccounts asks the backend to delete every identity-service
// account with no matching credential record. Timeouts and connection
// failures map to driven.ErrRemoteUnavailable so callers degrade instead of
// hanging or crashing.
func (c *Client) CleanupOrphanAccounts(ctx context.Context) (model.CleanupSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(cleanupRequest{ProtectedEmail: c.protectedEmail})
	if err != nil {
		return model.CleanupSummary{}, fmt.Errorf("marshal cleanup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cleanup-orphan-accounts", bytes.NewReader(payload))
	if err != nil {
		return model.CleanupSummary{}, fmt.Errorf("build cleanup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.CleanupSummary{}, fmt.Errorf("cleanup orphan accounts: %w: %v", driven.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.CleanupSummary{}, fmt.Errorf("cleanup orphan accounts: unexpected status %d", resp.StatusCode)
	}

	var body cleanupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.CleanupSummary{}, fmt.Errorf("decode cleanup response: %w", err)
	}

	summary := model.CleanupSummary{Deleted: body.Deleted, Errors: body.Errors}

	// The backend must never delete the protected account; if it reports
	// having done so anyway, drop it from the summary and raise an alarm.
	for _, email := range body.DeletedAccounts {
		if c.protectedEmail != "" && strings.EqualFold(email, c.protectedEmail) {
			summary.Deleted--
			slog.Error("backend reported protected account as deleted", "email", email)
		}
	}
	if summary.Deleted < 0 {
		summary.Deleted = 0
	}

	return summary, nil
}

// DeleteAccount deletes a single identity-service account by external id.
// Used best-effort after a credential record is removed locally.
func (c *Client) DeleteAccount(ctx context.Context, externalID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/accounts/"+externalID, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("delete account %s: %w", externalID, driven.ErrRemoteUnavailable)
		}
		return fmt.Errorf("delete account %s: %w: %v", externalID, driven.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete account %s: unexpected status %d", externalID, resp.StatusCode)
	}
	return nil
}
