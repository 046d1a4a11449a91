// Package backend talks to the account service that owns alumni accounts.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alumni-registry/internal/config"
	"github.com/alumni-registry/internal/domain"
)

const (
	registerPath    = "/api/auth/register"
	oauthVerifyPath = "/api/auth/oauth/verify"

	// maxResponseBytes bounds how much of a backend reply is read.
	maxResponseBytes = 1 << 20
)

// Client calls the account backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.BackendURL,
		http:    &http.Client{Timeout: cfg.BackendTimeout},
	}
}

type registerResponse struct {
	Message string         `json:"message"`
	User    domain.Account `json:"user"`
	Token   string         `json:"token"`
}

type oauthRequest struct {
	Email     string          `json:"email"`
	OAuthData json.RawMessage `json:"oauthData"`
}

// Register creates the account. An "already exists" reply maps to domain.ErrAccountExists;
// any other failure is a *domain.BackendError.
func (c *Client) Register(ctx context.Context, acc domain.NewAccount) (*domain.FinalizedAccount, error) {
	resp, err := c.post(ctx, registerPath, acc)
	if err != nil {
		return nil, &domain.BackendError{Status: http.StatusBadGateway, Message: "account service unavailable"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.BackendError{Status: http.StatusBadGateway, Message: "account service unavailable"}
	}

	var out registerResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil {
			return nil, &domain.BackendError{Status: resp.StatusCode, Message: "malformed account service response"}
		}
		return &domain.FinalizedAccount{Account: out.User, Token: out.Token}, nil
	}

	if alreadyExists(resp.StatusCode, out.Message) {
		return nil, fmt.Errorf("backend register %s: %w", acc.Email, domain.ErrAccountExists)
	}
	msg := out.Message
	if msg == "" {
		msg = fmt.Sprintf("account service returned %d", resp.StatusCode)
	}
	return nil, &domain.BackendError{Status: resp.StatusCode, Message: msg}
}

// VerifyOAuth forwards the OAuth payload and returns the backend reply as-is,
// whatever its status.
func (c *Client) VerifyOAuth(ctx context.Context, email string, oauthData json.RawMessage) (*domain.RelayedResponse, error) {
	resp, err := c.post(ctx, oauthVerifyPath, oauthRequest{Email: email, OAuthData: oauthData})
	if err != nil {
		return nil, &domain.BackendError{Status: http.StatusBadGateway, Message: "account service unavailable"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.BackendError{Status: http.StatusBadGateway, Message: "account service unavailable"}
	}
	return &domain.RelayedResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, errors.New("backend url not configured")
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

func alreadyExists(status int, message string) bool {
	if status == http.StatusConflict {
		return true
	}
	return status == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "already exists")
}

// Timeout reports the per-call deadline, for logging at startup.
func (c *Client) Timeout() time.Duration { return c.http.Timeout }
