// Package backend talks to the ShelfVoice API on behalf of the portal client.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shelfvoice/portal/internal/core/ports"
)

// LoginPath is the collaborator's login endpoint.
const LoginPath = "/api/users/login"

// maxBody bounds how much of a login response is read.
const maxBody = 1 << 20

// LoginClient is the HTTP implementation of ports.LoginClient.
type LoginClient struct {
	baseURL string
	http    *http.Client
}

// NewLoginClient posts credentials to baseURL+LoginPath. A nil client gets a
// default one with timeout.
func NewLoginClient(baseURL string, client *http.Client, timeout time.Duration) *LoginClient {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &LoginClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login returns whatever the collaborator answered. Only a failure to complete
// the exchange is an error.
func (c *LoginClient) Login(ctx context.Context, username, password string) (*ports.LoginResponse, error) {
	payload, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+LoginPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read login response: %w", err)
	}
	return &ports.LoginResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
