// Package userclient looks up user records in the user service over HTTP.
package userclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoEmail      = errors.New("user record has no email")
)

// Client calls GET {base}/users/{id}.
type Client struct {
	base string
	http *http.Client
}

// New creates a client whose every lookup is bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type userResponse struct {
	Email string `json:"email"`
}

// Email returns the email address registered for userID.
func (c *Client) Email(ctx context.Context, userID string) (string, error) {
	endpoint := c.base + "/users/" + url.PathEscape(userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if rid := logger.RequestIDFrom(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("get user %s: %w", userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrUserNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("get user %s: unexpected status %d", userID, resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode user %s: %w", userID, err)
	}
	if strings.TrimSpace(body.Email) == "" {
		return "", ErrNoEmail
	}
	return body.Email, nil
}
