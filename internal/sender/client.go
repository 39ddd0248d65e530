// Package sender is a small client for the listener's HTTP API, used by the
// webhook-sender CLI to smoke-test a running deployment.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PratikDhanave/metadata-change-listener/internal/models"
)

// Client talks to one listener instance.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// New returns a client for baseURL. A trailing "/webhook" is tolerated so
// the same URL configured in the catalog can be reused.
func New(baseURL, secret string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/webhook")
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health calls GET /health. An unhealthy service yields both the decoded
// status and a *StatusError.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	err := c.do(ctx, http.MethodGet, "/health", nil, &hs)
	return hs, err
}

// Send posts payload to /webhook.
func (c *Client) Send(ctx context.Context, payload map[string]any) (models.WebhookResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.WebhookResponse{}, fmt.Errorf("encode payload: %w", err)
	}
	var resp models.WebhookResponse
	err = c.do(ctx, http.MethodPost, "/webhook", body, &resp)
	return resp, err
}

// Events calls GET /events with optional filters; limit <= 0 uses the server default.
func (c *Client) Events(ctx context.Context, entityFQN, eventType string, limit int) (models.EventListResponse, error) {
	q := url.Values{}
	if entityFQN != "" {
		q.Set("entity_fqn", entityFQN)
	}
	if eventType != "" {
		q.Set("event_type", eventType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list models.EventListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &list)
	return list, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if out != nil && len(raw) > 0 {
		if derr := json.Unmarshal(raw, out); derr != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", derr)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return nil
}
