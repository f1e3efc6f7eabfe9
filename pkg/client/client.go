// Package client is a Go client for the alertdesk REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ciops/alertdesk/pkg/types"
)

// DefaultAPIKeyHeader matches the server default.
const DefaultAPIKeyHeader = "x-api-key"

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alertdesk: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key in header on every request. An empty header uses
// DefaultAPIKeyHeader.
func WithAPIKey(header, key string) Option {
	return func(c *Client) {
		if header == "" {
			header = DefaultAPIKeyHeader
		}
		c.header, c.key = header, key
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// Client talks to one alertdesk server.
type Client struct {
	base   string
	header string
	key    string
	hc     *http.Client
}

// New returns a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListAlerts returns the alerts matching the query filters. The keys are the
// ones GET /api/v1/alerts accepts (code, team, status, severity,
// acknowledged, summary, from, to).
func (c *Client) ListAlerts(ctx context.Context, filters url.Values) (types.AlertsResponse, error) {
	var out types.AlertsResponse
	path := "/api/v1/alerts"
	if len(filters) > 0 {
		path += "?" + filters.Encode()
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Acknowledge acknowledges the alert with the given id.
func (c *Client) Acknowledge(ctx context.Context, id string) (types.AckResponse, error) {
	var out types.AckResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/alerts/"+url.PathEscape(id)+"/ack", nil, &out)
	return out, err
}

// Metrics returns the aggregate counts.
func (c *Client) Metrics(ctx context.Context) (types.Metrics, error) {
	var out types.Metrics
	err := c.do(ctx, http.MethodGet, "/api/v1/metrics", nil, &out)
	return out, err
}

// Refresh asks the server to refetch alerts now and returns the new status.
func (c *Client) Refresh(ctx context.Context) (types.IngestStatus, error) {
	var out types.IngestStatus
	err := c.do(ctx, http.MethodPost, "/api/v1/refresh", nil, &out)
	return out, err
}

// Webhooks lists the webhook bindings. URLs come back redacted.
func (c *Client) Webhooks(ctx context.Context) ([]types.WebhookBinding, error) {
	var out []types.WebhookBinding
	err := c.do(ctx, http.MethodGet, "/api/v1/webhooks", nil, &out)
	return out, err
}

// SetWebhook binds team to webhookURL. Team "_default" sets the fallback.
func (c *Client) SetWebhook(ctx context.Context, team, webhookURL string) (types.WebhookBinding, error) {
	var out types.WebhookBinding
	body := map[string]string{"url": webhookURL}
	err := c.do(ctx, http.MethodPut, "/api/v1/webhooks/"+url.PathEscape(team), body, &out)
	return out, err
}

// RemoveWebhook removes the binding for team.
func (c *Client) RemoveWebhook(ctx context.Context, team string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/webhooks/"+url.PathEscape(team), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set(c.header, c.key)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e types.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
