package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ciops/alertdesk/pkg/types"
)

// ErrDeliveryFailed matches every *DeliveryError via errors.Is.
var ErrDeliveryFailed = errors.New("webhook delivery failed")

// DeliveryError is a transport-level failure posting to a webhook.
type DeliveryError struct {
	URL string
	Err error
}

func (e *DeliveryError) Error() string {
	// *url.Error repeats the full URL, credentials included.
	cause := e.Err
	var ue *url.Error
	if errors.As(cause, &ue) {
		cause = ue.Err
	}
	return fmt.Sprintf("deliver to %s: %v", Redact(e.URL), cause)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDeliveryFailed) true for any DeliveryError.
func (e *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }

// Resolver maps a team to a webhook URL. *Bindings implements it.
type Resolver interface {
	Resolve(team string) (string, error)
}

// Dispatcher resolves and delivers acknowledgment notifications.
type Dispatcher struct {
	resolver Resolver
	client   *http.Client
	loc      *time.Location
}

// NewDispatcher returns a Dispatcher that posts with the given per-request
// timeout and formats timestamps in loc (UTC when nil).
func NewDispatcher(r Resolver, timeout time.Duration, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		resolver: r,
		client:   &http.Client{Timeout: timeout},
		loc:      loc,
	}
}

// Endpoint resolves the webhook URL for a.
func (d *Dispatcher) Endpoint(a types.Alert) (string, error) {
	return d.resolver.Resolve(a.Team)
}

// Send makes one POST of the rendered message to endpoint. Only transport errors
// are returned, as *DeliveryError. The response status is logged.
func (d *Dispatcher) Send(ctx context.Context, endpoint string, a types.Alert) error {
	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: Message(a, d.loc)})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{URL: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := d.client.Do(req)
	if err != nil {
		return &DeliveryError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10)) //nolint:errcheck

	if resp.StatusCode >= 400 {
		slog.Warn("notify: webhook answered with error status",
			"alert_id", a.ID,
			"team", a.Team,
			"endpoint", Redact(endpoint),
			"status", resp.StatusCode,
		)
	} else {
		slog.Debug("notify: webhook delivered",
			"alert_id", a.ID,
			"endpoint", Redact(endpoint),
			"status", resp.StatusCode,
		)
	}
	return nil
}

// Notify resolves the endpoint for a and sends to it. It returns the URL
// used so callers can record it.
func (d *Dispatcher) Notify(ctx context.Context, a types.Alert) (string, error) {
	endpoint, err := d.Endpoint(a)
	if err != nil {
		return "", err
	}
	return endpoint, d.Send(ctx, endpoint, a)
}
