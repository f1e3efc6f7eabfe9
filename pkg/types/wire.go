package types

import "time"

// AlertsResponse is the payload for GET /api/v1/alerts.
type AlertsResponse struct {
	Alerts        []Alert `json:"alerts"`
	TotalFiltered int     `json:"total_filtered"`
	Metrics       Metrics `json:"metrics"` // computed over the unfiltered set
}

// Notification states reported in AckResponse and the notification journal.
const (
	NotificationPending    = "pending"
	NotificationSent       = "sent"
	NotificationFailed     = "failed"
	NotificationNoEndpoint = "no_endpoint"
)

// NotificationOutcome describes one notification attempt for an acknowledged alert.
type NotificationOutcome struct {
	EventID  string    `json:"event_id"`
	AlertID  string    `json:"alert_id"`
	Code     string    `json:"code"`
	Team     string    `json:"team"`
	State    string    `json:"state"`
	Endpoint string    `json:"endpoint,omitempty"` // redacted
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// AckResponse is the payload for POST /api/v1/alerts/{id}/ack.
type AckResponse struct {
	Alert        Alert               `json:"alert"`
	Notification NotificationOutcome `json:"notification"`
}

// WebhookBinding associates a team with a chat webhook URL. An empty Team
// denotes the default binding used when no team binding matches.
type WebhookBinding struct {
	Team    string `json:"team"`
	URL     string `json:"url"`
	Default bool   `json:"default,omitempty"`
}

// IngestStatus reports the outcome of the most recent ingestion runs.
type IngestStatus struct {
	Source      string     `json:"source"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	AlertCount  int        `json:"alert_count"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State   string       `json:"state"` // "ok" | "degraded" | "unknown"
	Ingest  IngestStatus `json:"ingest"`
	Metrics Metrics      `json:"metrics"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the data of
// every "snapshot" stream event.
type SnapshotResponse struct {
	Alerts      []Alert      `json:"alerts"`
	Metrics     Metrics      `json:"metrics"`
	Teams       []string     `json:"teams"`
	Ingest      IngestStatus `json:"ingest"`
	GeneratedAt string       `json:"generated_at"` // RFC3339
}

// SearchResult is one ranked hit in GET /api/v1/search.
type SearchResult struct {
	Alert Alert `json:"alert"`
	Rank  int   `json:"rank"` // 0 is the best match
}

// ErrorResponse is the generic JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
