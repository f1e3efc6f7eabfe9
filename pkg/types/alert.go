package types

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an alert as reported by the upstream source.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusPending Status = "pending"
)

// Severity is the impact level of an alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// DisplayLayout is the timestamp layout used in tables and chat messages.
const DisplayLayout = "02/01/2006 15:04:05"

// statusAliases maps every accepted spelling to its canonical Status.
// The Portuguese values are what the upstream incident API emits.
var statusAliases = map[string]Status{
	"open":     StatusOpen,
	"aberto":   StatusOpen,
	"closed":   StatusClosed,
	"fechado":  StatusClosed,
	"pending":  StatusPending,
	"pendente": StatusPending,
}

var severityAliases = map[string]Severity{
	"critical": SeverityCritical,
	"critica":  SeverityCritical,
	"crítica":  SeverityCritical,
	"high":     SeverityHigh,
	"alta":     SeverityHigh,
	"medium":   SeverityMedium,
	"media":    SeverityMedium,
	"média":    SeverityMedium,
	"low":      SeverityLow,
	"baixa":    SeverityLow,
}

// ParseStatus normalises s to a Status. The second result is false when s is
// not a recognised spelling.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

// ParseSeverity normalises s to a Severity. The second result is false when s
// is not a recognised spelling.
func ParseSeverity(s string) (Severity, bool) {
	sev, ok := severityAliases[strings.ToLower(strings.TrimSpace(s))]
	return sev, ok
}

// Alert is a single incident record tracked by the dashboard.
type Alert struct {
	// ID uniquely identifies the alert within the store and is stable for the
	// lifetime of the alert.
	ID string `json:"id"`

	// Code is the human-facing identifier (ticket number).
	Code string `json:"code"`

	// Team is the executor group that owns the alert. It is both a filter key
	// and the notification routing key.
	Team string `json:"team"`

	Status Status `json:"status"`

	// OpenedAt is nil when the upstream timestamp could not be parsed;
	// OpenedRaw always holds the value as received.
	OpenedAt  *time.Time `json:"opened_at,omitempty"`
	OpenedRaw string     `json:"opened_raw,omitempty"`

	Summary  string   `json:"summary"`
	Severity Severity `json:"severity"`

	// Acknowledged is monotonic: once true it is never reset within a process.
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// FormatOpened renders OpenedAt with DisplayLayout in loc, falling back to the
// raw upstream value when the timestamp was not parseable.
func (a Alert) FormatOpened(loc *time.Location) string {
	if a.OpenedAt == nil {
		return a.OpenedRaw
	}
	if loc == nil {
		loc = time.UTC
	}
	return a.OpenedAt.In(loc).Format(DisplayLayout)
}

// Metrics holds the aggregate counts shown on the dashboard tiles. It is always
// derived from the full, unfiltered alert set.
type Metrics struct {
	Total          int `json:"total"`
	Acknowledged   int `json:"acknowledged"`
	Unacknowledged int `json:"unacknowledged"`
}
