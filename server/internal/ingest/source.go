package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/config"
)

// Source fetches the complete current alert collection.
type Source interface {
	// Name identifies the source in logs and status output.
	Name() string
	Fetch(ctx context.Context) ([]types.Alert, error)
}

// New returns the Source selected by cfg.Type.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case "http":
		return NewHTTP(cfg)
	case "pagerduty":
		return NewPagerDutyFromConfig(cfg)
	case "fixture":
		return NewFixture(cfg.Fixture.Path), nil
	default:
		return nil, fmt.Errorf("ingest: unsupported source type %q", cfg.Type)
	}
}

// timestampLayouts are tried in order when parsing an upstream opening time.
// Zone-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	types.DisplayLayout,
	time.DateOnly,
}

// parseTimestamp returns nil when raw matches no known layout; the caller
// keeps raw for display.
func parseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// severityOrDefault maps an upstream impact level, defaulting to medium when
// it is absent or unknown.
func severityOrDefault(raw string) types.Severity {
	if sev, ok := types.ParseSeverity(raw); ok {
		return sev
	}
	return types.SeverityMedium
}
