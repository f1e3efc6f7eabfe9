package ingest

//go:generate mockgen -source=pagerduty.go -package=mocks -destination=mocks/incident_lister_mock.go

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	pd "github.com/PagerDuty/go-pagerduty"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/config"
)

const pagerDutyPageSize uint = 100

var defaultPagerDutyStatuses = []string{"triggered", "acknowledged"}

// IncidentLister is the subset of *pagerduty.Client the source uses.
type IncidentLister interface {
	ListIncidentsWithContext(context.Context, pd.ListIncidentsOptions) (*pd.ListIncidentsResponse, error)
}

// PagerDutySource lists PagerDuty incidents as alerts.
type PagerDutySource struct {
	client     IncidentLister
	teamIDs    []string
	serviceIDs []string
	statuses   []string
}

// NewPagerDuty returns a source listing incidents through client.
func NewPagerDuty(client IncidentLister, cfg config.PagerDutyConfig) *PagerDutySource {
	statuses := cfg.Statuses
	if len(statuses) == 0 {
		statuses = defaultPagerDutyStatuses
	}
	return &PagerDutySource{
		client:     client,
		teamIDs:    cfg.TeamIDs,
		serviceIDs: cfg.ServiceIDs,
		statuses:   statuses,
	}
}

// NewPagerDutyFromConfig builds the REST client from the token named in cfg.
func NewPagerDutyFromConfig(cfg config.SourceConfig) (*PagerDutySource, error) {
	token := cfg.PagerDuty.Token()
	if token == "" {
		return nil, fmt.Errorf("ingest: pagerduty source: %s is empty", cfg.PagerDuty.TokenEnv)
	}
	var opts []pd.ClientOptions
	if cfg.Endpoint != "" {
		opts = append(opts, pd.WithAPIEndpoint(cfg.Endpoint))
	}
	client := pd.NewClient(token, opts...)
	client.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return NewPagerDuty(client, cfg.PagerDuty), nil
}

// Name implements Source.
func (s *PagerDutySource) Name() string { return "pagerduty" }

// Fetch implements Source. It pages through every matching incident.
func (s *PagerDutySource) Fetch(ctx context.Context) ([]types.Alert, error) {
	var alerts []types.Alert
	var offset uint
	for {
		resp, err := s.client.ListIncidentsWithContext(ctx, pd.ListIncidentsOptions{
			TeamIDs:    s.teamIDs,
			ServiceIDs: s.serviceIDs,
			Statuses:   s.statuses,
			SortBy:     "created_at:desc",
			Limit:      pagerDutyPageSize,
			Offset:     offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list incidents: %w", err)
		}
		for _, inc := range resp.Incidents {
			alerts = append(alerts, incidentToAlert(inc))
		}
		if !resp.More || len(resp.Incidents) == 0 {
			break
		}
		offset += pagerDutyPageSize
	}
	return alerts, nil
}

func incidentToAlert(inc pd.Incident) types.Alert {
	code := inc.ID
	if inc.IncidentNumber != 0 {
		code = "#" + strconv.FormatUint(uint64(inc.IncidentNumber), 10)
	}
	team := inc.Service.Summary
	if len(inc.Teams) > 0 && inc.Teams[0].Summary != "" {
		team = inc.Teams[0].Summary
	}
	return types.Alert{
		ID:        inc.ID,
		Code:      code,
		Team:      team,
		Status:    incidentStatus(inc.Status),
		OpenedAt:  parseTimestamp(inc.CreatedAt),
		OpenedRaw: inc.CreatedAt,
		Summary:   inc.Title,
		Severity:  incidentSeverity(inc),
	}
}

func incidentStatus(s string) types.Status {
	switch s {
	case "acknowledged":
		return types.StatusPending
	case "resolved":
		return types.StatusClosed
	default:
		return types.StatusOpen
	}
}

func incidentSeverity(inc pd.Incident) types.Severity {
	if inc.Priority != nil && (inc.Priority.Name == "P1" || inc.Priority.Summary == "P1") {
		return types.SeverityCritical
	}
	switch inc.Urgency {
	case "high":
		return types.SeverityHigh
	case "low":
		return types.SeverityLow
	default:
		return types.SeverityMedium
	}
}
