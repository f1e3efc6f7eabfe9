package ingest

import (
	"context"
	"errors"
	"testing"

	pd "github.com/PagerDuty/go-pagerduty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/config"
	"github.com/ciops/alertdesk/server/internal/ingest/mocks"
)

func incident(id string, n uint, status, urgency string) pd.Incident {
	return pd.Incident{
		APIObject:      pd.APIObject{ID: id},
		IncidentNumber: n,
		Title:          "disk full on " + id,
		Status:         status,
		Urgency:        urgency,
		CreatedAt:      "2024-01-28T15:40:05Z",
		Service:        pd.APIObject{Summary: "storage"},
	}
}

func TestPagerDutySource_PagesUntilDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockIncidentLister(ctrl)

	first := &pd.ListIncidentsResponse{
		APIListObject: pd.APIListObject{More: true},
		Incidents:     []pd.Incident{incident("P1A", 1, "triggered", "high")},
	}
	second := &pd.ListIncidentsResponse{
		Incidents: []pd.Incident{incident("P2B", 2, "acknowledged", "low")},
	}

	gomock.InOrder(
		m.EXPECT().ListIncidentsWithContext(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, o pd.ListIncidentsOptions) (*pd.ListIncidentsResponse, error) {
				assert.Equal(t, uint(0), o.Offset)
				assert.Equal(t, []string{"T1"}, o.TeamIDs)
				assert.Equal(t, defaultPagerDutyStatuses, o.Statuses)
				return first, nil
			}),
		m.EXPECT().ListIncidentsWithContext(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, o pd.ListIncidentsOptions) (*pd.ListIncidentsResponse, error) {
				assert.Equal(t, pagerDutyPageSize, o.Offset)
				return second, nil
			}),
	)

	src := NewPagerDuty(m, config.PagerDutyConfig{TeamIDs: []string{"T1"}})
	alerts, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, "P1A", alerts[0].ID)
	assert.Equal(t, "#1", alerts[0].Code)
	assert.Equal(t, "storage", alerts[0].Team)
	assert.Equal(t, types.StatusOpen, alerts[0].Status)
	assert.Equal(t, types.SeverityHigh, alerts[0].Severity)
	assert.NotNil(t, alerts[0].OpenedAt)

	assert.Equal(t, types.StatusPending, alerts[1].Status)
	assert.Equal(t, types.SeverityLow, alerts[1].Severity)
}

func TestPagerDutySource_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockIncidentLister(ctrl)
	m.EXPECT().ListIncidentsWithContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("401 unauthorized"))

	_, err := NewPagerDuty(m, config.PagerDutyConfig{}).Fetch(context.Background())
	assert.ErrorContains(t, err, "401")
}

func TestIncidentToAlert(t *testing.T) {
	inc := incident("PX", 0, "resolved", "")
	inc.Teams = []pd.APIObject{{Summary: "Network"}}
	inc.Priority = &pd.Priority{Name: "P1"}

	a := incidentToAlert(inc)
	assert.Equal(t, "PX", a.Code, "falls back to the id without an incident number")
	assert.Equal(t, "Network", a.Team)
	assert.Equal(t, types.StatusClosed, a.Status)
	assert.Equal(t, types.SeverityCritical, a.Severity)
	assert.False(t, a.Acknowledged)
}

func TestNewPagerDutyFromConfig_MissingToken(t *testing.T) {
	_, err := NewPagerDutyFromConfig(config.SourceConfig{
		Type:      "pagerduty",
		PagerDuty: config.PagerDutyConfig{TokenEnv: "ALERTDESK_UNSET_PD_TOKEN"},
	})
	assert.Error(t, err)
}
