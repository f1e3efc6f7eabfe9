package ingest

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ciops/alertdesk/pkg/types"
)

// FixtureSource reads alerts from a YAML file on every fetch. It serves
// development and demo setups without an upstream API.
type FixtureSource struct {
	path string
}

// NewFixture returns a source reading path.
func NewFixture(path string) *FixtureSource {
	return &FixtureSource{path: path}
}

// fixtureAlert is the on-disk form. Status and severity accept the same
// Portuguese aliases as the upstream API.
type fixtureAlert struct {
	ID           string `yaml:"id"`
	Code         string `yaml:"code"`
	Team         string `yaml:"team"`
	Status       string `yaml:"status"`
	OpenedAt     string `yaml:"opened_at"`
	Summary      string `yaml:"summary"`
	Severity     string `yaml:"severity"`
	Acknowledged bool   `yaml:"acknowledged"`
}

// Name implements Source.
func (s *FixtureSource) Name() string { return "fixture" }

// Fetch implements Source.
func (s *FixtureSource) Fetch(ctx context.Context) ([]types.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var rows []fixtureAlert
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse fixture %q: %w", s.path, err)
	}

	alerts := make([]types.Alert, 0, len(rows))
	for i, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("fixture %q: entry %d has no id", s.path, i)
		}
		status, ok := types.ParseStatus(r.Status)
		if !ok {
			status = types.StatusOpen
		}
		code := r.Code
		if code == "" {
			code = r.ID
		}
		alerts = append(alerts, types.Alert{
			ID:           r.ID,
			Code:         code,
			Team:         r.Team,
			Status:       status,
			OpenedAt:     parseTimestamp(r.OpenedAt),
			OpenedRaw:    r.OpenedAt,
			Summary:      r.Summary,
			Severity:     severityOrDefault(r.Severity),
			Acknowledged: r.Acknowledged,
		})
	}
	return alerts, nil
}
