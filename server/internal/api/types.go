package api

import (
	"context"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/ack"
)

// AlertReader is the read side of the alert store.
type AlertReader interface {
	List() []types.Alert
	Get(id string) (types.Alert, bool)
	Teams() []string
}

// Acknowledger acknowledges alerts. *ack.Tracker implements it.
type Acknowledger interface {
	Acknowledge(ctx context.Context, id string) (ack.Receipt, error)
}

// Ingester exposes on-demand refresh and ingestion status.
// *ingest.Poller implements it.
type Ingester interface {
	Refresh(ctx context.Context) (int, error)
	Status() types.IngestStatus
	DismissError() bool
}

// webhookRequest is the body of PUT /api/v1/webhooks/{team}.
type webhookRequest struct {
	URL string `json:"url"`
}

// defaultTeam addresses the default binding in /api/v1/webhooks/{team}.
const defaultTeam = "_default"
