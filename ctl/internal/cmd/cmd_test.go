package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciops/alertdesk/pkg/types"
)

// fakeServer records the last request and answers the few routes alertctl uses.
type fakeServer struct {
	lastMethod string
	lastPath   string
	lastQuery  string
	lastKey    string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastMethod, f.lastPath, f.lastQuery = r.Method, r.URL.Path, r.URL.RawQuery
	f.lastKey = r.Header.Get("x-api-key")
	enc := json.NewEncoder(w)
	switch {
	case r.URL.Path == "/api/v1/alerts":
		enc.Encode(types.AlertsResponse{ //nolint:errcheck
			Alerts: []types.Alert{{ID: "1", Code: "SV199817", Team: "Suporte Network",
				Status: types.StatusOpen, Severity: types.SeverityCritical, Summary: "AP disconnected"}},
			TotalFiltered: 1,
			Metrics:       types.Metrics{Total: 4, Acknowledged: 2, Unacknowledged: 2},
		})
	case r.URL.Path == "/api/v1/alerts/1/ack":
		enc.Encode(types.AckResponse{ //nolint:errcheck
			Alert:        types.Alert{ID: "1", Code: "SV199817", Team: "Suporte Network", Acknowledged: true},
			Notification: types.NotificationOutcome{EventID: "ev1", State: types.NotificationPending, Endpoint: "https://chat.example.com/hook"},
		})
	case r.URL.Path == "/api/v1/alerts/2/ack":
		w.WriteHeader(http.StatusConflict)
		enc.Encode(types.ErrorResponse{Error: "alert already acknowledged"}) //nolint:errcheck
	case r.URL.Path == "/api/v1/metrics":
		enc.Encode(types.Metrics{Total: 4, Acknowledged: 2, Unacknowledged: 2}) //nolint:errcheck
	case r.URL.Path == "/api/v1/refresh":
		enc.Encode(types.IngestStatus{Source: "http", AlertCount: 4}) //nolint:errcheck
	case r.URL.Path == "/api/v1/webhooks":
		enc.Encode([]types.WebhookBinding{{Default: true, URL: "https://chat.example.com/all"}, {Team: "Network", URL: "https://chat.example.com/net"}}) //nolint:errcheck
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		enc.Encode(types.WebhookBinding{Team: "Network", URL: "https://chat.example.com/net"}) //nolint:errcheck
	}
}

func run(t *testing.T, srvURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := NewCmdRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", srvURL}, args...))
	err := root.Execute()
	return out.String(), err
}

func newFake(t *testing.T) (*fakeServer, *httptest.Server) {
	f := &fakeServer{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestAlertsList_Table(t *testing.T) {
	f, srv := newFake(t)
	out, err := run(t, srv.URL, "alerts", "list", "--severity", "critical", "--acknowledged", "false")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/alerts", f.lastPath)
	assert.Contains(t, f.lastQuery, "severity=critical")
	assert.Contains(t, f.lastQuery, "acknowledged=false")
	assert.Contains(t, out, "SV199817")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "total 4, acknowledged 2, unacknowledged 2")
}

func TestAlertsList_JSON(t *testing.T) {
	_, srv := newFake(t)
	out, err := run(t, srv.URL, "alerts", "list", "-o", "json")
	require.NoError(t, err)

	var resp types.AlertsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.TotalFiltered)
}

func TestAlertsList_BadOutput(t *testing.T) {
	_, srv := newFake(t)
	_, err := run(t, srv.URL, "alerts", "list", "-o", "yaml")
	assert.Error(t, err)
}

func TestAlertsAck(t *testing.T) {
	f, srv := newFake(t)
	out, err := run(t, srv.URL, "--api-key", "k", "alerts", "ack", "1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, f.lastMethod)
	assert.Equal(t, "k", f.lastKey)
	assert.Contains(t, out, "SV199817 acknowledged")
	assert.Contains(t, out, "pending")
}

func TestAlertsAck_Conflict(t *testing.T) {
	_, srv := newFake(t)
	_, err := run(t, srv.URL, "alerts", "ack", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already acknowledged")
}

func TestAPIKeyFromEnv(t *testing.T) {
	f, srv := newFake(t)
	t.Setenv("ALERTCTL_API_KEY", "from-env")
	_, err := run(t, srv.URL, "refresh")
	require.NoError(t, err)
	assert.Equal(t, "from-env", f.lastKey)
}

func TestServerFromConfigFile(t *testing.T) {
	f, srv := newFake(t)
	path := filepath.Join(t.TempDir(), "alertctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: "+srv.URL+"\napi-key: from-file\n"), 0o600))

	t.Setenv("HOME", t.TempDir())
	root := NewCmdRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "metrics"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "/api/v1/metrics", f.lastPath)
	assert.Equal(t, "from-file", f.lastKey)
	assert.Contains(t, out.String(), "Unacknowledged")
}

func TestRefresh(t *testing.T) {
	_, srv := newFake(t)
	out, err := run(t, srv.URL, "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "4 alerts from http")
}

func TestWebhooks(t *testing.T) {
	f, srv := newFake(t)

	out, err := run(t, srv.URL, "webhooks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "(default)")
	assert.Contains(t, out, "Network")

	_, err = run(t, srv.URL, "webhooks", "set", "Network", "https://chat.example.com/net")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, f.lastMethod)
	assert.Equal(t, "/api/v1/webhooks/Network", f.lastPath)

	out, err = run(t, srv.URL, "webhooks", "rm", "Network")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, f.lastMethod)
	assert.Contains(t, out, "Network removed")
}
