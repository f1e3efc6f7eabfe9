package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciops/alertdesk/pkg/types"
)

// recorder is an httptest webhook that remembers every request body.
type recorder struct {
	mu     sync.Mutex
	bodies []string
	status int
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.bodies = append(r.bodies, string(b))
	status := r.status
	r.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

func networkAlert() types.Alert {
	ts := time.Date(2024, 1, 28, 15, 40, 5, 0, time.UTC)
	return types.Alert{
		ID:       "1",
		Code:     "SV199817",
		Team:     "Network",
		Summary:  "DNACENTER - AP disconnected from WLC",
		Severity: types.SeverityCritical,
		OpenedAt: &ts,
	}
}

// --- Bindings ---------------------------------------------------------------

func TestResolve_ExactTeam(t *testing.T) {
	b := NewBindings()
	require.NoError(t, b.Set("Network", "https://chat.example/network"))
	require.NoError(t, b.SetDefault("https://chat.example/default"))

	u, err := b.Resolve("Network")
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example/network", u)
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	b := NewBindings()
	require.NoError(t, b.Set("Network", "https://chat.example/network"))
	require.NoError(t, b.SetDefault("https://chat.example/default"))

	u, err := b.Resolve("Infraestrutura")
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example/default", u)
}

func TestResolve_NoEndpoint(t *testing.T) {
	b := NewBindings()
	require.NoError(t, b.Set("Network", "https://chat.example/network"))

	_, err := b.Resolve("Suporte")
	assert.ErrorIs(t, err, ErrNoEndpointConfigured)
}

func TestBindings_SetIsLastWriteWins(t *testing.T) {
	b := NewBindings()
	require.NoError(t, b.Set("Network", "https://a.example"))
	require.NoError(t, b.Set("Network", "https://b.example"))

	u, _ := b.Resolve("Network")
	assert.Equal(t, "https://b.example", u)
	assert.Len(t, b.List(), 1)
}

func TestBindings_Remove(t *testing.T) {
	b := NewBindings()
	require.NoError(t, b.Set("Network", "https://a.example"))

	assert.True(t, b.Remove("Network"))
	assert.False(t, b.Remove("Network"))
	_, err := b.Resolve("Network")
	assert.ErrorIs(t, err, ErrNoEndpointConfigured)
}

func TestBindings_Validation(t *testing.T) {
	b := NewBindings()
	assert.ErrorIs(t, b.Set("", "https://a.example"), ErrInvalidBinding)
	assert.ErrorIs(t, b.Set("Network", "ftp://a.example"), ErrInvalidBinding)
	assert.ErrorIs(t, b.Set("Network", "https://"), ErrInvalidBinding)
	assert.ErrorIs(t, b.SetDefault("not a url"), ErrInvalidBinding)
	assert.NoError(t, b.SetDefault(""), "empty clears the default")
}

func TestBindings_ListDefaultFirstThenSorted(t *testing.T) {
	b := NewBindings()
	require.NoError(t, b.Set("Suporte", "https://s.example"))
	require.NoError(t, b.Set("Network", "https://n.example"))
	require.NoError(t, b.SetDefault("https://d.example"))

	got := b.List()
	require.Len(t, got, 3)
	assert.True(t, got[0].Default)
	assert.Equal(t, "Network", got[1].Team)
	assert.Equal(t, "Suporte", got[2].Team)
}

func TestRedact(t *testing.T) {
	in := "https://chat.googleapis.com/v1/spaces/AAA/messages?key=secret&token=abc"
	out := Redact(in)
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "abc")
	assert.True(t, strings.HasPrefix(out, "https://chat.googleapis.com/v1/spaces/AAA/messages"))

	assert.Equal(t, "https://chat.example/hook", Redact("https://user:pw@chat.example/hook"))
}

// --- Message ----------------------------------------------------------------

func TestMessage(t *testing.T) {
	msg := Message(networkAlert(), time.FixedZone("BRT", -3*60*60))
	assert.Contains(t, msg, "SV199817")
	assert.Contains(t, msg, "Network")
	assert.Contains(t, msg, "DNACENTER - AP disconnected from WLC")
	assert.Contains(t, msg, "CRITICAL")
	assert.Contains(t, msg, "28/01/2024 12:40:05")
}

func TestMessage_RawTimestamp(t *testing.T) {
	a := networkAlert()
	a.OpenedAt = nil
	a.OpenedRaw = "28-01-2024 15h40"
	assert.Contains(t, Message(a, nil), "28-01-2024 15h40")
}

// --- Dispatcher -------------------------------------------------------------

func TestNotify_ExactlyOnePost(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	b := NewBindings()
	require.NoError(t, b.Set("Network", srv.URL))
	d := NewDispatcher(b, 2*time.Second, time.UTC)

	used, err := d.Notify(context.Background(), networkAlert())
	require.NoError(t, err)
	assert.Equal(t, srv.URL, used)

	calls := rec.calls()
	require.Len(t, calls, 1)

	var payload struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(calls[0]), &payload))
	assert.Contains(t, payload.Text, "SV199817")
	assert.Contains(t, payload.Text, "CRITICAL")
}

func TestNotify_UsesDefault(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	b := NewBindings()
	require.NoError(t, b.SetDefault(srv.URL))
	d := NewDispatcher(b, 2*time.Second, nil)

	_, err := d.Notify(context.Background(), networkAlert())
	require.NoError(t, err)
	assert.Len(t, rec.calls(), 1)
}

func TestNotify_NoEndpoint(t *testing.T) {
	d := NewDispatcher(NewBindings(), time.Second, nil)
	_, err := d.Notify(context.Background(), networkAlert())
	assert.ErrorIs(t, err, ErrNoEndpointConfigured)
}

func TestSend_HTTPErrorStatusIsNotAFailure(t *testing.T) {
	rec := &recorder{status: http.StatusInternalServerError}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	d := NewDispatcher(NewBindings(), time.Second, nil)
	assert.NoError(t, d.Send(context.Background(), srv.URL, networkAlert()))
	assert.Len(t, rec.calls(), 1)
}

func TestSend_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d := NewDispatcher(NewBindings(), time.Second, nil)
	err := d.Send(context.Background(), url+"/hook?key=secret", networkAlert())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.NotContains(t, err.Error(), "secret")
}
