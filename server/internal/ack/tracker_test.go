package ack

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/journal"
	"github.com/ciops/alertdesk/server/internal/notify"
	"github.com/ciops/alertdesk/server/internal/store"
)

// fakeNotifier counts sends and returns sendErr from each.
type fakeNotifier struct {
	endpoint    string
	endpointErr error
	sendErr     error
	sends       atomic.Int32
}

func (f *fakeNotifier) Endpoint(types.Alert) (string, error) {
	return f.endpoint, f.endpointErr
}

func (f *fakeNotifier) Send(context.Context, string, types.Alert) error {
	f.sends.Add(1)
	return f.sendErr
}

func newStore(alerts ...types.Alert) *store.Store {
	st := store.New()
	st.Load(1, alerts)
	return st
}

func netAlert() types.Alert {
	return types.Alert{
		ID:       "42",
		Code:     "SV199817",
		Team:     "Network",
		Status:   types.StatusOpen,
		Severity: types.SeverityCritical,
		Summary:  "AP disconnected",
	}
}

func waitDone(t *testing.T, r Receipt) types.NotificationOutcome {
	t.Helper()
	select {
	case o := <-r.Done:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("delivery did not finish")
		return types.NotificationOutcome{}
	}
}

func TestAcknowledge_TwiceNotifiesOnce(t *testing.T) {
	n := &fakeNotifier{endpoint: "https://x"}
	tr := New(context.Background(), newStore(netAlert()), n)

	r, err := tr.Acknowledge(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, r.Alert.Acknowledged)
	assert.Equal(t, types.NotificationPending, r.Notification.State)
	assert.NotEmpty(t, r.Notification.EventID)

	r2, err := tr.Acknowledge(context.Background(), "42")
	assert.ErrorIs(t, err, ErrAlreadyAcknowledged)
	assert.True(t, r2.Alert.Acknowledged)
	assert.Nil(t, r2.Done)

	tr.Wait()
	assert.Equal(t, int32(1), n.sends.Load())
	assert.Equal(t, types.NotificationSent, waitDone(t, r).State)
}

func TestAcknowledge_NotFound(t *testing.T) {
	n := &fakeNotifier{endpoint: "https://x"}
	tr := New(context.Background(), newStore(), n)

	_, err := tr.Acknowledge(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, int32(0), n.sends.Load())
}

func TestAcknowledge_CancelledRequest(t *testing.T) {
	st := newStore(netAlert())
	tr := New(context.Background(), st, &fakeNotifier{endpoint: "https://x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Acknowledge(ctx, "42")
	assert.ErrorIs(t, err, context.Canceled)

	a, _ := st.Get("42")
	assert.False(t, a.Acknowledged)
}

func TestAcknowledge_NoEndpoint(t *testing.T) {
	j := journal.New(10)
	st := newStore(netAlert())
	n := &fakeNotifier{endpointErr: notify.ErrNoEndpointConfigured}
	tr := New(context.Background(), st, n, WithJournal(j))

	r, err := tr.Acknowledge(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, types.NotificationNoEndpoint, r.Notification.State)
	assert.Equal(t, types.NotificationNoEndpoint, waitDone(t, r).State)
	assert.Equal(t, int32(0), n.sends.Load())

	a, _ := st.Get("42")
	assert.True(t, a.Acknowledged, "acknowledgment is committed without an endpoint")
	require.Equal(t, 1, j.Len())
}

func TestAcknowledge_DeliveryFailureDoesNotRollBack(t *testing.T) {
	j := journal.New(10)
	st := newStore(netAlert())
	n := &fakeNotifier{endpoint: "https://x", sendErr: &notify.DeliveryError{URL: "https://x", Err: errors.New("connection refused")}}

	var hooked []types.NotificationOutcome
	var mu sync.Mutex
	tr := New(context.Background(), st, n, WithJournal(j), WithOutcomeHook(func(o types.NotificationOutcome) {
		mu.Lock()
		hooked = append(hooked, o)
		mu.Unlock()
	}))

	r, err := tr.Acknowledge(context.Background(), "42")
	require.NoError(t, err)
	o := waitDone(t, r)
	assert.Equal(t, types.NotificationFailed, o.State)
	assert.Contains(t, o.Error, "connection refused")

	a, _ := st.Get("42")
	assert.True(t, a.Acknowledged)

	tr.Wait()
	recent := j.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, types.NotificationFailed, recent[0].State)

	mu.Lock()
	assert.Len(t, hooked, 1)
	mu.Unlock()
}

func TestAcknowledge_ConcurrentExactlyOneTransition(t *testing.T) {
	n := &fakeNotifier{endpoint: "https://x"}
	tr := New(context.Background(), newStore(netAlert()), n)

	var ok, already atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.Acknowledge(context.Background(), "42")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyAcknowledged):
				already.Add(1)
			}
		}()
	}
	wg.Wait()
	tr.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(63), already.Load())
	assert.Equal(t, int32(1), n.sends.Load())
}

// TestAcknowledge_PostsToTeamWebhook wires the real dispatcher to an
// httptest webhook bound to the alert's team.
func TestAcknowledge_PostsToTeamWebhook(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
	}))
	defer srv.Close()

	b := notify.NewBindings()
	require.NoError(t, b.Set("Network", srv.URL))
	tr := New(context.Background(), newStore(netAlert()), notify.NewDispatcher(b, time.Second, time.UTC))

	r, err := tr.Acknowledge(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, types.NotificationSent, waitDone(t, r).State)

	_, err = tr.Acknowledge(context.Background(), "42")
	require.ErrorIs(t, err, ErrAlreadyAcknowledged)
	tr.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "SV199817")
	assert.True(t, strings.Contains(bodies[0], "CRITICAL"))
}

// blockingNotifier holds every Send until release is closed or ctx ends.
type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingNotifier) Endpoint(types.Alert) (string, error) { return "https://x", nil }

func (b *blockingNotifier) Send(ctx context.Context, _ string, _ types.Alert) error {
	close(b.started)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestShutdown_LetsInFlightDeliveryFinish(t *testing.T) {
	n := &blockingNotifier{started: make(chan struct{}), release: make(chan struct{})}
	j := journal.New(4)
	tr := New(context.Background(), newStore(netAlert()), n, WithJournal(j))

	_, err := tr.Acknowledge(context.Background(), "42")
	require.NoError(t, err)
	<-n.started

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(n.release)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tr.Shutdown(ctx))

	require.Equal(t, 1, j.Len())
	assert.Equal(t, types.NotificationSent, j.Recent(1)[0].State)
}

func TestShutdown_AbortsAfterDeadline(t *testing.T) {
	n := &blockingNotifier{started: make(chan struct{}), release: make(chan struct{})}
	j := journal.New(4)
	tr := New(context.Background(), newStore(netAlert()), n, WithJournal(j))

	_, err := tr.Acknowledge(context.Background(), "42")
	require.NoError(t, err)
	<-n.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.Shutdown(ctx), context.DeadlineExceeded)

	require.Equal(t, 1, j.Len())
	assert.Equal(t, types.NotificationFailed, j.Recent(1)[0].State)
}
