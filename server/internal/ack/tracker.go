package ack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/journal"
	"github.com/ciops/alertdesk/server/internal/metrics"
	"github.com/ciops/alertdesk/server/internal/notify"
)

// ErrAlreadyAcknowledged is returned when the alert was acknowledged before.
// No notification is sent in that case.
var ErrAlreadyAcknowledged = errors.New("alert already acknowledged")

// Store is the write side of the alert store the Tracker needs.
type Store interface {
	UpsertAcknowledgment(id string) (types.Alert, bool, error)
}

// Notifier resolves and delivers notifications. *notify.Dispatcher
// implements it.
type Notifier interface {
	Endpoint(a types.Alert) (string, error)
	Send(ctx context.Context, endpoint string, a types.Alert) error
}

// Receipt is the result of a first acknowledgment.
type Receipt struct {
	Alert types.Alert

	// Notification is the state known when Acknowledge returns: pending
	// while delivery is in flight, or no_endpoint.
	Notification types.NotificationOutcome

	// Done yields the final outcome exactly once and is then closed.
	Done <-chan types.NotificationOutcome
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithJournal records every final outcome in j.
func WithJournal(j *journal.Journal) Option {
	return func(t *Tracker) { t.journal = j }
}

// WithRecorder counts acknowledgments and outcomes in r.
func WithRecorder(r *metrics.Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithOutcomeHook calls fn with every final outcome, from the delivery
// goroutine. fn must not block.
func WithOutcomeHook(fn func(types.NotificationOutcome)) Option {
	return func(t *Tracker) { t.onOutcome = fn }
}

// Tracker enforces at-most-once acknowledgment per alert and triggers the
// notification side effect.
type Tracker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	store    Store
	notifier Notifier

	journal   *journal.Journal
	recorder  *metrics.Recorder
	onOutcome func(types.NotificationOutcome)

	now func() time.Time
	wg  sync.WaitGroup
}

// New returns a Tracker. Deliveries run on a context derived from ctx, not
// on the context of the request that triggered them. Cancelling ctx aborts
// in-flight posts; Shutdown lets them finish first.
func New(ctx context.Context, st Store, n Notifier, opts ...Option) *Tracker {
	ctx, cancel := context.WithCancel(ctx)
	t := &Tracker{
		ctx:      ctx,
		cancel:   cancel,
		store:    st,
		notifier: n,
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Acknowledge marks the alert id as acknowledged.
//
// It returns store.ErrNotFound (wrapped) for an unknown id and
// ErrAlreadyAcknowledged, together with the current alert, when the alert
// was acknowledged before. On the first acknowledgment the notification is
// dispatched in the background; its final outcome arrives on Receipt.Done.
func (t *Tracker) Acknowledge(ctx context.Context, id string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	a, transitioned, err := t.store.UpsertAcknowledgment(id)
	if err != nil {
		t.recorder.Acknowledgment("not_found")
		return Receipt{}, fmt.Errorf("acknowledge %q: %w", id, err)
	}
	if !transitioned {
		t.recorder.Acknowledgment("already_acknowledged")
		return Receipt{Alert: a}, ErrAlreadyAcknowledged
	}
	t.recorder.Acknowledgment("acknowledged")

	o := types.NotificationOutcome{
		EventID: uuid.NewString(),
		AlertID: a.ID,
		Code:    a.Code,
		Team:    a.Team,
		At:      t.now(),
	}
	done := make(chan types.NotificationOutcome, 1)

	endpoint, err := t.notifier.Endpoint(a)
	if err != nil {
		o.State = types.NotificationNoEndpoint
		o.Error = err.Error()
		slog.Warn("ack: no notification endpoint",
			"alert_id", a.ID,
			"team", a.Team,
			"event_id", o.EventID,
		)
		t.finish(o, done)
		return Receipt{Alert: a, Notification: o, Done: done}, nil
	}

	o.State = types.NotificationPending
	o.Endpoint = notify.Redact(endpoint)
	slog.Info("ack: alert acknowledged",
		"alert_id", a.ID,
		"team", a.Team,
		"event_id", o.EventID,
		"endpoint", o.Endpoint,
	)

	t.wg.Add(1)
	go t.deliver(endpoint, a, o, done)

	return Receipt{Alert: a, Notification: o, Done: done}, nil
}

// Wait blocks until every in-flight delivery has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Shutdown waits for in-flight deliveries until ctx is done, then aborts
// whatever is left and waits for those to record their outcome. It returns
// ctx.Err() when deliveries had to be aborted.
func (t *Tracker) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		return nil
	case <-ctx.Done():
		t.cancel()
		<-done
		return ctx.Err()
	}
}

func (t *Tracker) deliver(endpoint string, a types.Alert, o types.NotificationOutcome, done chan<- types.NotificationOutcome) {
	defer t.wg.Done()

	err := t.notifier.Send(t.ctx, endpoint, a)
	o.At = t.now()
	if err != nil {
		o.State = types.NotificationFailed
		o.Error = err.Error()
		slog.Error("ack: notification delivery failed",
			"alert_id", a.ID,
			"event_id", o.EventID,
			"err", err,
		)
	} else {
		o.State = types.NotificationSent
	}
	t.finish(o, done)
}

func (t *Tracker) finish(o types.NotificationOutcome, done chan<- types.NotificationOutcome) {
	if t.journal != nil {
		t.journal.Record(o)
	}
	t.recorder.Notification(o.State)
	if t.onOutcome != nil {
		t.onOutcome(o)
	}
	done <- o
	close(done)
}
