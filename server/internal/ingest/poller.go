package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/metrics"
)

// ErrSuperseded is returned by Refresh when a newer fetch was applied before
// this one finished. The result was discarded; it is not a failure.
var ErrSuperseded = errors.New("ingest: result superseded by a newer fetch")

// Loader is the write side of the alert store.
type Loader interface {
	Load(seq uint64, alerts []types.Alert) bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithRecorder counts ingestion runs in r.
func WithRecorder(r *metrics.Recorder) PollerOption {
	return func(p *Poller) { p.recorder = r }
}

// WithOnLoad calls fn after every applied load with the number of alerts.
func WithOnLoad(fn func(n int)) PollerOption {
	return func(p *Poller) { p.onLoad = fn }
}

// Poller periodically fetches from a Source and loads the result.
type Poller struct {
	src      Source
	store    Loader
	interval time.Duration
	timeout  time.Duration
	recorder *metrics.Recorder
	onLoad   func(n int)
	now      func() time.Time

	seq atomic.Uint64

	mu        sync.Mutex
	status    types.IngestStatus
	statusSeq uint64 // seq of the fetch that last wrote status
}

// NewPoller returns a Poller. timeout bounds each fetch.
func NewPoller(src Source, st Loader, interval, timeout time.Duration, opts ...PollerOption) *Poller {
	p := &Poller{
		src:      src,
		store:    st,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		status:   types.IngestStatus{Source: src.Name()},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Refresh fetches once and loads the result. It returns the number of alerts
// loaded. On a fetch error the store is left untouched and the error is kept
// in Status until dismissed or superseded by a success.
func (p *Poller) Refresh(ctx context.Context) (int, error) {
	seq := p.seq.Add(1)
	started := p.now()

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	alerts, err := p.src.Fetch(fetchCtx)
	cancel()

	if err != nil {
		p.recorder.IngestRun("error")
		p.setStatus(seq, func(s *types.IngestStatus) {
			s.LastAttempt = &started
			s.LastError = err.Error()
		})
		slog.Warn("ingest: fetch failed, keeping previous alerts",
			"source", p.src.Name(),
			"seq", seq,
			"err", err,
		)
		return 0, fmt.Errorf("ingest %s: %w", p.src.Name(), err)
	}

	if !p.store.Load(seq, alerts) {
		p.recorder.IngestRun("stale")
		return 0, ErrSuperseded
	}

	p.recorder.IngestRun("ok")
	p.setStatus(seq, func(s *types.IngestStatus) {
		s.LastAttempt = &started
		s.LastSuccess = &started
		s.LastError = ""
		s.AlertCount = len(alerts)
	})
	slog.Info("ingest: alerts loaded",
		"source", p.src.Name(),
		"seq", seq,
		"count", len(alerts),
	)
	if p.onLoad != nil {
		p.onLoad(len(alerts))
	}
	return len(alerts), nil
}

// Run refreshes immediately and then every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.Refresh(ctx) //nolint:errcheck // logged and kept in Status

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Refresh(ctx) //nolint:errcheck
		}
	}
}

// Status returns a copy of the current ingestion status.
func (p *Poller) Status() types.IngestStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// DismissError clears the last error and reports whether there was one.
func (p *Poller) DismissError() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	had := p.status.LastError != ""
	p.status.LastError = ""
	return had
}

// setStatus applies fn unless a newer fetch already reported.
func (p *Poller) setStatus(seq uint64, fn func(*types.IngestStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq < p.statusSeq {
		return
	}
	p.statusSeq = seq
	fn(&p.status)
}
