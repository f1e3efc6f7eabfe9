package store

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"

	"github.com/ciops/alertdesk/pkg/types"
)

// ErrNotFound is returned when an operation names an alert id that is not in
// the store. It signals a caller error and must not be retried.
var ErrNotFound = errors.New("alert not found")

// Store is a thread-safe in-memory alert repository.
// All mutation funnels through Load and UpsertAcknowledgment; every read
// returns copies so callers never observe a later mutation.
type Store struct {
	mu       sync.RWMutex
	alerts   []*types.Alert // display order, as delivered by the source
	index    map[string]*types.Alert
	acked    map[string]*time.Time // every id seen acknowledged; nil time for upstream seeds
	seq      uint64               // sequence number of the last applied Load
	loadedAt time.Time
	now      func() time.Time // injectable for deterministic tests

	subMu sync.Mutex
	subs  []chan struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		index: make(map[string]*types.Alert),
		acked: make(map[string]*time.Time),
		now:   time.Now,
	}
}

// Load replaces the store contents with alerts, preserving their order.
//
// seq is the sequence number the caller stamped on the fetch that produced
// alerts. A Load whose seq is not greater than the last applied one is a
// stale result and is discarded; Load then returns false.
//
// The first occurrence of a duplicated id wins. An alert once seen
// acknowledged, by an operator or by an upstream seed, stays acknowledged
// regardless of the seed value carried by later batches.
func (s *Store) Load(seq uint64, alerts []types.Alert) bool {
	s.mu.Lock()
	if seq <= s.seq {
		s.mu.Unlock()
		slog.Debug("store: discarded stale load", "seq", seq, "current_seq", s.seq)
		return false
	}

	next := make([]*types.Alert, 0, len(alerts))
	index := make(map[string]*types.Alert, len(alerts))
	for i := range alerts {
		a := alerts[i]
		if _, dup := index[a.ID]; dup {
			slog.Warn("store: duplicate alert id in batch, keeping first", "alert_id", a.ID)
			continue
		}
		if at, ok := s.acked[a.ID]; ok {
			a.Acknowledged = true
			a.AcknowledgedAt = at
		} else if a.Acknowledged {
			s.acked[a.ID] = a.AcknowledgedAt
		}
		next = append(next, &a)
		index[a.ID] = &a
	}

	s.alerts = next
	s.index = index
	s.seq = seq
	s.loadedAt = s.now()
	s.mu.Unlock()

	s.publish()
	return true
}

// UpsertAcknowledgment marks the alert with the given id as acknowledged.
//
// The check and the set happen under the write lock, so of any number of
// concurrent calls for one id exactly one observes transitioned == true.
// The returned Alert reflects the state after the call.
func (s *Store) UpsertAcknowledgment(id string) (types.Alert, bool, error) {
	s.mu.Lock()
	a, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return types.Alert{}, false, ErrNotFound
	}
	if a.Acknowledged {
		out := *a
		s.mu.Unlock()
		return out, false, nil
	}

	at := s.now()
	a.Acknowledged = true
	a.AcknowledgedAt = &at
	s.acked[id] = &at
	out := *a
	s.mu.Unlock()

	s.publish()
	return out, true, nil
}

// Get returns a copy of the alert with the given id and whether it was found.
func (s *Store) Get(id string) (types.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.index[id]
	if !ok {
		return types.Alert{}, false
	}
	return *a, true
}

// List returns copies of all alerts in display order.
func (s *Store) List() []types.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, *a)
	}
	return out
}

// Count returns the number of alerts currently held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// Teams returns the distinct non-empty team names, sorted.
func (s *Store) Teams() []string {
	s.mu.RLock()
	set := mapset.NewSet()
	for _, a := range s.alerts {
		if a.Team != "" {
			set.Add(a.Team)
		}
	}
	s.mu.RUnlock()

	out := make([]string, 0, set.Cardinality())
	for v := range set.Iter() {
		out = append(out, v.(string))
	}
	sort.Strings(out)
	return out
}

// LoadedAt returns the time of the last applied Load, or the zero time.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Subscribe returns a channel that receives a value after every mutation.
// Notifications coalesce: a slow reader sees at most one pending signal.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
