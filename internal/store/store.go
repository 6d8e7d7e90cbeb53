package store

import (
	"log/slog"
	"sync"
	"time"

	"marksheet/pkg/contracts/domain"
)

// EventType identifies a dataset lifecycle transition.
type EventType string

const (
	EventLoadStarted EventType = "load_started"
	EventPublished   EventType = "published"
	EventLoadFailed  EventType = "load_failed"
)

// Event describes one lifecycle transition of the dataset store.
type Event struct {
	Type    EventType
	Records int
	Err     error
}

// Store holds the single current ranked dataset plus its aggregates.
// All mutation goes through BeginLoad, Publish and FailLoad; readers only
// ever see the latest published snapshot, never a partially constructed one.
//
// BeginLoad hands out a load token, and Publish/FailLoad are ignored unless
// they carry the token of the most recent BeginLoad. A superseded load
// therefore cannot overwrite the state of a newer one.
type Store struct {
	mu       sync.RWMutex
	records  []domain.StudentRecord
	averages domain.Averages
	loaded   bool
	loading  bool
	loadedAt time.Time
	loadSeq  uint64

	subMu  sync.RWMutex
	subs   []func(Event)
	logger *slog.Logger
}

// New creates an empty, unloaded store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger: logger.With(slog.String("component", "dataset_store")),
	}
}

// Subscribe registers a listener for lifecycle events. Listeners run
// synchronously after the state transition, outside the store lock, in
// registration order.
func (s *Store) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

// BeginLoad marks the dataset as loading and returns the load token the
// eventual Publish or FailLoad must present. Any previously published data
// is about to become stale, so the loaded flag drops immediately and
// subscribers (the query lanes among them) are told to clear.
func (s *Store) BeginLoad() uint64 {
	s.mu.Lock()
	s.loadSeq++
	token := s.loadSeq
	s.loading = true
	s.loaded = false
	s.mu.Unlock()

	s.notify(Event{Type: EventLoadStarted})
	return token
}

// Publish atomically replaces the current snapshot with the given records
// and averages, which must have been produced together. Returns false when
// the token has been superseded by a newer BeginLoad, in which case nothing
// changes.
func (s *Store) Publish(token uint64, records []domain.StudentRecord, averages domain.Averages) bool {
	s.mu.Lock()
	if token != s.loadSeq {
		s.mu.Unlock()
		s.logger.Warn("discarding superseded publish",
			slog.Uint64("token", token),
			slog.Uint64("current", s.loadSeq))
		return false
	}
	s.records = records
	s.averages = averages
	s.loaded = true
	s.loading = false
	s.loadedAt = time.Now()
	count := len(records)
	s.mu.Unlock()

	s.logger.Info("dataset published", slog.Int("records", count))
	s.notify(Event{Type: EventPublished, Records: count})
	return true
}

// FailLoad records a failed refresh: the store returns to the unloaded
// state and retains no partial data. Returns false when the token has been
// superseded.
func (s *Store) FailLoad(token uint64, err error) bool {
	s.mu.Lock()
	if token != s.loadSeq {
		s.mu.Unlock()
		return false
	}
	s.records = nil
	s.averages = nil
	s.loaded = false
	s.loading = false
	s.mu.Unlock()

	s.logger.Warn("dataset load failed", slog.String("error", err.Error()))
	s.notify(Event{Type: EventLoadFailed, Err: err})
	return true
}

// Snapshot returns the current dataset view. Records and averages are from
// the same publish. The returned slice and map are shared and must be
// treated as read-only; publishes replace them wholesale rather than
// mutating in place.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{
		Records:  s.records,
		Averages: s.averages,
		Loaded:   s.loaded,
		Loading:  s.loading,
		LoadedAt: s.loadedAt,
	}
}

// Loaded reports whether a dataset is currently published.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) notify(ev Event) {
	s.subMu.RLock()
	subs := append([]func(Event){}, s.subs...)
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
