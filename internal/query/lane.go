package query

import (
	"strings"
	"sync"
	"time"

	"marksheet/internal/store"
	"marksheet/pkg/contracts/domain"
)

// LaneState is the externally visible state of one query lane: the raw text
// last submitted, the current suggestions in rank order, and at most one
// exact-match resolution.
type LaneState struct {
	Query       string                 `json:"query"`
	Suggestions []domain.StudentRecord `json:"suggestions"`
	Resolved    *domain.StudentRecord  `json:"resolved"`
}

// Lane is one independent debounced query slot over the dataset store.
// Rapid submissions within the debounce window coalesce into a single
// evaluation of the last text; each submission bumps a sequence number and
// an evaluation that finds itself stale discards its result instead of
// overwriting a newer one.
type Lane struct {
	id       string
	store    *store.Store
	debounce time.Duration

	// onEvaluate fires after an evaluation commits; used for metrics.
	onEvaluate func(lane string)

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
	state LaneState
}

// NewLane creates a lane with the given debounce window.
func NewLane(id string, st *store.Store, debounce time.Duration, onEvaluate func(lane string)) *Lane {
	return &Lane{
		id:         id,
		store:      st,
		debounce:   debounce,
		onEvaluate: onEvaluate,
	}
}

// Submit records new query text. Empty text clears suggestions and
// resolution immediately; anything else schedules a debounced evaluation
// that supersedes any still-pending one.
func (l *Lane) Submit(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	seq := l.seq
	l.state.Query = text

	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}

	if text == "" {
		l.state.Suggestions = nil
		l.state.Resolved = nil
		return
	}

	l.timer = time.AfterFunc(l.debounce, func() {
		l.evaluate(seq, text)
	})
}

// evaluate runs the suggestion and resolution match for one submission.
// Skipped entirely when no dataset is loaded; discarded when a newer
// submission has arrived in the meantime.
func (l *Lane) evaluate(seq uint64, text string) {
	snap := l.store.Snapshot()
	if !snap.Loaded {
		return
	}

	folded := strings.ToLower(text)
	var suggestions []domain.StudentRecord
	var resolved *domain.StudentRecord

	// Records are already in rank order, so suggestions inherit it.
	for _, rec := range snap.Records {
		if !strings.Contains(strings.ToLower(rec.Name), folded) {
			continue
		}
		suggestions = append(suggestions, rec)
		if resolved == nil && strings.EqualFold(rec.Name, text) {
			match := rec
			resolved = &match
		}
	}

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		return
	}
	l.state.Suggestions = suggestions
	l.state.Resolved = resolved
	l.mu.Unlock()

	if l.onEvaluate != nil {
		l.onEvaluate(l.id)
	}
}

// State returns a copy of the lane's current state.
func (l *Lane) State() LaneState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Reset clears the lane and invalidates any pending or in-flight
// evaluation. Called when the dataset is replaced or dropped.
func (l *Lane) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.state = LaneState{}
}
