package query

import (
	"fmt"
	"time"

	"marksheet/internal/config"
	"marksheet/internal/infrastructure"
	"marksheet/internal/store"
	"marksheet/pkg/contracts/domain"
)

// Engine owns the three query lanes (single lookup plus the two comparison
// slots). The lanes share one dataset store but never share debounce state.
// The engine clears every lane when the store begins a load, since whatever
// the lanes resolved came from a dataset that is about to disappear.
type Engine struct {
	lanes map[string]*Lane
}

// NewEngine creates the lanes and subscribes them to store resets.
func NewEngine(st *store.Store, debounce time.Duration, metrics *infrastructure.Metrics) *Engine {
	onEvaluate := func(string) {}
	if metrics != nil {
		onEvaluate = func(lane string) {
			metrics.QueryEvaluations.WithLabelValues(lane).Inc()
		}
	}

	e := &Engine{lanes: make(map[string]*Lane, len(config.Lanes))}
	for _, id := range config.Lanes {
		e.lanes[id] = NewLane(id, st, debounce, onEvaluate)
	}

	st.Subscribe(func(ev store.Event) {
		if ev.Type == store.EventLoadStarted {
			e.Reset()
		}
	})

	return e
}

// Submit forwards query text to the named lane.
func (e *Engine) Submit(lane, text string) error {
	l, ok := e.lanes[lane]
	if !ok {
		return fmt.Errorf("unknown query lane: %q", lane)
	}
	l.Submit(text)
	return nil
}

// State returns the named lane's current state.
func (e *Engine) State(lane string) (LaneState, error) {
	l, ok := e.lanes[lane]
	if !ok {
		return LaneState{}, fmt.Errorf("unknown query lane: %q", lane)
	}
	return l.State(), nil
}

// Compare returns the two comparison lanes' resolutions. A comparison
// exists only when both lanes independently resolve.
func (e *Engine) Compare() (a, b *domain.StudentRecord, ok bool) {
	a = e.lanes[config.LaneCompareA].State().Resolved
	b = e.lanes[config.LaneCompareB].State().Resolved
	return a, b, a != nil && b != nil
}

// Reset clears all lanes.
func (e *Engine) Reset() {
	for _, l := range e.lanes {
		l.Reset()
	}
}
