package query

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marksheet/internal/store"
	"marksheet/pkg/contracts/domain"
)

const testDebounce = 20 * time.Millisecond

func loadedStore(t *testing.T, names ...string) *store.Store {
	t.Helper()

	records := make([]domain.StudentRecord, len(names))
	for i, name := range names {
		records[i] = domain.StudentRecord{Name: name, Rank: i + 1, Total: float64(100 - i)}
	}

	st := store.New(nil)
	token := st.BeginLoad()
	require.True(t, st.Publish(token, records, domain.Averages{}))
	return st
}

func waitForQuery(t *testing.T, l *Lane, query string) LaneState {
	t.Helper()

	var state LaneState
	require.Eventually(t, func() bool {
		state = l.State()
		return state.Query == query && state.Suggestions != nil
	}, time.Second, 5*time.Millisecond, "lane never settled for %q", query)
	return state
}

func TestLane_SubstringSuggestions(t *testing.T) {
	st := loadedStore(t, "Aaron Smith", "Mary Aarons", "Bob Jones")
	l := NewLane("lookup", st, testDebounce, nil)

	l.Submit("aaro")
	state := waitForQuery(t, l, "aaro")

	require.Len(t, state.Suggestions, 2)
	// Suggestions carry the dataset's rank order.
	assert.Equal(t, "Aaron Smith", state.Suggestions[0].Name)
	assert.Equal(t, "Mary Aarons", state.Suggestions[1].Name)
	assert.Nil(t, state.Resolved, "substring match alone must not resolve")
}

func TestLane_ExactMatchResolves(t *testing.T) {
	st := loadedStore(t, "Aaron Smith", "Bob Jones")
	l := NewLane("lookup", st, testDebounce, nil)

	l.Submit("aaron smith")
	state := waitForQuery(t, l, "aaron smith")

	require.NotNil(t, state.Resolved)
	assert.Equal(t, "Aaron Smith", state.Resolved.Name)
	assert.Equal(t, 1, state.Resolved.Rank)
}

func TestLane_EmptySubmissionClearsImmediately(t *testing.T) {
	st := loadedStore(t, "Aaron Smith")
	l := NewLane("lookup", st, testDebounce, nil)

	l.Submit("aaron smith")
	waitForQuery(t, l, "aaron smith")

	l.Submit("")
	state := l.State()
	assert.Empty(t, state.Query)
	assert.Nil(t, state.Suggestions)
	assert.Nil(t, state.Resolved)
}

func TestLane_RapidSubmissionsCoalesce(t *testing.T) {
	st := loadedStore(t, "Aaron Smith", "Bob Jones")

	var evaluations atomic.Int32
	l := NewLane("lookup", st, testDebounce, func(string) { evaluations.Add(1) })

	// All within one debounce window; only the last text gets evaluated.
	l.Submit("a")
	l.Submit("aa")
	l.Submit("bob jones")

	state := waitForQuery(t, l, "bob jones")
	require.NotNil(t, state.Resolved)
	assert.Equal(t, "Bob Jones", state.Resolved.Name)

	// Give any stray timer time to fire before counting.
	time.Sleep(3 * testDebounce)
	assert.Equal(t, int32(1), evaluations.Load())
}

func TestLane_ResetInvalidatesPendingEvaluation(t *testing.T) {
	st := loadedStore(t, "Aaron Smith")
	l := NewLane("lookup", st, testDebounce, nil)

	l.Submit("aaron")
	l.Reset()

	time.Sleep(3 * testDebounce)
	state := l.State()
	assert.Empty(t, state.Query)
	assert.Nil(t, state.Suggestions)
}

func TestLane_NoEvaluationWithoutDataset(t *testing.T) {
	st := store.New(nil)
	l := NewLane("lookup", st, testDebounce, nil)

	l.Submit("anyone")
	time.Sleep(3 * testDebounce)

	state := l.State()
	assert.Equal(t, "anyone", state.Query)
	assert.Nil(t, state.Suggestions)
	assert.Nil(t, state.Resolved)
}

func TestEngine_LanesAreIndependent(t *testing.T) {
	st := loadedStore(t, "Aaron Smith", "Bob Jones")
	e := NewEngine(st, testDebounce, nil)

	require.NoError(t, e.Submit("compare-a", "aaron smith"))
	require.NoError(t, e.Submit("compare-b", "bob jones"))

	require.Eventually(t, func() bool {
		_, _, ok := e.Compare()
		return ok
	}, time.Second, 5*time.Millisecond)

	a, b, ok := e.Compare()
	require.True(t, ok)
	assert.Equal(t, "Aaron Smith", a.Name)
	assert.Equal(t, "Bob Jones", b.Name)

	// The lookup lane stayed untouched.
	state, err := e.State("lookup")
	require.NoError(t, err)
	assert.Empty(t, state.Query)
}

func TestEngine_UnknownLane(t *testing.T) {
	st := store.New(nil)
	e := NewEngine(st, testDebounce, nil)

	assert.Error(t, e.Submit("sideways", "text"))
	_, err := e.State("sideways")
	assert.Error(t, err)
}

func TestEngine_StoreReloadClearsLanes(t *testing.T) {
	st := loadedStore(t, "Aaron Smith")
	e := NewEngine(st, testDebounce, nil)

	require.NoError(t, e.Submit("lookup", "aaron smith"))
	require.Eventually(t, func() bool {
		state, _ := e.State("lookup")
		return state.Resolved != nil
	}, time.Second, 5*time.Millisecond)

	// A new load supersedes the dataset the lane resolved against.
	st.BeginLoad()

	state, err := e.State("lookup")
	require.NoError(t, err)
	assert.Nil(t, state.Resolved)
	assert.Empty(t, state.Query)
}
