package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marksheet/pkg/contracts/domain"
)

func TestStore_LoadCycle(t *testing.T) {
	st := New(nil)

	assert.False(t, st.Loaded())
	snap := st.Snapshot()
	assert.False(t, snap.Loaded)
	assert.False(t, snap.Loading)

	token := st.BeginLoad()
	snap = st.Snapshot()
	assert.True(t, snap.Loading)
	assert.False(t, snap.Loaded)

	records := []domain.StudentRecord{{Name: "Alice", Rank: 1}}
	averages := domain.Averages{"FA1": "5.00"}
	require.True(t, st.Publish(token, records, averages))

	snap = st.Snapshot()
	assert.True(t, snap.Loaded)
	assert.False(t, snap.Loading)
	assert.Equal(t, records, snap.Records)
	assert.Equal(t, averages, snap.Averages)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestStore_FailLoadClearsEverything(t *testing.T) {
	st := New(nil)

	token := st.BeginLoad()
	require.True(t, st.Publish(token, []domain.StudentRecord{{Name: "Alice"}}, domain.Averages{}))

	token = st.BeginLoad()
	require.True(t, st.FailLoad(token, errors.New("feed unreachable")))

	snap := st.Snapshot()
	assert.False(t, snap.Loaded)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Records)
	assert.Nil(t, snap.Averages)
}

func TestStore_SupersededTokensAreIgnored(t *testing.T) {
	st := New(nil)

	stale := st.BeginLoad()
	fresh := st.BeginLoad()

	assert.False(t, st.Publish(stale, []domain.StudentRecord{{Name: "Old"}}, nil))
	assert.False(t, st.Loaded())

	require.True(t, st.Publish(fresh, []domain.StudentRecord{{Name: "New"}}, nil))
	assert.Equal(t, "New", st.Snapshot().Records[0].Name)

	// A stale failure must not wipe the fresher publish either.
	assert.False(t, st.FailLoad(stale, errors.New("late failure")))
	assert.True(t, st.Loaded())
}

func TestStore_SubscribersObserveLifecycle(t *testing.T) {
	st := New(nil)

	var events []Event
	st.Subscribe(func(ev Event) {
		events = append(events, ev)
	})

	token := st.BeginLoad()
	st.Publish(token, []domain.StudentRecord{{Name: "Alice"}, {Name: "Bob"}}, nil)

	token = st.BeginLoad()
	st.FailLoad(token, errors.New("boom"))

	require.Len(t, events, 4)
	assert.Equal(t, EventLoadStarted, events[0].Type)
	assert.Equal(t, EventPublished, events[1].Type)
	assert.Equal(t, 2, events[1].Records)
	assert.Equal(t, EventLoadStarted, events[2].Type)
	assert.Equal(t, EventLoadFailed, events[3].Type)
	assert.EqualError(t, events[3].Err, "boom")
}
