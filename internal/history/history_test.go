package history

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLog(t *testing.T) {
	l := New("a")
	require.Equal(t, "a", l.Current())
	require.Equal(t, 1, l.Len())
	require.Equal(t, DefaultLimit, l.Limit())
	require.False(t, l.CanUndo())
	require.False(t, l.CanRedo())
	require.False(t, l.Undo())
	require.False(t, l.Redo())
}

func TestUndoAllThenRedoAll(t *testing.T) {
	l := New(0)
	for i := 1; i <= 10; i++ {
		l.Push(i)
	}
	for i := 9; i >= 0; i-- {
		require.True(t, l.Undo())
		require.Equal(t, i, l.Current())
	}
	require.False(t, l.Undo())
	require.Equal(t, 0, l.Current())

	for i := 1; i <= 10; i++ {
		require.True(t, l.Redo())
		require.Equal(t, i, l.Current())
	}
	require.False(t, l.Redo())
}

func TestPushTruncatesRedoTail(t *testing.T) {
	l := New("s0")
	l.Push("s1")
	l.Push("s2")
	require.True(t, l.Undo())
	require.True(t, l.Undo())

	l.Push("s3")
	require.Equal(t, "s3", l.Current())
	require.Equal(t, 2, l.Len())
	require.False(t, l.CanRedo())
	require.True(t, l.Undo())
	require.Equal(t, "s0", l.Current())
}

func TestLimitEvictsOldest(t *testing.T) {
	l := New(0)
	for i := 1; i <= 60; i++ {
		l.Push(i)
	}
	require.Equal(t, DefaultLimit, l.Len())
	require.Equal(t, DefaultLimit-1, l.Cursor())
	require.Equal(t, 60, l.Current())

	for l.Undo() {
	}
	require.Equal(t, 11, l.Current(), "oldest retained entry")
}

func TestCustomLimit(t *testing.T) {
	l := NewWithLimit("a", 2)
	l.Push("b")
	l.Push("c")
	require.Equal(t, 2, l.Len())
	require.True(t, l.Undo())
	require.Equal(t, "b", l.Current())

	require.Equal(t, DefaultLimit, NewWithLimit("x", 0).Limit())
}

func TestReset(t *testing.T) {
	l := New(1)
	l.Push(2)
	l.Push(3)
	l.Reset(9)
	require.Equal(t, 1, l.Len())
	require.Equal(t, 9, l.Current())
	require.False(t, l.CanUndo())
}

func TestPushedEntriesAreNotModified(t *testing.T) {
	type rec struct{ v int }
	first := &rec{1}
	l := New(first)
	l.Push(&rec{2})
	l.Undo()
	require.Same(t, first, l.Current())
	require.Equal(t, 1, first.v)
}

func TestStateRoundTrip(t *testing.T) {
	l := New("a")
	l.Push("b")
	l.Push("c")
	l.Undo()

	data, err := json.Marshal(l.State())
	require.NoError(t, err)

	var st State[string]
	require.NoError(t, json.Unmarshal(data, &st))

	restored := New("")
	require.True(t, restored.Restore(st))
	require.Equal(t, "b", restored.Current())
	require.True(t, restored.CanRedo())
	require.True(t, restored.Redo())
	require.Equal(t, "c", restored.Current())
}

func TestRestoreClamps(t *testing.T) {
	l := NewWithLimit(0, 3)
	require.True(t, l.Restore(State[int]{Entries: []int{1, 2, 3, 4, 5}, Cursor: 1}))
	require.Equal(t, 3, l.Len())
	require.Equal(t, 0, l.Cursor())
	require.Equal(t, 3, l.Current())

	require.True(t, l.Restore(State[int]{Entries: []int{7, 8}, Cursor: 10}))
	require.Equal(t, 8, l.Current())

	require.False(t, l.Restore(State[int]{}))
	require.Equal(t, 8, l.Current())
}

func TestStateIsACopy(t *testing.T) {
	l := New("a")
	st := l.State()
	st.Entries[0] = "mutated"
	require.Equal(t, "a", l.Current())
}
