// Package history keeps a bounded, linear undo/redo log of immutable values.
package history

// DefaultLimit is the number of entries kept before the oldest is evicted.
const DefaultLimit = 50

// Log is an ordered list of entries and a cursor pointing at the current one.
//
// Entries are stored as given and never modified. Pushing after an undo
// discards the redo tail; there is no branching.
type Log[T any] struct {
	entries []T
	cursor  int
	limit   int
}

// State is the serializable form of a Log.
type State[T any] struct {
	Entries []T `json:"entries"`
	Cursor  int `json:"cursor"`
}

// New returns a log holding only initial, with the default limit.
func New[T any](initial T) *Log[T] {
	return NewWithLimit(initial, DefaultLimit)
}

// NewWithLimit returns a log holding only initial. A limit below 1 uses DefaultLimit.
func NewWithLimit[T any](initial T, limit int) *Log[T] {
	if limit < 1 {
		limit = DefaultLimit
	}
	l := &Log[T]{limit: limit}
	l.Reset(initial)
	return l
}

// Push records v as the new current entry.
func (l *Log[T]) Push(v T) {
	// Drop the redo tail.
	var zero T
	for i := l.cursor + 1; i < len(l.entries); i++ {
		l.entries[i] = zero
	}
	l.entries = append(l.entries[:l.cursor+1], v)

	if len(l.entries) > l.limit {
		n := copy(l.entries, l.entries[1:])
		l.entries[n] = zero
		l.entries = l.entries[:n]
	}
	l.cursor = len(l.entries) - 1
}

// Undo moves the cursor back one entry. It reports false at the oldest entry.
func (l *Log[T]) Undo() bool {
	if l.cursor == 0 {
		return false
	}
	l.cursor--
	return true
}

// Redo moves the cursor forward one entry. It reports false at the newest entry.
func (l *Log[T]) Redo() bool {
	if l.cursor >= len(l.entries)-1 {
		return false
	}
	l.cursor++
	return true
}

// Reset replaces the whole log with a single entry.
func (l *Log[T]) Reset(v T) {
	l.entries = make([]T, 1, l.limit+1)
	l.entries[0] = v
	l.cursor = 0
}

// Current returns the entry under the cursor.
func (l *Log[T]) Current() T {
	return l.entries[l.cursor]
}

func (l *Log[T]) CanUndo() bool { return l.cursor > 0 }
func (l *Log[T]) CanRedo() bool { return l.cursor < len(l.entries)-1 }
func (l *Log[T]) Len() int      { return len(l.entries) }
func (l *Log[T]) Cursor() int   { return l.cursor }
func (l *Log[T]) Limit() int    { return l.limit }

// State returns a copy of the entries and the cursor.
func (l *Log[T]) State() State[T] {
	entries := make([]T, len(l.entries))
	copy(entries, l.entries)
	return State[T]{Entries: entries, Cursor: l.cursor}
}

// Restore replaces the log with a previously saved state.
//
// Only the newest Limit entries are kept and the cursor is clamped into range.
// An empty state leaves the log untouched and reports false.
func (l *Log[T]) Restore(st State[T]) bool {
	if len(st.Entries) == 0 {
		return false
	}
	entries := st.Entries
	cursor := st.Cursor
	if over := len(entries) - l.limit; over > 0 {
		entries = entries[over:]
		cursor -= over
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(entries)-1 {
		cursor = len(entries) - 1
	}
	l.entries = make([]T, len(entries), l.limit+1)
	copy(l.entries, entries)
	l.cursor = cursor
	return true
}
