package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/msalah0e/relmap/internal/graph"
)

type recordingPersister struct {
	mu    sync.Mutex
	saved []*graph.Snapshot
	err   error
}

func (p *recordingPersister) Persist(_ context.Context, s *graph.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, s)
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saved)
}

func (p *recordingPersister) last() *graph.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved[len(p.saved)-1]
}

func TestAutoSaverDebounces(t *testing.T) {
	p := &recordingPersister{}
	a := NewAutoSaver(p, 20*time.Millisecond, nil, nil)

	snaps := []*graph.Snapshot{graph.Empty(), graph.Empty(), graph.Empty()}
	for _, s := range snaps {
		a.Schedule(s)
	}

	require.Eventually(t, func() bool { return p.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Same(t, snaps[2], p.last())

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, p.count())
	require.EqualValues(t, 1, a.Saves())
}

func TestAutoSaverFlush(t *testing.T) {
	p := &recordingPersister{}
	a := NewAutoSaver(p, time.Hour, nil, nil)
	s := graph.Empty()
	a.Schedule(s)
	a.Flush(context.Background())

	require.Equal(t, 1, p.count())
	require.Same(t, s, p.last())

	a.Flush(context.Background())
	require.Equal(t, 1, p.count())
}

func TestAutoSaverFailuresAreCounted(t *testing.T) {
	p := &recordingPersister{err: errors.New("quota exceeded")}
	a := NewAutoSaver(p, time.Hour, nil, nil)
	a.Schedule(graph.Empty())
	a.Flush(context.Background())

	require.EqualValues(t, 1, a.Failures())
	require.EqualValues(t, 0, a.Saves())
}

func TestAutoSaverStop(t *testing.T) {
	p := &recordingPersister{}
	a := NewAutoSaver(p, 10*time.Millisecond, nil, nil)
	a.Schedule(graph.Empty())
	a.Stop()
	a.Schedule(graph.Empty())

	time.Sleep(40 * time.Millisecond)
	a.Flush(context.Background())
	require.Equal(t, 0, p.count())
}

func TestAutoSaverFollowsStore(t *testing.T) {
	p := &recordingPersister{}
	a := NewAutoSaver(p, time.Hour, nil, nil)
	s := newStore()
	s.Subscribe(a.Schedule)

	s.AddPerson(graph.PersonFields{Name: "A"})
	s.AddPerson(graph.PersonFields{Name: "B"})
	a.Flush(context.Background())

	require.Equal(t, 1, p.count())
	require.Same(t, s.Snapshot(), p.last())
}
