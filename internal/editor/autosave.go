package editor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/metrics"
)

// DefaultAutosaveDelay is how long after the last change a snapshot is saved.
const DefaultAutosaveDelay = time.Second

// Persister stores a snapshot.
type Persister interface {
	Persist(ctx context.Context, s *graph.Snapshot) error
}

// AutoSaver persists the latest scheduled snapshot once changes have been
// quiet for the configured delay. Save failures are logged and counted and
// never reach the caller.
type AutoSaver struct {
	p       Persister
	delay   time.Duration
	logger  *zap.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	timer   *time.Timer
	pending *graph.Snapshot
	stopped bool

	saveMu   sync.Mutex
	saves    atomic.Int64
	failures atomic.Int64
}

// NewAutoSaver returns a saver writing through p. A delay of zero or less
// uses DefaultAutosaveDelay.
func NewAutoSaver(p Persister, delay time.Duration, logger *zap.Logger, m *metrics.Collector) *AutoSaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoSaver{p: p, delay: delay, logger: logger, metrics: m}
}

// Schedule marks s as the snapshot to save and restarts the quiet period.
// It has the signature Store.Subscribe expects.
func (a *AutoSaver) Schedule(s *graph.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = s
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

// Flush saves any pending snapshot now and waits for an in-flight save.
func (a *AutoSaver) Flush(ctx context.Context) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()

	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if s := a.take(); s != nil {
		a.save(ctx, s)
	}
}

// Stop cancels the pending save and ignores later schedules.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
	}
}

// Saves returns the number of successful saves.
func (a *AutoSaver) Saves() int64 { return a.saves.Load() }

// Failures returns the number of failed saves.
func (a *AutoSaver) Failures() int64 { return a.failures.Load() }

func (a *AutoSaver) fire() {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if s := a.take(); s != nil {
		a.save(context.Background(), s)
	}
}

func (a *AutoSaver) take() *graph.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.pending
	a.pending = nil
	return s
}

func (a *AutoSaver) save(ctx context.Context, s *graph.Snapshot) {
	err := a.p.Persist(ctx, s)
	a.metrics.Persisted(err)
	if err != nil {
		a.failures.Add(1)
		a.logger.Warn("autosave failed", zap.Error(err))
		return
	}
	a.saves.Add(1)
}
