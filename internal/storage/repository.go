package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/codec"
	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/history"
	"github.com/msalah0e/relmap/internal/metrics"
)

// Storage keys.
const (
	SnapshotKey = "human-relation-map-data"
	HistoryKey  = "human-relation-map-history"
)

// Repository reads and writes snapshots and undo history through a KV.
type Repository struct {
	kv      KV
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewRepository wraps kv. logger and m may be nil.
func NewRepository(kv KV, logger *zap.Logger, m *metrics.Collector) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{kv: kv, logger: logger, metrics: m}
}

// Restore returns the saved snapshot. Missing, unreadable or corrupt data is
// reported as absent; corruption is logged.
func (r *Repository) Restore(ctx context.Context) (*graph.Snapshot, bool) {
	data, ok, err := r.kv.Get(ctx, SnapshotKey)
	if err != nil {
		r.logger.Warn("failed to read saved snapshot", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	s, err := codec.DecodeJSON(data)
	if err != nil {
		r.logger.Warn("ignoring corrupt saved snapshot", zap.Error(err))
		return nil, false
	}
	return s, true
}

// Persist saves s as the current snapshot.
func (r *Repository) Persist(ctx context.Context, s *graph.Snapshot) error {
	data, err := codec.EncodeJSON(s)
	if err == nil {
		err = r.kv.Put(ctx, SnapshotKey, data)
	}
	r.metrics.Persisted(err)
	if err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// LoadHistory returns the saved undo log, if any.
func (r *Repository) LoadHistory(ctx context.Context) (history.State[*graph.Snapshot], bool) {
	var st history.State[*graph.Snapshot]
	data, ok, err := r.kv.Get(ctx, HistoryKey)
	if err != nil {
		r.logger.Warn("failed to read saved history", zap.Error(err))
		return st, false
	}
	if !ok {
		return st, false
	}
	if err := json.Unmarshal(data, &st); err != nil {
		r.logger.Warn("ignoring corrupt saved history", zap.Error(err))
		return history.State[*graph.Snapshot]{}, false
	}

	entries := st.Entries[:0]
	for _, e := range st.Entries {
		if e != nil {
			entries = append(entries, e)
		}
	}
	st.Entries = entries
	return st, len(entries) > 0
}

// SaveHistory saves the undo log.
func (r *Repository) SaveHistory(ctx context.Context, st history.State[*graph.Snapshot]) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.kv.Put(ctx, HistoryKey, data); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// Clear removes the saved snapshot and history.
func (r *Repository) Clear(ctx context.Context) error {
	for _, key := range []string{SnapshotKey, HistoryKey} {
		if err := r.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

// Close closes the underlying store.
func (r *Repository) Close() error {
	return r.kv.Close()
}
