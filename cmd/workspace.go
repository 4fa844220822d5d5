package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/codec"
	"github.com/msalah0e/relmap/internal/editor"
	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/storage"
	"github.com/msalah0e/relmap/internal/ui"
)

// workspace is an editing session backed by the configured storage.
type workspace struct {
	store    *editor.Store
	repo     *storage.Repository
	gen      graph.Generator
	logger   *zap.Logger
	location string
}

// openWorkspace restores the saved history and snapshot. A snapshot newer
// than the saved history becomes one more undoable step.
func (a *app) openWorkspace(ctx context.Context) (*workspace, error) {
	kv, err := storage.Open(a.cfg.Storage)
	if err != nil {
		return nil, err
	}
	repo := storage.NewRepository(kv, a.logger, a.metrics)
	gen := graph.NewGenerator()

	store := editor.New(nil, editor.Options{
		Limit:     a.cfg.Editor.HistoryLimit,
		Generator: gen,
		Logger:    a.logger,
		Metrics:   a.metrics,
	})

	st, hasHistory := repo.LoadHistory(ctx)
	if hasHistory {
		hasHistory = store.RestoreHistory(st)
	}
	if snap, ok := repo.Restore(ctx); ok {
		switch {
		case !hasHistory:
			store.Load(snap)
		case !sameSnapshot(snap, store.Snapshot()):
			a.logger.Debug("saved snapshot is newer than saved history")
			store.Replace(snap)
		}
	}

	return &workspace{
		store:    store,
		repo:     repo,
		gen:      gen,
		logger:   a.logger,
		location: describe(kv),
	}, nil
}

// Persist saves the undo log and its current entry together. It lets a
// workspace back an AutoSaver; s is only used when the log is unreadable, so
// a late save never writes a snapshot older than the history beside it.
func (w *workspace) Persist(ctx context.Context, s *graph.Snapshot) error {
	st := w.store.History()
	if st.Cursor >= 0 && st.Cursor < len(st.Entries) {
		s = st.Entries[st.Cursor]
	}
	if err := w.repo.Persist(ctx, s); err != nil {
		return err
	}
	return w.repo.SaveHistory(ctx, st)
}

// save persists the current state.
func (w *workspace) save(ctx context.Context) error {
	return w.Persist(ctx, w.store.Snapshot())
}

func (w *workspace) Close() {
	if err := w.repo.Close(); err != nil {
		w.logger.Warn("close storage", zap.Error(err))
	}
}

func sameSnapshot(a, b *graph.Snapshot) bool {
	if a == b {
		return true
	}
	ea, errA := codec.EncodeJSON(a)
	eb, errB := codec.EncodeJSON(b)
	return errA == nil && errB == nil && bytes.Equal(ea, eb)
}

func describe(kv storage.KV) string {
	switch s := kv.(type) {
	case *storage.FileKV:
		return s.Dir()
	case *storage.SQLiteKV:
		return s.Path()
	default:
		return "memory"
	}
}

// ─── Lookup ───

// findPerson resolves ref as an id, an exact name, or a unique id prefix.
func findPerson(s *graph.Snapshot, ref string) (*graph.Person, error) {
	if p := s.Person(ref); p != nil {
		return p, nil
	}
	if p := s.PersonByName(ref); p != nil {
		return p, nil
	}
	var match *graph.Person
	for _, p := range s.Persons {
		if strings.HasPrefix(p.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one person", ref)
			}
			match = p
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no person %q", ref)
	}
	return match, nil
}

// findRelation resolves ref as an id or a unique id prefix.
func findRelation(s *graph.Snapshot, ref string) (*graph.Relation, error) {
	if r := s.Relation(ref); r != nil {
		return r, nil
	}
	var match *graph.Relation
	for _, r := range s.Relations {
		if strings.HasPrefix(r.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one relation", ref)
			}
			match = r
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no relation %q", ref)
	}
	return match, nil
}

// personName returns the name of id, or its short id when the person is gone.
func personName(s *graph.Snapshot, id string) string {
	if p := s.Person(id); p != nil {
		return p.Name
	}
	return "?" + ui.Short(id)
}
