package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msalah0e/relmap/internal/config"
	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/history"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()
	sq, err := NewSQLite(filepath.Join(dir, "db", "relmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]KV{
		"memory":    NewMemory(),
		"file":      NewFile(filepath.Join(dir, "plain"), false),
		"encrypted": NewFile(filepath.Join(dir, "enc"), true),
		"sqlite":    sq,
	}
}

func TestKVContract(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, kv.Put(ctx, "k", []byte("one")))
			require.NoError(t, kv.Put(ctx, "k", []byte("two")))
			v, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "two", string(v))

			require.NoError(t, kv.Delete(ctx, "k"))
			require.NoError(t, kv.Delete(ctx, "k"))
			_, ok, err = kv.Get(ctx, "k")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestFileEncryptedOnDisk(t *testing.T) {
	dir := t.TempDir()
	kv := NewFile(dir, true)
	require.NoError(t, kv.Put(context.Background(), "secret", []byte(`{"name":"Alice"}`)))

	raw, err := os.ReadFile(filepath.Join(dir, "secret.enc"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "Alice")
}

func TestFileRejectsPathKeys(t *testing.T) {
	kv := NewFile(t.TempDir(), false)
	require.Error(t, kv.Put(context.Background(), "../escape", []byte("x")))
	_, _, err := kv.Get(context.Background(), "")
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RELMAP_STORAGE_DRIVER", "")
	t.Setenv("RELMAP_STORAGE_PATH", "")

	kv, err := Open(config.StorageConfig{Driver: "file"})
	require.NoError(t, err)
	require.IsType(t, &FileKV{}, kv)
	require.Equal(t, filepath.Join(config.ConfigDir(), "data"), kv.(*FileKV).Dir())

	kv, err = Open(config.StorageConfig{Driver: "sqlite"})
	require.NoError(t, err)
	require.IsType(t, &SQLiteKV{}, kv)
	require.NoError(t, kv.Close())

	_, err = Open(config.StorageConfig{Driver: "redis"})
	require.Error(t, err)
}

func TestOpenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RELMAP_STORAGE_DRIVER", "sqlite")
	t.Setenv("RELMAP_STORAGE_PATH", filepath.Join(dir, "override.db"))

	kv, err := Open(config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	defer kv.Close()
	require.Equal(t, filepath.Join(dir, "override.db"), kv.(*SQLiteKV).Path())
}

func sampleSnapshot() *graph.Snapshot {
	return &graph.Snapshot{
		Persons:   []*graph.Person{{ID: "a", Name: "Alice", X: 1, Y: 2}},
		Relations: []*graph.Relation{{ID: "r", From: "a", To: "a", Label: "me"}},
	}
}

func TestRepositorySnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemory(), nil, nil)

	_, ok := repo.Restore(ctx)
	require.False(t, ok)

	require.NoError(t, repo.Persist(ctx, sampleSnapshot()))
	got, ok := repo.Restore(ctx)
	require.True(t, ok)
	require.Equal(t, sampleSnapshot(), got)

	require.NoError(t, repo.Clear(ctx))
	_, ok = repo.Restore(ctx)
	require.False(t, ok)
}

func TestRepositoryCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, kv.Put(ctx, SnapshotKey, []byte("{not json")))
	require.NoError(t, kv.Put(ctx, HistoryKey, []byte("[")))

	repo := NewRepository(kv, nil, nil)
	_, ok := repo.Restore(ctx)
	require.False(t, ok)
	_, ok = repo.LoadHistory(ctx)
	require.False(t, ok)
}

func TestRepositoryHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemory(), nil, nil)

	log := history.New(graph.Empty())
	log.Push(sampleSnapshot())
	log.Undo()
	require.NoError(t, repo.SaveHistory(ctx, log.State()))

	st, ok := repo.LoadHistory(ctx)
	require.True(t, ok)
	require.Len(t, st.Entries, 2)
	require.Equal(t, 0, st.Cursor)
	require.Equal(t, sampleSnapshot(), st.Entries[1])
}
