package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msalah0e/relmap/internal/codec"
	"github.com/msalah0e/relmap/internal/graph"
)

// env isolates config and storage for one test.
type env struct {
	t    *testing.T
	data string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	t.Setenv("RELMAP_STORAGE_DRIVER", "")
	t.Setenv("RELMAP_STORAGE_PATH", "")

	dir := filepath.Join(cfgHome, "relmap")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[ui]\ncolor = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &env{t: t, data: t.TempDir()}
}

func (e *env) run(args ...string) (string, error) {
	return e.runWithInput("", args...)
}

func (e *env) runWithInput(input string, args ...string) (string, error) {
	e.t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(append([]string{"--data", e.data}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("relmap %v: %v\n%s", args, err, out)
	}
	return out
}

// snapshot reads the saved document.
func (e *env) snapshot() *graph.Snapshot {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.data, "human-relation-map-data.json"))
	if err != nil {
		e.t.Fatalf("read saved snapshot: %v", err)
	}
	s, err := codec.DecodeJSON(data)
	if err != nil {
		e.t.Fatalf("decode saved snapshot: %v", err)
	}
	return s
}

func TestRootEmptyMap(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun()
	if !strings.Contains(out, "Empty map") {
		t.Errorf("expected empty map hint, got %q", out)
	}
}

func TestPersonAddListShow(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice", "--phone", "555-0100")
	e.mustRun("person", "add", "Bob")

	out := e.mustRun("person", "list")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") {
		t.Errorf("list missing persons: %q", out)
	}

	out = e.mustRun("person", "list", "--search", "0100")
	if !strings.Contains(out, "Alice") || strings.Contains(out, "Bob") {
		t.Errorf("search should only find Alice: %q", out)
	}

	e.mustRun("relation", "add", "Alice", "Bob", "friend")
	out = e.mustRun("person", "show", "Alice")
	if !strings.Contains(out, "--friend--> Bob") {
		t.Errorf("show missing outgoing relation: %q", out)
	}

	s := e.snapshot()
	if len(s.Persons) != 2 || len(s.Relations) != 1 {
		t.Fatalf("expected 2 persons and 1 relation, got %d and %d", len(s.Persons), len(s.Relations))
	}
}

func TestPersonRemoveCascadesAndUndo(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")
	e.mustRun("person", "add", "Bob")
	e.mustRun("relation", "add", "Alice", "Bob", "friend")

	out := e.mustRun("person", "rm", "Alice")
	if !strings.Contains(out, "1 relation(s)") {
		t.Errorf("expected cascade count, got %q", out)
	}
	s := e.snapshot()
	if len(s.Persons) != 1 || s.Persons[0].Name != "Bob" || len(s.Relations) != 0 {
		t.Fatalf("unexpected state after rm: %+v", s)
	}

	// History survives across invocations.
	e.mustRun("undo")
	s = e.snapshot()
	if len(s.Persons) != 2 || len(s.Relations) != 1 {
		t.Fatalf("undo should restore Alice and the relation, got %d persons, %d relations", len(s.Persons), len(s.Relations))
	}

	e.mustRun("redo")
	if n := len(e.snapshot().Persons); n != 1 {
		t.Fatalf("redo should remove Alice again, got %d persons", n)
	}
}

func TestUndoNothing(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun("undo")
	if !strings.Contains(out, "Nothing to undo") {
		t.Errorf("expected nothing to undo, got %q", out)
	}
}

func TestRelationGuards(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")
	e.mustRun("person", "add", "Bob")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"self loop", []string{"relation", "add", "Alice", "Alice", "me"}, "themselves"},
		{"long label", []string{"relation", "add", "Alice", "Bob", "123456789"}, "label must be"},
		{"blank label", []string{"relation", "add", "Alice", "Bob", "  "}, "label must be"},
		{"unknown person", []string{"relation", "add", "Alice", "Carol", "x"}, "no person"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRelationUpdate(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")
	e.mustRun("person", "add", "Bob")
	e.mustRun("relation", "add", "Alice", "Bob", "friend")

	id := e.snapshot().Relations[0].ID
	e.mustRun("relation", "update", id[:8], "--label", "boss", "--note", "since 2020")

	r := e.snapshot().Relations[0]
	if r.Label != "boss" || r.Note != "since 2020" {
		t.Errorf("unexpected relation after update: %+v", r)
	}

	if _, err := e.run("relation", "update", id, "--to", "Alice"); err == nil {
		t.Error("expected self-loop update to fail")
	}
}

func TestMergeKeepSecond(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")
	e.mustRun("person", "add", "Alicia")
	e.mustRun("person", "add", "Bob")
	e.mustRun("relation", "add", "Alice", "Bob", "friend")
	e.mustRun("relation", "add", "Alicia", "Bob", "pal")
	e.mustRun("relation", "add", "Alice", "Alicia", "same")

	out := e.mustRun("merge", "Alice", "Alicia", "--keep-second")
	if !strings.Contains(out, "2 relation(s) dropped") {
		t.Errorf("expected dropped count, got %q", out)
	}

	s := e.snapshot()
	if len(s.Persons) != 2 {
		t.Fatalf("expected 2 persons, got %d", len(s.Persons))
	}
	if s.PersonByName("Alice") != nil {
		t.Error("Alice should be merged away")
	}
	if len(s.Relations) != 1 || s.Relations[0].Label != "friend" {
		t.Errorf("expected the first duplicate to survive, got %+v", s.Relations)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")
	e.mustRun("person", "add", "Bob")
	e.mustRun("relation", "add", "Alice", "Bob", "friend")

	file := filepath.Join(t.TempDir(), "map.json")
	e.mustRun("export", "json", "--out", file)

	csv := e.mustRun("export", "relations")
	if csv != "from_name,to_name,label,note\n\"Alice\",\"Bob\",\"friend\",\"\"" {
		t.Errorf("unexpected relations CSV: %q", csv)
	}

	other := newEnv(t)
	other.mustRun("import", "json", file)
	s := other.snapshot()
	if len(s.Persons) != 2 || len(s.Relations) != 1 {
		t.Fatalf("imported map has %d persons and %d relations", len(s.Persons), len(s.Relations))
	}
	out := other.mustRun("undo")
	if !strings.Contains(out, "Nothing to undo") {
		t.Errorf("json import should start a fresh history, got %q", out)
	}
}

func TestImportMalformedKeepsMap(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := e.run("import", "json", bad)
	if err == nil || !strings.Contains(err.Error(), "file format error") {
		t.Fatalf("expected file format error, got %v", err)
	}
	if n := len(e.snapshot().Persons); n != 1 {
		t.Errorf("map should be unchanged, got %d persons", n)
	}
}

func TestImportCSVFromStdin(t *testing.T) {
	e := newEnv(t)
	out, err := e.runWithInput("name,phone,note,photo\nAlice,1,,\nBob,2,,\n", "import", "persons", "-")
	if err != nil {
		t.Fatalf("import persons: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 2 person(s)") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = e.runWithInput("from_name,to_name,label,note\nAlice,Bob,friend,\n", "import", "relations", "-")
	if err != nil {
		t.Fatalf("import relations: %v\n%s", err, out)
	}
	if len(e.snapshot().Relations) != 1 {
		t.Error("expected one imported relation")
	}
}

func TestExportDOT(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")
	out := e.mustRun("export", "dot")
	if !strings.HasPrefix(out, "digraph relmap") {
		t.Errorf("expected a digraph, got %q", out)
	}
	if _, err := e.run("export", "yaml"); err == nil {
		t.Error("expected unknown format to fail")
	}
}

func TestShellSession(t *testing.T) {
	e := newEnv(t)
	script := strings.Join([]string{
		"add Alice",
		"add Bob",
		"connect Alice",
		"click Bob",
		"friend",
		"connect Alice",
		"click Bob",
		"",
		"key ctrl+z",
		"key ctrl+shift+z",
		"group Alice Bob",
		"ls",
		"state",
		"bogus",
		"quit",
	}, "\n")

	out, err := e.runWithInput(script, "shell")
	if err != nil {
		t.Fatalf("shell: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Alice --friend--> Bob") {
		t.Errorf("expected connection, got %q", out)
	}
	if !strings.Contains(out, "unknown command") {
		t.Errorf("expected unknown command error, got %q", out)
	}

	// The shell flushes on exit.
	s := e.snapshot()
	if len(s.Persons) != 2 || len(s.Relations) != 1 {
		t.Fatalf("expected 2 persons and 1 relation saved, got %d and %d", len(s.Persons), len(s.Relations))
	}
}

func TestHistoryCommand(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")
	e.mustRun("person", "add", "Bob")
	out := e.mustRun("history")
	if !strings.Contains(out, "undo: true") || !strings.Contains(out, "redo: false") {
		t.Errorf("unexpected history output %q", out)
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	e := newEnv(t)
	e.mustRun("person", "add", "Alice")

	out := e.mustRun("reset")
	if !strings.Contains(out, "--yes") {
		t.Errorf("expected confirmation hint, got %q", out)
	}
	e.mustRun("reset", "--yes")
	out = e.mustRun()
	if !strings.Contains(out, "Empty map") {
		t.Errorf("expected empty map after reset, got %q", out)
	}
}

func TestSQLiteDriver(t *testing.T) {
	e := newEnv(t)
	db := filepath.Join(t.TempDir(), "relmap.db")
	for _, args := range [][]string{
		{"person", "add", "Alice"},
		{"person", "add", "Bob"},
		{"relation", "add", "Alice", "Bob", "friend"},
	} {
		if _, err := e.run(append([]string{"--driver", "sqlite", "--data", db}, args...)...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	out, err := e.run("--driver", "sqlite", "--data", db, "relation", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "friend") {
		t.Errorf("expected relation from sqlite store, got %q", out)
	}
}

func TestFindPerson(t *testing.T) {
	s := &graph.Snapshot{Persons: []*graph.Person{
		{ID: "abc123", Name: "Alice"},
		{ID: "abd456", Name: "Bob"},
	}}

	if p, err := findPerson(s, "Alice"); err != nil || p.ID != "abc123" {
		t.Errorf("by name: %v %v", p, err)
	}
	if p, err := findPerson(s, "abd"); err != nil || p.Name != "Bob" {
		t.Errorf("by prefix: %v %v", p, err)
	}
	if _, err := findPerson(s, "ab"); err == nil {
		t.Error("ambiguous prefix should fail")
	}
	if _, err := findPerson(s, "zzz"); err == nil {
		t.Error("unknown ref should fail")
	}
}

func TestWorkspacePersistWritesCurrentEntry(t *testing.T) {
	e := newEnv(t)
	a := &app{data: e.data}
	if err := a.setup(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	ws, err := a.openWorkspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ws.store.AddPerson(graph.PersonFields{Name: "Alice"})
	stale := ws.store.Snapshot()
	ws.store.AddPerson(graph.PersonFields{Name: "Bob"})

	// A save scheduled for an older change still writes what the log holds now.
	if err := ws.Persist(ctx, stale); err != nil {
		t.Fatal(err)
	}
	ws.Close()

	if got := len(e.snapshot().Persons); got != 2 {
		t.Fatalf("saved snapshot has %d persons, want 2", got)
	}
	out := e.mustRun("person", "list")
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") {
		t.Errorf("reopened map lost an edit: %q", out)
	}
	e.mustRun("undo")
	out = e.mustRun("person", "list")
	if !strings.Contains(out, "Alice") || strings.Contains(out, "Bob") {
		t.Errorf("one undo after reopen should drop only Bob: %q", out)
	}
}
