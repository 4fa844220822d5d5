//go:build e2e

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var relmapBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "relmap-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	relmapBin = filepath.Join(tmp, "relmap")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/relmap/cmd.version=1.0.0-test", "-o", relmapBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build relmap: " + err.Error())
	}

	os.Exit(m.Run())
}

// runRelmap executes the relmap binary with an isolated HOME directory.
func runRelmap(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	return runRelmapIn(t, t.TempDir(), "", args...)
}

// runRelmapIn executes relmap with the given HOME, so several invocations can
// share one saved map.
func runRelmapIn(t *testing.T, home, stdin string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(relmapBin, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"NO_COLOR=1",
		"RELMAP_STORAGE_DRIVER=",
		"RELMAP_STORAGE_PATH=",
	)
	cmd.Stdin = strings.NewReader(stdin)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run relmap %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

// --- Core CLI ---

func TestE2E_Version(t *testing.T) {
	out, _, code := runRelmap(t, "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "1.0.0") {
		t.Errorf("expected version output to contain '1.0.0', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := runRelmap(t, "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "Available Commands") {
		t.Errorf("expected help to contain 'Available Commands', got %q", out)
	}
}

func TestE2E_BareCommand(t *testing.T) {
	out, _, code := runRelmap(t)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "Empty map") {
		t.Errorf("expected empty map hint, got %q", out)
	}
}

// --- Editing ---

func TestE2E_EditAndUndo(t *testing.T) {
	home := t.TempDir()
	for _, args := range [][]string{
		{"person", "add", "Alice"},
		{"person", "add", "Bob"},
		{"relation", "add", "Alice", "Bob", "friend"},
		{"person", "rm", "Alice"},
		{"undo"},
	} {
		if _, stderr, code := runRelmapIn(t, home, "", args...); code != 0 {
			t.Fatalf("relmap %v: exit %d: %s", args, code, stderr)
		}
	}

	out, _, code := runRelmapIn(t, home, "", "relation", "list")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "friend") {
		t.Errorf("undo should bring back the relation, got %q", out)
	}
}

func TestE2E_RelationSelfLoopRejected(t *testing.T) {
	home := t.TempDir()
	runRelmapIn(t, home, "", "person", "add", "Alice")
	_, stderr, code := runRelmapIn(t, home, "", "relation", "add", "Alice", "Alice", "me")
	if code == 0 {
		t.Fatal("expected non-zero exit")
	}
	if !strings.Contains(stderr, "themselves") {
		t.Errorf("expected self-loop error, got %q", stderr)
	}
}

func TestE2E_ImportMalformed(t *testing.T) {
	_, stderr, code := runRelmapIn(t, t.TempDir(), "{nope", "import", "json", "-")
	if code == 0 {
		t.Fatal("expected non-zero exit")
	}
	if !strings.Contains(stderr, "file format error") {
		t.Errorf("expected file format error, got %q", stderr)
	}
}

func TestE2E_Shell(t *testing.T) {
	home := t.TempDir()
	script := "add Alice\nadd Bob\nrel Alice Bob friend\nquit\n"
	if _, stderr, code := runRelmapIn(t, home, script, "shell"); code != 0 {
		t.Fatalf("shell: exit %d: %s", code, stderr)
	}
	out, _, _ := runRelmapIn(t, home, "", "export", "relations")
	if !strings.Contains(out, `"Alice","Bob","friend"`) {
		t.Errorf("shell edits should be saved, got %q", out)
	}
}

func TestE2E_CompletionZsh(t *testing.T) {
	out, _, code := runRelmap(t, "completion", "zsh")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "relmap") {
		t.Errorf("expected zsh completion script, got %q", out[:min(len(out), 200)])
	}
}
