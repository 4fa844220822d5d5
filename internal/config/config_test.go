package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.UI.Color {
		t.Error("default color should be true")
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("expected storage driver 'file', got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Encrypt {
		t.Error("default encrypt should be false")
	}
	if cfg.Editor.HistoryLimit != 50 {
		t.Errorf("expected history limit 50, got %d", cfg.Editor.HistoryLimit)
	}
	if cfg.Editor.AutosaveDelay.Duration != time.Second {
		t.Errorf("expected autosave delay 1s, got %v", cfg.Editor.AutosaveDelay)
	}
	if cfg.Server.Addr == "" {
		t.Error("default server addr should be set")
	}
}

func TestConfigDir(t *testing.T) {
	// Test with XDG_CONFIG_HOME set
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	dir := ConfigDir()
	if dir != "/tmp/test-xdg/relmap" {
		t.Errorf("expected /tmp/test-xdg/relmap, got %q", dir)
	}

	// Test without XDG_CONFIG_HOME
	t.Setenv("XDG_CONFIG_HOME", "")
	dir = ConfigDir()
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".config", "relmap")
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("RELMAP_STORAGE_DRIVER", "")
	t.Setenv("RELMAP_STORAGE_PATH", "")

	cfg := Default()
	cfg.Editor.HistoryLimit = 10
	cfg.Editor.AutosaveDelay = Duration{250 * time.Millisecond}
	cfg.Storage.Driver = "sqlite"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "relmap", "config.toml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if want := `autosave_delay = "250ms"`; !strings.Contains(string(data), want) {
		t.Errorf("expected %q in saved config:\n%s", want, data)
	}

	loaded := Load()
	if loaded.Editor.HistoryLimit != 10 {
		t.Errorf("expected history limit 10, got %d", loaded.Editor.HistoryLimit)
	}
	if loaded.Editor.AutosaveDelay.Duration != 250*time.Millisecond {
		t.Errorf("expected autosave 250ms, got %v", loaded.Editor.AutosaveDelay)
	}
	if loaded.Storage.Driver != "sqlite" {
		t.Errorf("expected driver sqlite, got %q", loaded.Storage.Driver)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RELMAP_STORAGE_DRIVER", "memory")
	t.Setenv("RELMAP_STORAGE_PATH", "/tmp/relmap-test")

	cfg := Load()
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected driver from env, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Path != "/tmp/relmap-test" {
		t.Errorf("expected path from env, got %q", cfg.Storage.Path)
	}
}

func TestEnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	path := filepath.Join(tmpDir, "relmap", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	// Second call should be no-op
	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists second call failed: %v", err)
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "a", "b", "c")
	os.MkdirAll(subDir, 0o755)

	// Write .relmap.toml in the root tmpDir
	os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte("[editor]\nhistory_limit = 7\n"), 0o644)

	// Change to the deep subdirectory
	t.Chdir(subDir)

	found := findProjectConfig()
	// Resolve symlinks (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(filepath.Join(tmpDir, ProjectFile))
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != expectedResolved {
		t.Errorf("expected %q, got %q", expectedResolved, foundResolved)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if got := Load().Editor.HistoryLimit; got != 7 {
		t.Errorf("expected project history limit 7, got %d", got)
	}
}
