package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ProjectFile is the per-directory override file searched from the working
// directory upward.
const ProjectFile = ".relmap.toml"

// Config holds relmap configuration.
type Config struct {
	UI      UIConfig      `toml:"ui"`
	Storage StorageConfig `toml:"storage"`
	Editor  EditorConfig  `toml:"editor"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// UIConfig controls display options.
type UIConfig struct {
	Color bool `toml:"color"`
}

// StorageConfig selects where snapshots and history are kept.
type StorageConfig struct {
	Driver  string `toml:"driver"`  // "file", "sqlite", "memory"
	Path    string `toml:"path"`    // directory for "file", database file for "sqlite"
	Encrypt bool   `toml:"encrypt"` // file driver only
}

// EditorConfig controls the editing session.
type EditorConfig struct {
	HistoryLimit  int      `toml:"history_limit"`
	AutosaveDelay Duration `toml:"autosave_delay"`
}

// ServerConfig controls `relmap serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Mode  string `toml:"mode"` // "dev" or "prod"
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "1s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		UI:      UIConfig{Color: true},
		Storage: StorageConfig{Driver: "file", Encrypt: false},
		Editor:  EditorConfig{HistoryLimit: 50, AutosaveDelay: Duration{time.Second}},
		Server:  ServerConfig{Addr: "127.0.0.1:7420"},
		Log:     LogConfig{Mode: "dev", Level: "warn"},
	}
}

// ConfigDir returns the relmap config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "relmap")
}

func configPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the user config, then any project file, then environment
// overrides. Missing or unreadable files leave defaults in place.
func Load() *Config {
	cfg := Default()

	if data, err := os.ReadFile(configPath()); err == nil {
		_ = toml.Unmarshal(data, cfg)
	}
	if path := findProjectConfig(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = toml.Unmarshal(data, cfg)
		}
	}

	if v := os.Getenv("RELMAP_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("RELMAP_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	path := configPath()
	if _, err := os.Stat(path); err == nil {
		return nil // already exists
	}
	return Save(Default())
}

// findProjectConfig walks from the working directory to the root looking for
// ProjectFile.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
