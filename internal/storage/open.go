package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/relmap/internal/config"
)

// Open builds the KV backend named by cfg.Driver. RELMAP_STORAGE_DRIVER and
// RELMAP_STORAGE_PATH take precedence over the config values.
func Open(cfg config.StorageConfig) (KV, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if v := os.Getenv("RELMAP_STORAGE_DRIVER"); v != "" {
		driver = strings.ToLower(v)
	}
	path := cfg.Path
	if v := os.Getenv("RELMAP_STORAGE_PATH"); v != "" {
		path = v
	}

	switch driver {
	case "", "file":
		if path == "" {
			path = filepath.Join(config.ConfigDir(), "data")
		}
		return NewFile(path, cfg.Encrypt), nil
	case "sqlite":
		if path == "" {
			path = filepath.Join(config.ConfigDir(), "relmap.db")
		}
		return NewSQLite(path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (want file, sqlite or memory)", driver)
	}
}
