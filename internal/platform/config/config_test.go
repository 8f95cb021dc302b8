package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"medtrack/internal/platform/config"
)

func writeConfig(t *testing.T, vault, body string) {
	t.Helper()
	dir := filepath.Join(vault, ".medtrack")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}
}

func TestNewRequiresVault(t *testing.T) {
	t.Parallel()
	if _, err := config.New(""); err == nil {
		t.Fatalf("expected error for empty vault path")
	}
}

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	cfg, err := config.Load(vault)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage != config.StorageFile {
		t.Fatalf("expected file storage, got %s", cfg.Storage)
	}
	if cfg.SweepInterval != 30*time.Second || cfg.CatchUpLimit != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DBPath != filepath.Join(vault, ".medtrack", "medtrack.db") {
		t.Fatalf("unexpected db path %s", cfg.DBPath)
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	writeConfig(t, vault, "storage: sqlite\nsweep_interval: 10s\ncatch_up_limit: 15m\nlog_level: debug\n")
	cfg, err := config.Load(vault)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage != config.StorageSQLite || cfg.SweepInterval != 10*time.Second || cfg.CatchUpLimit != 15*time.Minute {
		t.Fatalf("yaml overlay not applied: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %s", cfg.LogLevel)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	writeConfig(t, vault, "sweep_interval: soon\n")
	if _, err := config.Load(vault); err == nil {
		t.Fatalf("expected invalid duration error")
	}

	other := t.TempDir()
	writeConfig(t, other, "storage: cloud\n")
	if _, err := config.Load(other); err == nil {
		t.Fatalf("expected unsupported storage error")
	}
}
