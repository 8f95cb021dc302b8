package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"

	DefaultSweepInterval  = 30 * time.Second
	DefaultCollapseWindow = 10 * time.Minute
)

// DefaultCatchUpLimit leaves the limit off: a delayed tick still reports
// every slot it missed.
const DefaultCatchUpLimit time.Duration = 0

type Config struct {
	VaultPath      string
	DataDir        string
	DBPath         string
	LogPath        string
	Storage        string
	SweepInterval  time.Duration
	CatchUpLimit   time.Duration
	CollapseWindow time.Duration
	LogLevel       string
	LogFormat      string
}

// fileConfig mirrors <vault>/.medtrack/config.yaml. Durations use Go syntax
// ("30s", "15m"). The catch-up limit is off unless set.
type fileConfig struct {
	Storage        string `yaml:"storage"`
	SweepInterval  string `yaml:"sweep_interval"`
	CatchUpLimit   string `yaml:"catch_up_limit"`
	CollapseWindow string `yaml:"collapse_window"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
}

func New(vaultPath string) (Config, error) {
	if vaultPath == "" {
		return Config{}, fmt.Errorf("vault path is required")
	}
	dataDir := filepath.Join(vaultPath, ".medtrack")
	return Config{
		VaultPath:      vaultPath,
		DataDir:        dataDir,
		DBPath:         filepath.Join(dataDir, "medtrack.db"),
		LogPath:        filepath.Join(dataDir, "medtrack.log"),
		Storage:        StorageFile,
		SweepInterval:  DefaultSweepInterval,
		CatchUpLimit:   DefaultCatchUpLimit,
		CollapseWindow: DefaultCollapseWindow,
		LogLevel:       "info",
		LogFormat:      "text",
	}, nil
}

// Load returns defaults overlaid by the optional config.yaml and then by
// MEDTRACK_* environment variables.
func Load(vaultPath string) (Config, error) {
	cfg, err := New(vaultPath)
	if err != nil {
		return Config{}, err
	}
	raw, err := os.ReadFile(filepath.Join(cfg.DataDir, "config.yaml"))
	switch {
	case err == nil:
		fc := fileConfig{}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("decode config.yaml: %w", err)
		}
		if err := cfg.apply(fc); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config.yaml: %w", err)
	}
	if err := cfg.apply(fileConfig{
		Storage:   os.Getenv("MEDTRACK_STORAGE"),
		LogLevel:  os.Getenv("MEDTRACK_LOG_LEVEL"),
		LogFormat: os.Getenv("MEDTRACK_LOG_FORMAT"),
	}); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) apply(fc fileConfig) error {
	if v := strings.TrimSpace(fc.Storage); v != "" {
		c.Storage = strings.ToLower(v)
	}
	if v := strings.TrimSpace(fc.LogLevel); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(fc.LogFormat); v != "" {
		c.LogFormat = v
	}
	for _, field := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"sweep_interval", fc.SweepInterval, &c.SweepInterval},
		{"catch_up_limit", fc.CatchUpLimit, &c.CatchUpLimit},
		{"collapse_window", fc.CollapseWindow, &c.CollapseWindow},
	} {
		if strings.TrimSpace(field.raw) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(field.raw))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field.name, field.raw, err)
		}
		*field.dst = d
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	if c.CatchUpLimit < 0 || c.CollapseWindow < 0 {
		return fmt.Errorf("catch-up limit and collapse window must not be negative")
	}
	return nil
}
