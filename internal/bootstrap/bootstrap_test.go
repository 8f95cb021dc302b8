package bootstrap_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medtrack/internal/bootstrap"
	"medtrack/internal/platform/config"
)

func TestNewWiresStorageBackends(t *testing.T) {
	t.Parallel()
	for _, storage := range []string{config.StorageFile, config.StorageSQLite} {
		storage := storage
		t.Run(storage, func(t *testing.T) {
			t.Parallel()
			cfg, err := config.New(t.TempDir())
			if err != nil {
				t.Fatalf("config: %v", err)
			}
			cfg.Storage = storage
			stderr := &bytes.Buffer{}
			app, err := bootstrap.New(cfg, bootstrap.Options{AssumeYes: true, Out: &bytes.Buffer{}, ErrOut: stderr})
			if err != nil {
				t.Fatalf("new app: %v", err)
			}
			defer func() { _ = app.Close() }()

			meds, err := app.ScheduleCLI.Medications(context.Background())
			if err != nil {
				t.Fatalf("medications: %v", err)
			}
			if len(meds) != 6 {
				t.Fatalf("expected the prescribed list, got %d medications", len(meds))
			}
			var seeded string
			if storage == config.StorageSQLite {
				seeded = cfg.DBPath
			} else {
				seeded = filepath.Join(cfg.DataDir, "medications_v2.json")
			}
			if _, err := os.Stat(seeded); err != nil {
				t.Fatalf("expected seeded document at %s: %v", seeded, err)
			}
		})
	}
}

func TestNotifyEnableWithAssumeYes(t *testing.T) {
	t.Parallel()
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	out := &bytes.Buffer{}
	app, err := bootstrap.New(cfg, bootstrap.Options{AssumeYes: true, Out: out, ErrOut: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer func() { _ = app.Close() }()

	perm, err := app.NotifyCLI.Enable(context.Background())
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if perm.Permission != "granted" || !perm.WelcomeShown {
		t.Fatalf("unexpected permission output %+v", perm)
	}
	if !strings.Contains(out.String(), "Notifications enabled") {
		t.Fatalf("welcome notification must reach the terminal, got %q", out.String())
	}
}

func TestRunTUIRequiresTUIMode(t *testing.T) {
	t.Parallel()
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	app, err := bootstrap.New(cfg, bootstrap.Options{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer func() { _ = app.Close() }()
	if err := bootstrap.RunTUI(app); err == nil {
		t.Fatalf("expected an error for a CLI-built app")
	}
}
