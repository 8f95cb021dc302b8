package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	notifyout "medtrack/internal/modules/notify/adapter/out"
)

func writeNotifiers(t *testing.T, base, raw string) {
	t.Helper()
	dir := filepath.Join(base, "notifiers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir notifiers: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notifiers.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write notifiers.json: %v", err)
	}
}

func TestFileManifestStoreLoadMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	store := notifyout.NewFileManifestStore(t.TempDir())
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 0 {
		t.Fatalf("expected empty manifests, got %d", len(manifests))
	}
}

func TestFileManifestStoreResolvesRelativeBinary(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeNotifiers(t, base, `[
  {
    "name": "desktop",
    "version": "1.0.0",
    "binary": "notifiers/desktop/desktop-notifier",
    "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "enabled": true
  }
]`)
	manifests, err := notifyout.NewFileManifestStore(base).Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 1 {
		t.Fatalf("expected one manifest, got %d", len(manifests))
	}
	want := filepath.Join(base, "notifiers", "desktop", "desktop-notifier")
	if manifests[0].Binary != want {
		t.Fatalf("expected %s, got %s", want, manifests[0].Binary)
	}
}

func TestFileManifestStoreRejectsUnknownField(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeNotifiers(t, base, `[
  {
    "name": "desktop",
    "version": "1.0.0",
    "binary": "/tmp/desktop-notifier",
    "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "enabled": true,
    "capabilities": ["command"]
  }
]`)
	if _, err := notifyout.NewFileManifestStore(base).Load(context.Background()); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestFileManifestStoreRejectsDuplicateNames(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeNotifiers(t, base, `[
  {"name": "desktop", "version": "1.0.0", "binary": "/tmp/a", "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "enabled": true},
  {"name": " desktop ", "version": "1.1.0", "binary": "/tmp/b", "sha256": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "enabled": false}
]`)
	_, err := notifyout.NewFileManifestStore(base).Load(context.Background())
	if err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if !strings.Contains(err.Error(), `"desktop"`) {
		t.Fatalf("error should name the notifier, got %v", err)
	}
}

func TestFileManifestStoreNormalizesChecksum(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeNotifiers(t, base, `[
  {"name": "desktop", "version": "1.0.0", "binary": "/tmp/desktop-notifier", "sha256": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA  desktop-notifier", "enabled": true}
]`)
	manifests, err := notifyout.NewFileManifestStore(base).Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if err := manifests[0].Validate(); err != nil {
		t.Fatalf("normalized manifest should validate: %v", err)
	}
	if manifests[0].SHA256 != strings.Repeat("a", 64) {
		t.Fatalf("unexpected checksum %q", manifests[0].SHA256)
	}
}
