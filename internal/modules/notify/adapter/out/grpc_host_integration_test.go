package out_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	notifyout "medtrack/internal/modules/notify/adapter/out"
	"medtrack/internal/modules/notify/domain"
)

func TestGRPCHostIntegrationDesktopNotifier(t *testing.T) {
	binPath, checksum := buildDesktopNotifier(t)
	manifest := domain.Manifest{
		Name:    "desktop",
		Version: "1.0.0",
		Binary:  binPath,
		SHA256:  checksum,
		Enabled: true,
	}
	// An empty PATH hides notify-send so the plugin falls back to its log.
	t.Setenv("PATH", t.TempDir())

	host := notifyout.NewGRPCHost(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := host.CheckLifecycle(ctx, manifest); err != nil {
		t.Fatalf("check lifecycle: %v", err)
	}
	metadata, err := host.GetMetadata(ctx, manifest)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if metadata.Name != "desktop" || metadata.Channel != "log" {
		t.Fatalf("unexpected metadata: %+v", metadata)
	}

	vault := t.TempDir()
	err = host.Deliver(ctx, manifest, domain.Notification{
		ID:        "n1",
		Title:     "Time to take your medicine!",
		Body:      "Pro TB 3 - 2 tablets (Before meals)",
		Tag:       "med-1-06:00",
		CreatedAt: time.Now(),
		VaultPath: vault,
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(vault, ".medtrack", "notifications.log"))
	if err != nil {
		t.Fatalf("read notification log: %v", err)
	}
	if !strings.Contains(string(raw), "med-1-06:00\tTime to take your medicine!") {
		t.Fatalf("unexpected log %q", raw)
	}
}

func buildDesktopNotifier(t *testing.T) (string, string) {
	t.Helper()
	tmp := t.TempDir()
	binPath := filepath.Join(tmp, "desktop-notifier")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/desktop")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build desktop notifier: %v\n%s", err, string(out))
	}
	payload, err := os.ReadFile(binPath)
	if err != nil {
		t.Fatalf("read built notifier: %v", err)
	}
	hash := sha256.Sum256(payload)
	return binPath, hex.EncodeToString(hash[:])
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
