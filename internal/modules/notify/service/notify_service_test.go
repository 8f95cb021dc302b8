package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"medtrack/internal/modules/notify/domain"
	"medtrack/internal/modules/notify/service"
	apperrors "medtrack/internal/platform/errors"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type seqID struct{ n int }

func (g *seqID) New() string {
	g.n++
	return "id-" + strconv.Itoa(g.n)
}

type memoryPerms struct{ permission domain.Permission }

func (s *memoryPerms) Load(context.Context) (domain.Permission, error) {
	if s.permission == "" {
		return domain.PermissionDefault, nil
	}
	return s.permission, nil
}

func (s *memoryPerms) Save(_ context.Context, p domain.Permission) error {
	s.permission = p
	return nil
}

type staticManifests struct{ manifests []domain.Manifest }

func (s staticManifests) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type fakeHost struct {
	fail      bool
	delivered []domain.Notification
}

func (h *fakeHost) CheckLifecycle(context.Context, domain.Manifest) error { return nil }

func (h *fakeHost) GetMetadata(_ context.Context, m domain.Manifest) (domain.Metadata, error) {
	return domain.Metadata{Name: m.Name, Version: m.Version, Channel: "log"}, nil
}

func (h *fakeHost) Deliver(_ context.Context, _ domain.Manifest, n domain.Notification) error {
	if h.fail {
		return errors.New("plugin exited")
	}
	h.delivered = append(h.delivered, n)
	return nil
}

type recordingSink struct{ delivered []domain.Notification }

func (s *recordingSink) Deliver(_ context.Context, n domain.Notification) error {
	s.delivered = append(s.delivered, n)
	return nil
}

type answer bool

func (a answer) Confirm(context.Context, string) bool { return bool(a) }

func manifestWithBinary(t *testing.T) domain.Manifest {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "desktop-notifier")
	payload := []byte("notifier-binary")
	if err := os.WriteFile(bin, payload, 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	hash := sha256.Sum256(payload)
	return domain.Manifest{Name: "desktop", Version: "1.0.0", Binary: bin, SHA256: hex.EncodeToString(hash[:]), Enabled: true}
}

type harness struct {
	clock *fakeClock
	perms *memoryPerms
	host  *fakeHost
	sink  *recordingSink
	svc   *service.NotifyService
}

func newHarness(t *testing.T, manifests []domain.Manifest, prompt bool) harness {
	t.Helper()
	h := harness{
		clock: &fakeClock{now: time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)},
		perms: &memoryPerms{},
		host:  &fakeHost{},
		sink:  &recordingSink{},
	}
	h.svc = service.NewNotifyService(h.clock, &seqID{}, h.perms, staticManifests{manifests: manifests}, h.host, h.sink, answer(prompt), nil, service.Options{VaultPath: "/vault", CollapseWindow: 10 * time.Minute})
	return h
}

func TestRequestPermissionGrantShowsWelcome(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, true)
	out, err := h.svc.RequestPermission(context.Background())
	if err != nil {
		t.Fatalf("request permission: %v", err)
	}
	if out.Permission != "granted" || !out.Prompted || !out.WelcomeShown {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(h.sink.delivered) != 1 || h.sink.delivered[0].Title != "Notifications enabled" || h.sink.delivered[0].Body != "You will receive medication reminders." {
		t.Fatalf("expected welcome notification, got %+v", h.sink.delivered)
	}

	again, err := h.svc.RequestPermission(context.Background())
	if err != nil || again.Prompted || len(h.sink.delivered) != 1 {
		t.Fatalf("granted permission must not prompt again, got %+v", again)
	}
}

func TestRequestPermissionDeclineStoresDenied(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, false)
	out, err := h.svc.RequestPermission(context.Background())
	if err != nil {
		t.Fatalf("request permission: %v", err)
	}
	if out.Permission != "denied" || out.WelcomeShown || h.perms.permission != domain.PermissionDenied {
		t.Fatalf("expected denied, got %+v", out)
	}
	if _, err := h.svc.Show(context.Background(), "t", "b", "tag"); !errors.Is(err, domain.ErrPermissionNotGranted) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestShowCollapsesRepeatedTagWithinWindow(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, true)
	h.perms.permission = domain.PermissionGranted
	ctx := context.Background()

	first, err := h.svc.Show(ctx, "Time to take your medicine!", "body", "med-2-08:00")
	if err != nil || first.Collapsed || first.Channel != service.ChannelDirect {
		t.Fatalf("unexpected first receipt %+v err=%v", first, err)
	}
	h.clock.now = h.clock.now.Add(2 * time.Minute)
	second, err := h.svc.Show(ctx, "Time to take your medicine!", "body", "med-2-08:00")
	if err != nil || !second.Collapsed {
		t.Fatalf("expected collapse, got %+v err=%v", second, err)
	}
	other, _ := h.svc.Show(ctx, "Time to take your medicine!", "body", "med-3-08:00")
	if other.Collapsed {
		t.Fatalf("different tags never collapse")
	}
	h.clock.now = h.clock.now.Add(10 * time.Minute)
	third, _ := h.svc.Show(ctx, "Time to take your medicine!", "body", "med-2-08:00")
	if third.Collapsed {
		t.Fatalf("tag must show again after the window")
	}
	if len(h.sink.delivered) != 3 {
		t.Fatalf("expected three deliveries, got %d", len(h.sink.delivered))
	}
}

func TestShowPrefersPluginAndFallsBackToSink(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t)
	h := newHarness(t, []domain.Manifest{manifest}, true)
	h.perms.permission = domain.PermissionGranted
	ctx := context.Background()

	receipt, err := h.svc.Show(ctx, "title", "body", "a")
	if err != nil || receipt.Channel != "desktop" || len(h.host.delivered) != 1 {
		t.Fatalf("expected plugin delivery, got %+v err=%v", receipt, err)
	}
	if h.host.delivered[0].VaultPath != "/vault" {
		t.Fatalf("notification must carry the vault path")
	}

	h.host.fail = true
	receipt, err = h.svc.Show(ctx, "title", "body", "b")
	if err != nil || receipt.Channel != service.ChannelDirect || len(h.sink.delivered) != 1 {
		t.Fatalf("expected fallback delivery, got %+v err=%v", receipt, err)
	}
}

func TestShowSkipsPluginWithBadChecksum(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t)
	manifest.SHA256 = strings.Repeat("0", 64)
	h := newHarness(t, []domain.Manifest{manifest}, true)
	h.perms.permission = domain.PermissionGranted
	receipt, err := h.svc.Show(context.Background(), "title", "body", "a")
	if err != nil || receipt.Channel != service.ChannelDirect || len(h.host.delivered) != 0 {
		t.Fatalf("tampered plugin must not run, got %+v err=%v", receipt, err)
	}
}

func TestPermissionUnavailableWithoutChannel(t *testing.T) {
	t.Parallel()
	svc := service.NewNotifyService(&fakeClock{}, &seqID{}, &memoryPerms{}, nil, nil, nil, nil, nil, service.Options{})
	if _, err := svc.Permission(context.Background()); !errors.Is(err, apperrors.ErrNotificationUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestRevokeStoresDenied(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, true)
	h.perms.permission = domain.PermissionGranted
	out, err := h.svc.Revoke(context.Background())
	if err != nil || out.Permission != "denied" || h.perms.permission != domain.PermissionDenied {
		t.Fatalf("expected denied after revoke, got %+v err=%v", out, err)
	}
}

func TestDoctorReportsChecksumAndLifecycle(t *testing.T) {
	t.Parallel()
	good := manifestWithBinary(t)
	bad := manifestWithBinary(t)
	bad.Name = "tampered"
	bad.SHA256 = strings.Repeat("0", 64)
	missing := good
	missing.Name = "missing"
	missing.Binary = filepath.Join(t.TempDir(), "nope")
	h := newHarness(t, []domain.Manifest{good, bad, missing}, true)

	results, err := h.svc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected three results, got %d", len(results))
	}
	if !results[0].LifecycleOK || results[0].Channel != "log" {
		t.Fatalf("expected healthy notifier, got %+v", results[0])
	}
	if results[1].ChecksumValid || results[1].Error != "checksum mismatch" {
		t.Fatalf("expected checksum mismatch, got %+v", results[1])
	}
	if results[2].BinaryReachable {
		t.Fatalf("expected missing binary, got %+v", results[2])
	}
}
