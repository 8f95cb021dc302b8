package out_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	notifydto "medtrack/internal/modules/notify/dto"
	scheduleout "medtrack/internal/modules/schedule/adapter/out"
	"medtrack/internal/modules/schedule/domain"
	apperrors "medtrack/internal/platform/errors"
)

func TestPromptConfirmer(t *testing.T) {
	t.Parallel()
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false, "sure\n": false}
	for input, want := range cases {
		out := &bytes.Buffer{}
		c := scheduleout.NewPromptConfirmer(strings.NewReader(input), out)
		if got := c.Confirm(context.Background(), "Reset today's schedule?"); got != want {
			t.Fatalf("input %q: expected %t, got %t", input, want, got)
		}
		if !strings.HasPrefix(out.String(), "Reset today's schedule? [y/N] ") {
			t.Fatalf("unexpected prompt %q", out.String())
		}
	}
	if !(scheduleout.AutoConfirmer{Answer: true}).Confirm(context.Background(), "x") {
		t.Fatalf("auto confirmer must answer yes")
	}
}

func TestVaultNoteStoreKeepsUserText(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	store := scheduleout.NewVaultNoteStore(vault)
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, time.Local)
	meds := domain.DefaultMedications()
	meds[0].DailyLog["2024-01-02"] = []domain.TakeRecord{{ScheduledSlot: domain.MustTimeOfDay("06:00"), TakenAt: domain.MustTimeOfDay("06:10")}}

	path, err := store.Save(context.Background(), domain.NewDayNote(domain.BuildDaySchedule(meds, now)))
	if err != nil {
		t.Fatalf("save note: %v", err)
	}
	if want := filepath.Join(vault, "medications", "2024", "01", "02.md"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
	raw, _ := os.ReadFile(path)
	edited := strings.Replace(string(raw), "# Medications 2024-01-02\n", "# Medications 2024-01-02\n\nFelt better after lunch.\n", 1)
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatalf("edit note: %v", err)
	}

	meds[0].DailyLog["2024-01-02"] = nil
	if _, err := store.Save(context.Background(), domain.NewDayNote(domain.BuildDaySchedule(meds, now))); err != nil {
		t.Fatalf("resave note: %v", err)
	}
	raw, _ = os.ReadFile(path)
	text := string(raw)
	if !strings.Contains(text, "Felt better after lunch.") {
		t.Fatalf("user text lost: %s", text)
	}
	if strings.Count(text, scheduleout.ManagedDayStart) != 1 {
		t.Fatalf("managed block duplicated: %s", text)
	}
	if !strings.Contains(text, "- [ ] 06:00 (due)") || strings.Contains(text, "taken 06:10") {
		t.Fatalf("managed block not refreshed: %s", text)
	}
	if !strings.Contains(text, "taken: 0") || !strings.Contains(text, "total: 9") {
		t.Fatalf("frontmatter not refreshed: %s", text)
	}
}

type fakeNotify struct {
	permission string
	err        error
	shown      []notifydto.ShowInput
}

func (f *fakeNotify) Status(context.Context) (notifydto.StatusOutput, error) {
	return notifydto.StatusOutput{}, nil
}
func (f *fakeNotify) Permission(context.Context) (string, error) { return f.permission, f.err }
func (f *fakeNotify) RequestPermission(context.Context) (notifydto.PermissionOutput, error) {
	return notifydto.PermissionOutput{}, nil
}
func (f *fakeNotify) Revoke(context.Context) (notifydto.PermissionOutput, error) {
	return notifydto.PermissionOutput{}, nil
}
func (f *fakeNotify) Show(_ context.Context, in notifydto.ShowInput) (notifydto.ShowOutput, error) {
	f.shown = append(f.shown, in)
	return notifydto.ShowOutput{Channel: "direct"}, nil
}
func (f *fakeNotify) Test(context.Context) (notifydto.ShowOutput, error) {
	return notifydto.ShowOutput{}, nil
}
func (f *fakeNotify) Doctor(context.Context) ([]notifydto.DoctorResult, error) { return nil, nil }
func (f *fakeNotify) List(context.Context) ([]notifydto.NotifierInfo, error)   { return nil, nil }

func TestNotifyAdapter(t *testing.T) {
	t.Parallel()
	notify := &fakeNotify{permission: "granted"}
	adapter := scheduleout.NewNotifyAdapter(notify)
	ctx := context.Background()

	permission, err := adapter.Permission(ctx)
	if err != nil || permission != domain.PermissionGranted {
		t.Fatalf("expected granted, got %q err=%v", permission, err)
	}
	m := domain.DefaultMedications()[0]
	reminder := domain.NewReminder(m, domain.MustTimeOfDay("06:00"), time.Now())
	if err := adapter.Show(ctx, reminder); err != nil {
		t.Fatalf("show: %v", err)
	}
	if len(notify.shown) != 1 || notify.shown[0].Tag != "med-1-06:00" || notify.shown[0].Body != "Pro TB 3 - 2 tablets (Before meals)" {
		t.Fatalf("unexpected forwarded notification %+v", notify.shown)
	}

	notify.permission = "weird"
	if permission, _ := adapter.Permission(ctx); permission != domain.PermissionDefault {
		t.Fatalf("unknown permission must map to default")
	}
	notify.err = apperrors.ErrNotificationUnavailable
	if _, err := adapter.Permission(ctx); !errors.Is(err, apperrors.ErrNotificationUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
