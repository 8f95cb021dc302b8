package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	scheduleout "medtrack/internal/modules/schedule/adapter/out"
	"medtrack/internal/modules/schedule/domain"
	portout "medtrack/internal/modules/schedule/port/out"
	"medtrack/internal/platform/clock"
)

func exerciseDocumentStore(t *testing.T, store portout.DocumentStore) {
	t.Helper()
	ctx := context.Background()
	if _, found, err := store.Load(ctx, domain.DocumentKey); err != nil || found {
		t.Fatalf("expected empty store, found=%t err=%v", found, err)
	}
	meds := domain.DefaultMedications()
	meds[1].StartDate = "2024-01-01"
	meds[1].DailyLog["2024-01-01"] = []domain.TakeRecord{{ScheduledSlot: domain.MustTimeOfDay("08:00"), TakenAt: domain.MustTimeOfDay("08:04")}}
	if err := store.Save(ctx, domain.DocumentKey, meds); err != nil {
		t.Fatalf("save: %v", err)
	}
	meds[3].IsActive = true
	if err := store.Save(ctx, domain.DocumentKey, meds); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	loaded, found, err := store.Load(ctx, domain.DocumentKey)
	if err != nil || !found {
		t.Fatalf("load: found=%t err=%v", found, err)
	}
	if len(loaded) != 6 || !loaded[3].IsActive || loaded[1].StartDate != "2024-01-01" {
		t.Fatalf("unexpected document %+v", loaded)
	}
	r, ok := loaded[1].TakeOn("2024-01-01", domain.MustTimeOfDay("08:00"))
	if !ok || r.TakenAt.String() != "08:04" {
		t.Fatalf("take record lost: %+v", loaded[1].DailyLog)
	}
}

func TestFileDocumentStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	exerciseDocumentStore(t, scheduleout.NewFileDocumentStore(dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "medications_v2.json" {
		t.Fatalf("expected only the document file, got %v", entries)
	}
}

func TestFileDocumentStoreRejectsCorruptDocument(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "medications_v2.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := scheduleout.NewFileDocumentStore(dir).Load(context.Background(), domain.DocumentKey)
	if err == nil || !strings.Contains(err.Error(), "decode document") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestSQLiteDocumentStore(t *testing.T) {
	t.Parallel()
	store, err := scheduleout.NewSQLiteDocumentStore(filepath.Join(t.TempDir(), "db", "medtrack.db"), clock.SystemClock{})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer store.Close()
	exerciseDocumentStore(t, store)
}
