package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medtrack/internal/modules/schedule/domain"
	scheduleout "medtrack/internal/modules/schedule/port/out"
	"medtrack/internal/platform/markdown"
)

const (
	NoteSchemaVersion = 1
	ManagedDayStart   = "<!-- medtrack:day:start -->"
	ManagedDayEnd     = "<!-- medtrack:day:end -->"
)

// VaultNoteStore writes one markdown note per day under
// <vault>/medications/YYYY/MM/DD.md. Only the frontmatter keys it owns and
// the managed block are rewritten; the rest of the note is left to the user.
type VaultNoteStore struct {
	vaultPath string
}

func NewVaultNoteStore(vaultPath string) scheduleout.DayNoteStore {
	return &VaultNoteStore{vaultPath: vaultPath}
}

func (s *VaultNoteStore) Save(_ context.Context, note domain.DayNote) (string, error) {
	date, err := note.Schedule.Day.Start(time.Local)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.vaultPath, "medications", date.Format("2006"), date.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create note dir: %w", err)
	}
	path := filepath.Join(dir, date.Format("02")+".md")

	meta := map[string]any{}
	body := fmt.Sprintf("# Medications %s\n", note.Schedule.Day)
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		body, err = markdown.SplitFrontmatter(string(existing), &meta)
		if err != nil {
			return "", fmt.Errorf("parse note %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read note: %w", err)
	}

	meta["schema_version"] = NoteSchemaVersion
	meta["day"] = note.Schedule.Day.String()
	meta["taken"] = note.Taken
	meta["total"] = note.Total
	meta["updated_at"] = note.Schedule.GeneratedAt.Format(time.RFC3339)

	body = markdown.ReplaceManagedBlock(body, ManagedDayStart, ManagedDayEnd, renderDay(note))
	rendered, err := markdown.RenderFrontmatter(meta, body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}
	return path, nil
}

func renderDay(note domain.DayNote) string {
	if len(note.Schedule.Entries) == 0 {
		return "_No medication scheduled._"
	}
	b := strings.Builder{}
	fmt.Fprintf(&b, "Taken %d of %d doses.\n", note.Taken, note.Total)
	for _, entry := range note.Schedule.Entries {
		m := entry.Medication
		fmt.Fprintf(&b, "\n## %s\n\n%s, %s\n\n", m.Name, m.Dosage, m.Instruction)
		for _, slot := range entry.Slots {
			switch {
			case slot.Taken:
				fmt.Fprintf(&b, "- [x] %s (taken %s)\n", slot.Slot, slot.TakenAt)
			case slot.Due:
				fmt.Fprintf(&b, "- [ ] %s (due)\n", slot.Slot)
			default:
				fmt.Fprintf(&b, "- [ ] %s\n", slot.Slot)
			}
		}
	}
	return b.String()
}
