package out

import (
	"context"

	"medtrack/internal/modules/schedule/domain"
)

// DocumentStore persists the whole medication list under a single key.
// found is false when nothing was ever saved under key.
type DocumentStore interface {
	Load(ctx context.Context, key string) (meds []domain.Medication, found bool, err error)
	Save(ctx context.Context, key string, meds []domain.Medication) error
}

type Notifier interface {
	Permission(ctx context.Context) (domain.Permission, error)
	Show(ctx context.Context, reminder domain.Reminder) error
}

// Confirmer asks the user a yes/no question. Any failure to ask counts as no.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

type DayNoteStore interface {
	Save(ctx context.Context, note domain.DayNote) (string, error)
}
