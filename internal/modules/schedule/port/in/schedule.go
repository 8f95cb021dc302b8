package in

import (
	"context"
	"time"

	"medtrack/internal/modules/schedule/dto"
)

type Usecase interface {
	Today(ctx context.Context) (dto.TodayOutput, error)
	ListMedications(ctx context.Context) ([]dto.MedicationOutput, error)
	ToggleTaken(ctx context.Context, input dto.ToggleTakenInput) (dto.ToggleTakenOutput, error)
	ToggleConditional(ctx context.Context, medicationID int) (dto.ToggleConditionalOutput, error)
	ResetCourse(ctx context.Context, medicationID int) (dto.ResetOutput, error)
	ResetToday(ctx context.Context) (dto.ResetOutput, error)
	Sweep(ctx context.Context) (dto.SweepOutput, error)
	SweepSince(ctx context.Context, since time.Duration) (dto.SweepOutput, error)
	Watch(ctx context.Context, interval time.Duration, onSweep func(dto.SweepOutput)) error
	ExportDayNote(ctx context.Context) (dto.NoteOutput, error)
	AddMedication(ctx context.Context, input dto.AddMedicationInput) (dto.MedicationOutput, error)
	RemoveMedication(ctx context.Context, medicationID int) error
	Flush(ctx context.Context) error
}
