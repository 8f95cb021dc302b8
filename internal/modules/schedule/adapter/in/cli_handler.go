package in

import (
	"context"
	"time"

	"medtrack/internal/modules/schedule/dto"
	schedulein "medtrack/internal/modules/schedule/port/in"
)

type CLIHandler struct {
	usecase schedulein.Usecase
}

func NewCLIHandler(usecase schedulein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Today(ctx context.Context) (dto.TodayOutput, error) {
	return h.usecase.Today(ctx)
}

func (h CLIHandler) Medications(ctx context.Context) ([]dto.MedicationOutput, error) {
	return h.usecase.ListMedications(ctx)
}

func (h CLIHandler) Take(ctx context.Context, medicationID int, slot string) (dto.ToggleTakenOutput, error) {
	return h.usecase.ToggleTaken(ctx, dto.ToggleTakenInput{MedicationID: medicationID, Slot: slot})
}

func (h CLIHandler) Activate(ctx context.Context, medicationID int) (dto.ToggleConditionalOutput, error) {
	return h.usecase.ToggleConditional(ctx, medicationID)
}

func (h CLIHandler) ResetCourse(ctx context.Context, medicationID int) (dto.ResetOutput, error) {
	return h.usecase.ResetCourse(ctx, medicationID)
}

func (h CLIHandler) ResetToday(ctx context.Context) (dto.ResetOutput, error) {
	return h.usecase.ResetToday(ctx)
}

func (h CLIHandler) Sweep(ctx context.Context) (dto.SweepOutput, error) {
	return h.usecase.Sweep(ctx)
}

func (h CLIHandler) SweepSince(ctx context.Context, since time.Duration) (dto.SweepOutput, error) {
	return h.usecase.SweepSince(ctx, since)
}

func (h CLIHandler) Watch(ctx context.Context, interval time.Duration, onSweep func(dto.SweepOutput)) error {
	return h.usecase.Watch(ctx, interval, onSweep)
}

func (h CLIHandler) Note(ctx context.Context) (dto.NoteOutput, error) {
	return h.usecase.ExportDayNote(ctx)
}

func (h CLIHandler) Add(ctx context.Context, input dto.AddMedicationInput) (dto.MedicationOutput, error) {
	return h.usecase.AddMedication(ctx, input)
}

func (h CLIHandler) Remove(ctx context.Context, medicationID int) error {
	return h.usecase.RemoveMedication(ctx, medicationID)
}

func (h CLIHandler) Flush(ctx context.Context) error {
	return h.usecase.Flush(ctx)
}
