package usecase

import (
	"context"
	"fmt"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"medtrack/internal/modules/schedule/domain"
	"medtrack/internal/modules/schedule/dto"
	schedulein "medtrack/internal/modules/schedule/port/in"
	scheduleout "medtrack/internal/modules/schedule/port/out"
	"medtrack/internal/modules/schedule/service"
	"medtrack/internal/platform/clock"
	apperrors "medtrack/internal/platform/errors"
)

const EmptyTodayHint = "No medication is scheduled for today."

type Interactor struct {
	engine *service.Engine
	clock  clock.Clock
	notes  scheduleout.DayNoteStore
	log    hclog.Logger
}

func NewInteractor(engine *service.Engine, clock clock.Clock, notes scheduleout.DayNoteStore, log hclog.Logger) schedulein.Usecase {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Interactor{engine: engine, clock: clock, notes: notes, log: log}
}

func (i *Interactor) Today(ctx context.Context) (dto.TodayOutput, error) {
	schedule, err := i.engine.Today(ctx, i.clock.Now())
	if err != nil {
		return dto.TodayOutput{}, err
	}
	return todayOutput(schedule), nil
}

func (i *Interactor) ListMedications(ctx context.Context) ([]dto.MedicationOutput, error) {
	meds, err := i.engine.Medications(ctx)
	if err != nil {
		return nil, err
	}
	now := i.clock.Now()
	out := make([]dto.MedicationOutput, 0, len(meds))
	for _, m := range meds {
		out = append(out, medicationOutput(m, now))
	}
	return out, nil
}

func (i *Interactor) ToggleTaken(ctx context.Context, input dto.ToggleTakenInput) (dto.ToggleTakenOutput, error) {
	slot, err := domain.ParseTimeOfDay(input.Slot)
	if err != nil {
		return dto.ToggleTakenOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidSlot, err)
	}
	result, err := i.engine.ToggleTaken(ctx, input.MedicationID, slot)
	if err != nil {
		return dto.ToggleTakenOutput{}, err
	}
	out := dto.ToggleTakenOutput{
		MedicationID:  result.Medication.ID,
		Name:          result.Medication.Name,
		Slot:          result.Slot.String(),
		Taken:         result.Taken,
		Declined:      result.Declined,
		CourseStarted: result.CourseStarted,
		Warning:       warning(result.SaveErr),
	}
	if result.Taken {
		out.TakenAt = result.TakenAt.String()
	}
	return out, nil
}

func (i *Interactor) ToggleConditional(ctx context.Context, medicationID int) (dto.ToggleConditionalOutput, error) {
	result, err := i.engine.ToggleConditional(ctx, medicationID)
	if err != nil {
		return dto.ToggleConditionalOutput{}, err
	}
	return dto.ToggleConditionalOutput{
		MedicationID: result.Medication.ID,
		Name:         result.Medication.Name,
		IsActive:     result.Medication.IsActive,
		Warning:      warning(result.SaveErr),
	}, nil
}

func (i *Interactor) ResetCourse(ctx context.Context, medicationID int) (dto.ResetOutput, error) {
	result, err := i.engine.ResetCourse(ctx, medicationID)
	if err != nil {
		return dto.ResetOutput{}, err
	}
	return dto.ResetOutput{Applied: result.Applied, Cleared: result.Cleared, Warning: warning(result.SaveErr)}, nil
}

func (i *Interactor) ResetToday(ctx context.Context) (dto.ResetOutput, error) {
	result, err := i.engine.ResetToday(ctx)
	if err != nil {
		return dto.ResetOutput{}, err
	}
	return dto.ResetOutput{Applied: result.Applied, Cleared: result.Cleared, Warning: warning(result.SaveErr)}, nil
}

func (i *Interactor) Sweep(ctx context.Context) (dto.SweepOutput, error) {
	report, err := i.engine.SweepDue(ctx, i.clock.Now())
	if err != nil {
		return dto.SweepOutput{}, err
	}
	return sweepOutput(report), nil
}

// SweepSince is the one-shot form used outside a long-running loop: the
// window starts since before now instead of at load time.
func (i *Interactor) SweepSince(ctx context.Context, since time.Duration) (dto.SweepOutput, error) {
	if since <= 0 {
		return dto.SweepOutput{}, fmt.Errorf("%w: sweep window must be positive", apperrors.ErrInvalidInput)
	}
	now := i.clock.Now()
	if err := i.engine.Rewind(ctx, now.Add(-since)); err != nil {
		return dto.SweepOutput{}, err
	}
	report, err := i.engine.SweepDue(ctx, now)
	if err != nil {
		return dto.SweepOutput{}, err
	}
	return sweepOutput(report), nil
}

func sweepOutput(report service.SweepReport) dto.SweepOutput {
	out := dto.SweepOutput{
		From:       report.From,
		To:         report.To,
		Due:        make([]dto.ReminderOutput, 0, len(report.Due)),
		Delivered:  report.Delivered,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
		Permission: string(report.Permission),
	}
	for _, r := range report.Due {
		out.Due = append(out.Due, dto.ReminderOutput{
			MedicationID: r.MedicationID,
			Slot:         r.Slot.String(),
			DueAt:        r.DueAt,
			Title:        r.Title,
			Body:         r.Body,
			Tag:          r.Tag,
		})
	}
	return out
}

// Watch sweeps on every tick until ctx is done, then flushes any save that
// failed along the way.
func (i *Interactor) Watch(ctx context.Context, interval time.Duration, onSweep func(dto.SweepOutput)) error {
	if interval <= 0 {
		return fmt.Errorf("%w: sweep interval must be positive", apperrors.ErrInvalidInput)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	i.log.Info("watching for due doses", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			if err := i.engine.Flush(context.WithoutCancel(ctx)); err != nil {
				i.log.Warn("final flush failed", "error", err)
				return err
			}
			return nil
		case <-ticker.C:
			out, err := i.Sweep(ctx)
			if err != nil {
				i.log.Warn("sweep failed", "error", err)
				continue
			}
			if err := i.engine.Flush(ctx); err != nil {
				i.log.Warn("retry save failed", "error", err)
			}
			if onSweep != nil {
				onSweep(out)
			}
		}
	}
}

func (i *Interactor) ExportDayNote(ctx context.Context) (dto.NoteOutput, error) {
	if i.notes == nil {
		return dto.NoteOutput{}, fmt.Errorf("day note store is not configured")
	}
	schedule, err := i.engine.Today(ctx, i.clock.Now())
	if err != nil {
		return dto.NoteOutput{}, err
	}
	path, err := i.notes.Save(ctx, domain.NewDayNote(schedule))
	if err != nil {
		return dto.NoteOutput{}, err
	}
	i.log.Info("day note written", "path", path)
	return dto.NoteOutput{Day: schedule.Day.String(), Path: path}, nil
}

// AddMedication and RemoveMedication stand in for catalog editing; the
// prescribed list is fixed.
func (i *Interactor) AddMedication(_ context.Context, _ dto.AddMedicationInput) (dto.MedicationOutput, error) {
	return dto.MedicationOutput{}, fmt.Errorf("editing the schedule is not available yet; the prescribed schedule is used: %w", apperrors.ErrNotImplemented)
}

func (i *Interactor) RemoveMedication(_ context.Context, _ int) error {
	return fmt.Errorf("editing the schedule is not available yet; the prescribed schedule is used: %w", apperrors.ErrNotImplemented)
}

func (i *Interactor) Flush(ctx context.Context) error {
	return i.engine.Flush(ctx)
}

func warning(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func medicationOutput(m domain.Medication, now time.Time) dto.MedicationOutput {
	times := make([]string, 0, len(m.ScheduledTimes))
	for _, t := range m.ScheduledTimes {
		times = append(times, t.String())
	}
	out := dto.MedicationOutput{
		ID:              m.ID,
		Name:            m.Name,
		Dosage:          m.Dosage,
		Instruction:     m.Instruction,
		Kind:            string(m.Kind),
		Icon:            m.Icon,
		ScheduledTimes:  times,
		IsActive:        m.IsActive,
		DurationDays:    m.DurationDays,
		MaxDurationDays: m.MaxDurationDays,
		StartDate:       m.StartDate.String(),
		Visible:         m.IsVisibleAt(now),
	}
	if progress, ok := m.Course(now); ok {
		out.CourseState = progress.State.String()
		out.CourseDay = progress.Day
	}
	return out
}

func todayOutput(schedule domain.DaySchedule) dto.TodayOutput {
	taken, total := schedule.Counts()
	out := dto.TodayOutput{
		Day:         schedule.Day.String(),
		GeneratedAt: schedule.GeneratedAt,
		Entries:     make([]dto.TodayEntry, 0, len(schedule.Entries)),
		Taken:       taken,
		Total:       total,
	}
	for _, entry := range schedule.Entries {
		row := dto.TodayEntry{
			Medication: medicationOutput(entry.Medication, schedule.GeneratedAt),
			Slots:      make([]dto.SlotOutput, 0, len(entry.Slots)),
			Footer:     Footer(entry),
		}
		for _, s := range entry.Slots {
			slot := dto.SlotOutput{
				Time:    s.Slot.String(),
				DueAt:   s.DueAt,
				Due:     s.Due,
				Overdue: s.Due && !s.Taken,
				Taken:   s.Taken,
			}
			if s.Taken {
				slot.TakenAt = s.TakenAt.String()
			}
			row.Slots = append(row.Slots, slot)
		}
		out.Entries = append(out.Entries, row)
	}
	if len(out.Entries) == 0 {
		out.EmptyHint = EmptyTodayHint
	}
	return out
}

// Footer is the course line shown under a medication: progress for running
// courses, a notice before the first dose, or the maximum duration hint.
func Footer(entry domain.ScheduledMedication) string {
	if entry.HasCourse {
		switch entry.Course.State {
		case domain.CourseNotStarted:
			return fmt.Sprintf("%d-day course starts with the first dose", entry.Course.Total)
		default:
			return fmt.Sprintf("Day %d of %d", entry.Course.Day, entry.Course.Total)
		}
	}
	if entry.Medication.MaxDurationDays > 0 {
		return fmt.Sprintf("Max %d days", entry.Medication.MaxDurationDays)
	}
	return ""
}
