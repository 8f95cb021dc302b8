package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"medtrack/internal/modules/schedule/domain"
	scheduleout "medtrack/internal/modules/schedule/port/out"
	"medtrack/internal/platform/clock"
	apperrors "medtrack/internal/platform/errors"
)

const (
	confirmUndo        = "Mark this dose as not taken?"
	confirmResetCourse = "Reset course progress for %s?"
	confirmResetToday  = "Reset today's schedule? All taken marks for today will be cleared."
)

type Options struct {
	// CatchUpLimit bounds how far back a sweep still notifies. Older slots in
	// the window are consumed silently. Zero disables the limit.
	CatchUpLimit time.Duration
}

// Engine owns the in-memory medication list and the sweep cursor. Every
// mutation edits a clone and swaps it in, then saves the whole list.
type Engine struct {
	clock     clock.Clock
	store     scheduleout.DocumentStore
	notifier  scheduleout.Notifier
	confirmer scheduleout.Confirmer
	log       hclog.Logger
	opts      Options

	mu        sync.Mutex
	loaded    bool
	meds      []domain.Medication
	lastSwept time.Time
	dirty     bool
}

func NewEngine(clock clock.Clock, store scheduleout.DocumentStore, notifier scheduleout.Notifier, confirmer scheduleout.Confirmer, log hclog.Logger, opts Options) *Engine {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Engine{
		clock:     clock,
		store:     store,
		notifier:  notifier,
		confirmer: confirmer,
		log:       log.Named("engine"),
		opts:      opts,
	}
}

type SweepReport struct {
	From       time.Time
	To         time.Time
	Due        []domain.Reminder
	Delivered  int
	Failed     int
	Skipped    int
	Permission domain.Permission
}

type ToggleResult struct {
	Medication    domain.Medication
	Slot          domain.TimeOfDay
	Taken         bool
	TakenAt       domain.TimeOfDay
	Declined      bool
	CourseStarted bool
	SaveErr       error
}

type ConditionalResult struct {
	Medication domain.Medication
	SaveErr    error
}

type ResetResult struct {
	Applied bool
	Cleared int
	SaveErr error
}

// Load reads the medication document, seeding the prescribed defaults on
// first run, and starts the sweep cursor at the current instant.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(ctx)
}

func (e *Engine) load(ctx context.Context) error {
	meds, found, err := e.store.Load(ctx, domain.DocumentKey)
	if err != nil {
		return fmt.Errorf("load medications: %w", err)
	}
	if !found {
		e.meds = domain.DefaultMedications()
		e.log.Info("seeded default medications", "count", len(e.meds))
		if err := e.persist(ctx); err != nil {
			e.log.Warn("initial save failed", "error", err)
		}
	} else {
		ids := make(map[int]struct{}, len(meds))
		for i := range meds {
			if err := meds[i].Validate(); err != nil {
				return fmt.Errorf("load medications: %w", err)
			}
			if _, dup := ids[meds[i].ID]; dup {
				return fmt.Errorf("load medications: medication %d listed twice: %w", meds[i].ID, apperrors.ErrInvalidInput)
			}
			ids[meds[i].ID] = struct{}{}
			if meds[i].DailyLog == nil {
				meds[i].DailyLog = domain.DailyLog{}
			}
		}
		e.meds = meds
	}
	e.lastSwept = e.clock.Now()
	e.loaded = true
	return nil
}

func (e *Engine) ensureLoaded(ctx context.Context) error {
	if e.loaded {
		return nil
	}
	return e.load(ctx)
}

// persist saves the full list. A failed save keeps the in-memory state and
// marks the engine dirty so the next mutation or Flush retries it.
func (e *Engine) persist(ctx context.Context) error {
	if err := e.store.Save(ctx, domain.DocumentKey, domain.CloneAll(e.meds)); err != nil {
		e.dirty = true
		e.log.Warn("save medications failed", "error", err)
		return fmt.Errorf("%w: save medications: %w", apperrors.ErrPersistence, err)
	}
	if e.dirty {
		e.log.Info("pending changes saved")
	}
	e.dirty = false
	return nil
}

func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || !e.dirty {
		return nil
	}
	return e.persist(ctx)
}

func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

func (e *Engine) LastSwept() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSwept
}

// Rewind moves the sweep cursor back to from, so a process that just started
// can report slots that came due before it loaded. A cursor already at or
// before from is left where it is.
func (e *Engine) Rewind(ctx context.Context, from time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}
	if from.Before(e.lastSwept) {
		e.log.Debug("sweep cursor rewound", "from", e.lastSwept.Format(time.TimeOnly), "to", from.Format(time.TimeOnly))
		e.lastSwept = from
	}
	return nil
}

func (e *Engine) index(id int) (int, error) {
	for i, m := range e.meds {
		if m.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("medication %d: %w", id, apperrors.ErrUnknownMedication)
}

// SweepDue reports the slots whose instant falls in (lastSwept, now] and are
// not yet taken, and shows a reminder for each when permission is granted.
// The cursor moves to now whatever happens.
func (e *Engine) SweepDue(ctx context.Context, now time.Time) (SweepReport, error) {
	e.mu.Lock()
	if err := e.ensureLoaded(ctx); err != nil {
		e.mu.Unlock()
		return SweepReport{}, err
	}
	from := e.lastSwept
	e.lastSwept = now
	report := SweepReport{From: from, To: now}
	if now.After(from) {
		report.Due, report.Skipped = e.collectDue(from, now)
	}
	e.mu.Unlock()

	e.log.Debug("sweep", "from", from.Format(time.TimeOnly), "to", now.Format(time.TimeOnly), "due", len(report.Due), "skipped", report.Skipped)
	if len(report.Due) == 0 {
		return report, nil
	}

	permission, err := e.notifier.Permission(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotificationUnavailable) {
			e.log.Warn("read notification permission", "error", err)
		}
		report.Permission = domain.PermissionDefault
		return report, nil
	}
	report.Permission = permission
	if permission != domain.PermissionGranted {
		return report, nil
	}
	for _, reminder := range report.Due {
		if err := e.notifier.Show(ctx, reminder); err != nil {
			report.Failed++
			e.log.Warn("show reminder failed", "tag", reminder.Tag, "error", err)
			continue
		}
		report.Delivered++
		e.log.Info("reminder shown", "tag", reminder.Tag)
	}
	return report, nil
}

func (e *Engine) collectDue(from, now time.Time) ([]domain.Reminder, int) {
	horizon := from
	if e.opts.CatchUpLimit > 0 {
		if h := now.Add(-e.opts.CatchUpLimit); h.After(horizon) {
			horizon = h
		}
	}
	start := from.In(now.Location())
	y, mo, d := start.Date()
	due := []domain.Reminder{}
	skipped := 0
	for day := time.Date(y, mo, d, 0, 0, 0, 0, now.Location()); !day.After(now); day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, now.Location()) {
		key := domain.DayKeyOf(day)
		for _, m := range e.meds {
			if m.IsConditional() && !m.IsActive {
				continue
			}
			for _, slot := range m.ScheduledTimes {
				at := slot.On(day)
				if !at.After(from) || at.After(now) {
					continue
				}
				if !m.IsVisibleAt(at) {
					continue
				}
				if _, taken := m.TakeOn(key, slot); taken {
					continue
				}
				if !at.After(horizon) {
					skipped++
					continue
				}
				due = append(due, domain.NewReminder(m, slot, at))
			}
		}
	}
	slices.SortStableFunc(due, func(a, b domain.Reminder) int {
		return a.DueAt.Compare(b.DueAt)
	})
	return due, skipped
}

// ToggleTaken records a take for slot today, or undoes an existing one after
// confirmation. The first take of a course medication starts its course.
func (e *Engine) ToggleTaken(ctx context.Context, medicationID int, slot domain.TimeOfDay) (ToggleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return ToggleResult{}, err
	}
	idx, err := e.index(medicationID)
	if err != nil {
		return ToggleResult{}, err
	}
	if !e.meds[idx].HasSlot(slot) {
		return ToggleResult{}, fmt.Errorf("medication %d at %s: %w", medicationID, slot, apperrors.ErrInvalidSlot)
	}

	now := e.clock.Now()
	today := domain.DayKeyOf(now)
	result := ToggleResult{Slot: slot}

	if existing, taken := e.meds[idx].TakeOn(today, slot); taken {
		if !e.confirmer.Confirm(ctx, confirmUndo) {
			result.Medication = e.meds[idx].Clone()
			result.Taken = true
			result.TakenAt = existing.TakenAt
			result.Declined = true
			return result, nil
		}
		next := domain.CloneAll(e.meds)
		records := next[idx].DailyLog[today]
		kept := make([]domain.TakeRecord, 0, len(records))
		for _, r := range records {
			if r.ScheduledSlot != slot {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(next[idx].DailyLog, today)
		} else {
			next[idx].DailyLog[today] = kept
		}
		e.meds = next
		e.log.Info("dose undone", "medication", medicationID, "slot", slot.String())
	} else {
		next := domain.CloneAll(e.meds)
		m := &next[idx]
		record := domain.TakeRecord{ScheduledSlot: slot, TakenAt: domain.TimeOfDayOf(now)}
		m.DailyLog[today] = append(m.DailyLog[today], record)
		if m.HasCourse() && m.StartDate == "" {
			m.StartDate = today
			result.CourseStarted = true
		}
		e.meds = next
		result.Taken = true
		result.TakenAt = record.TakenAt
		e.log.Info("dose taken", "medication", medicationID, "slot", slot.String(), "course_started", result.CourseStarted)
	}
	result.Medication = e.meds[idx].Clone()
	result.SaveErr = e.persist(ctx)
	return result, nil
}

func (e *Engine) ToggleConditional(ctx context.Context, medicationID int) (ConditionalResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return ConditionalResult{}, err
	}
	idx, err := e.index(medicationID)
	if err != nil {
		return ConditionalResult{}, err
	}
	if !e.meds[idx].IsConditional() {
		return ConditionalResult{}, fmt.Errorf("medication %d: %w", medicationID, apperrors.ErrNotConditional)
	}
	next := domain.CloneAll(e.meds)
	next[idx].IsActive = !next[idx].IsActive
	e.meds = next
	e.log.Info("conditional toggled", "medication", medicationID, "active", next[idx].IsActive)
	return ConditionalResult{Medication: next[idx].Clone(), SaveErr: e.persist(ctx)}, nil
}

// ResetCourse clears the start date and the whole log of one medication.
func (e *Engine) ResetCourse(ctx context.Context, medicationID int) (ResetResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return ResetResult{}, err
	}
	idx, err := e.index(medicationID)
	if err != nil {
		return ResetResult{}, err
	}
	if !e.confirmer.Confirm(ctx, fmt.Sprintf(confirmResetCourse, e.meds[idx].Name)) {
		return ResetResult{}, nil
	}
	next := domain.CloneAll(e.meds)
	cleared := 0
	for _, records := range next[idx].DailyLog {
		cleared += len(records)
	}
	next[idx].StartDate = ""
	next[idx].DailyLog = domain.DailyLog{}
	e.meds = next
	e.log.Info("course reset", "medication", medicationID, "cleared", cleared)
	return ResetResult{Applied: true, Cleared: cleared, SaveErr: e.persist(ctx)}, nil
}

// ResetToday drops today's log entries across all medications. Other days,
// start dates and activation flags are left alone.
func (e *Engine) ResetToday(ctx context.Context) (ResetResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return ResetResult{}, err
	}
	if !e.confirmer.Confirm(ctx, confirmResetToday) {
		return ResetResult{}, nil
	}
	today := domain.DayKeyOf(e.clock.Now())
	next := domain.CloneAll(e.meds)
	cleared := 0
	for i := range next {
		cleared += len(next[i].DailyLog[today])
		delete(next[i].DailyLog, today)
	}
	e.meds = next
	e.log.Info("today reset", "day", today.String(), "cleared", cleared)
	return ResetResult{Applied: true, Cleared: cleared, SaveErr: e.persist(ctx)}, nil
}

func (e *Engine) Medications(ctx context.Context) ([]domain.Medication, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return domain.CloneAll(e.meds), nil
}

func (e *Engine) Medication(ctx context.Context, medicationID int) (domain.Medication, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return domain.Medication{}, err
	}
	idx, err := e.index(medicationID)
	if err != nil {
		return domain.Medication{}, err
	}
	return e.meds[idx].Clone(), nil
}

func (e *Engine) Today(ctx context.Context, now time.Time) (domain.DaySchedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return domain.DaySchedule{}, err
	}
	return domain.BuildDaySchedule(e.meds, now), nil
}

func (e *Engine) IsTakenToday(ctx context.Context, medicationID int, slot domain.TimeOfDay) (bool, error) {
	m, err := e.Medication(ctx, medicationID)
	if err != nil {
		return false, err
	}
	_, taken := m.TakeOn(domain.DayKeyOf(e.clock.Now()), slot)
	return taken, nil
}

func (e *Engine) IsVisibleToday(ctx context.Context, medicationID int, now time.Time) (bool, error) {
	m, err := e.Medication(ctx, medicationID)
	if err != nil {
		return false, err
	}
	return m.IsVisibleAt(now), nil
}

func (e *Engine) CourseDayNumber(ctx context.Context, medicationID int, now time.Time) (int, bool, error) {
	m, err := e.Medication(ctx, medicationID)
	if err != nil {
		return 0, false, err
	}
	day, ok := m.CourseDayNumber(now)
	return day, ok, nil
}
