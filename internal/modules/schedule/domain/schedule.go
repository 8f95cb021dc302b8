package domain

import "time"

type SlotStatus struct {
	Slot    TimeOfDay
	DueAt   time.Time
	Due     bool
	Taken   bool
	TakenAt TimeOfDay
}

type ScheduledMedication struct {
	Medication Medication
	Slots      []SlotStatus
	Course     CourseProgress
	HasCourse  bool
}

// DaySchedule is today's view: visible medications in list order with their
// slots in display order.
type DaySchedule struct {
	Day         DayKey
	GeneratedAt time.Time
	Entries     []ScheduledMedication
}

func (d DaySchedule) Counts() (taken, total int) {
	for _, e := range d.Entries {
		for _, s := range e.Slots {
			total++
			if s.Taken {
				taken++
			}
		}
	}
	return taken, total
}

func BuildDaySchedule(meds []Medication, now time.Time) DaySchedule {
	day := DayKeyOf(now)
	out := DaySchedule{Day: day, GeneratedAt: now, Entries: []ScheduledMedication{}}
	for _, m := range meds {
		if !m.IsVisibleAt(now) {
			continue
		}
		entry := ScheduledMedication{Medication: m.Clone(), Slots: make([]SlotStatus, 0, len(m.ScheduledTimes))}
		entry.Course, entry.HasCourse = m.Course(now)
		for _, slot := range m.ScheduledTimes {
			dueAt := slot.On(now)
			status := SlotStatus{Slot: slot, DueAt: dueAt, Due: !dueAt.After(now)}
			if r, ok := m.TakeOn(day, slot); ok {
				status.Taken = true
				status.TakenAt = r.TakenAt
			}
			entry.Slots = append(entry.Slots, status)
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}
