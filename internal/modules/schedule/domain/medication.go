package domain

import (
	"fmt"
	"strings"
)

// DocumentKey names the storage slot of the medication list. Bump the suffix
// when the document shape changes.
const DocumentKey = "medications_v2"

type ScheduleKind string

const (
	KindFixed       ScheduleKind = "fixed"
	KindInterval    ScheduleKind = "interval"
	KindFrequency   ScheduleKind = "frequency"
	KindConditional ScheduleKind = "conditional"
)

func (k ScheduleKind) Validate() error {
	switch k {
	case KindFixed, KindInterval, KindFrequency, KindConditional:
		return nil
	default:
		return fmt.Errorf("unsupported schedule kind %q", string(k))
	}
}

type TakeRecord struct {
	ScheduledSlot TimeOfDay `json:"scheduled"`
	TakenAt       TimeOfDay `json:"taken_at"`
}

// DailyLog partitions take records by local day. Records within a day keep
// the order in which doses were marked taken.
type DailyLog map[DayKey][]TakeRecord

type Medication struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Dosage         string       `json:"dosage"`
	Instruction    string       `json:"instruction"`
	Kind           ScheduleKind `json:"schedule_kind"`
	ScheduledTimes []TimeOfDay  `json:"scheduled_times"`
	DurationDays   int          `json:"duration_days,omitempty"`
	StartDate      DayKey       `json:"start_date,omitempty"`
	IsActive       bool         `json:"is_active,omitempty"`

	IntervalHours   int    `json:"interval_hours,omitempty"`
	TimesPerDay     int    `json:"times_per_day,omitempty"`
	MaxDurationDays int    `json:"max_duration_days,omitempty"`
	Icon            string `json:"icon,omitempty"`

	DailyLog DailyLog `json:"daily_log"`
}

func (m Medication) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("medication id must be positive")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("medication %d: name is required", m.ID)
	}
	if err := m.Kind.Validate(); err != nil {
		return fmt.Errorf("medication %d: %w", m.ID, err)
	}
	if len(m.ScheduledTimes) == 0 {
		return fmt.Errorf("medication %d: at least one scheduled time is required", m.ID)
	}
	seen := map[TimeOfDay]struct{}{}
	for _, slot := range m.ScheduledTimes {
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("medication %d: %w", m.ID, err)
		}
		if _, dup := seen[slot]; dup {
			return fmt.Errorf("medication %d: duplicate scheduled time %s", m.ID, slot)
		}
		seen[slot] = struct{}{}
	}
	if m.DurationDays < 0 {
		return fmt.Errorf("medication %d: duration days must not be negative", m.ID)
	}
	if m.StartDate != "" {
		if _, err := ParseDayKey(string(m.StartDate)); err != nil {
			return fmt.Errorf("medication %d: %w", m.ID, err)
		}
	}
	for day, records := range m.DailyLog {
		taken := map[TimeOfDay]struct{}{}
		for _, r := range records {
			if !m.HasSlot(r.ScheduledSlot) {
				return fmt.Errorf("medication %d: log for %s references unscheduled slot %s", m.ID, day, r.ScheduledSlot)
			}
			if _, dup := taken[r.ScheduledSlot]; dup {
				return fmt.Errorf("medication %d: duplicate take for %s at %s", m.ID, day, r.ScheduledSlot)
			}
			taken[r.ScheduledSlot] = struct{}{}
		}
	}
	return nil
}

func (m Medication) IsConditional() bool { return m.Kind == KindConditional }

func (m Medication) HasCourse() bool { return m.DurationDays > 0 }

func (m Medication) HasSlot(slot TimeOfDay) bool {
	for _, s := range m.ScheduledTimes {
		if s == slot {
			return true
		}
	}
	return false
}

// TakeOn looks up the record for slot on day. The (day, slot) index is
// derived from DailyLog on demand rather than stored.
func (m Medication) TakeOn(day DayKey, slot TimeOfDay) (TakeRecord, bool) {
	for _, r := range m.DailyLog[day] {
		if r.ScheduledSlot == slot {
			return r, true
		}
	}
	return TakeRecord{}, false
}

func (m Medication) Clone() Medication {
	out := m
	out.ScheduledTimes = append([]TimeOfDay(nil), m.ScheduledTimes...)
	out.DailyLog = make(DailyLog, len(m.DailyLog))
	for day, records := range m.DailyLog {
		out.DailyLog[day] = append([]TakeRecord(nil), records...)
	}
	return out
}

func CloneAll(meds []Medication) []Medication {
	out := make([]Medication, len(meds))
	for i, m := range meds {
		out[i] = m.Clone()
	}
	return out
}
