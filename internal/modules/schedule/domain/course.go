package domain

import "time"

type CourseState int

const (
	CourseNotStarted CourseState = iota
	CourseRunning
	CourseExpired
)

func (s CourseState) String() string {
	switch s {
	case CourseRunning:
		return "running"
	case CourseExpired:
		return "expired"
	default:
		return "not_started"
	}
}

// CourseProgress is derived from StartDate and the clock on every call; it
// is never persisted.
type CourseProgress struct {
	State CourseState
	Day   int
	Total int
}

// CourseDay numbers calendar days of a course starting at 1 on the start
// day. A clock earlier than the start day still reports day 1.
func CourseDay(start DayKey, now time.Time) (int, error) {
	days, err := DaysBetween(start, DayKeyOf(now))
	if err != nil {
		return 0, err
	}
	if days < 0 {
		return 1, nil
	}
	return days + 1, nil
}

// CourseDayNumber is defined only once the course has a start date.
func (m Medication) CourseDayNumber(now time.Time) (int, bool) {
	if m.StartDate == "" {
		return 0, false
	}
	day, err := CourseDay(m.StartDate, now)
	if err != nil {
		return 0, false
	}
	return day, true
}

// Course reports progress for medications with a duration course; ok is
// false for medications without one.
func (m Medication) Course(now time.Time) (CourseProgress, bool) {
	if !m.HasCourse() {
		return CourseProgress{}, false
	}
	day, started := m.CourseDayNumber(now)
	if !started {
		return CourseProgress{State: CourseNotStarted, Total: m.DurationDays}, true
	}
	state := CourseRunning
	if day > m.DurationDays {
		state = CourseExpired
	}
	return CourseProgress{State: state, Day: day, Total: m.DurationDays}, true
}

// IsVisibleAt reports whether the medication belongs on the schedule at now:
// inactive conditional medications and expired courses are hidden.
func (m Medication) IsVisibleAt(now time.Time) bool {
	if m.IsConditional() && !m.IsActive {
		return false
	}
	if progress, ok := m.Course(now); ok && progress.State == CourseExpired {
		return false
	}
	return true
}
