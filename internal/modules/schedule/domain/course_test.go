package domain_test

import (
	"testing"
	"time"

	"medtrack/internal/modules/schedule/domain"
)

func at(day string, hh, mm int) time.Time {
	d, err := time.ParseInLocation("2006-01-02", day, time.Local)
	if err != nil {
		panic(err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, time.Local)
}

func course(start domain.DayKey) domain.Medication {
	return domain.Medication{
		ID:             2,
		Name:           "Sporetik Syrup",
		Kind:           domain.KindInterval,
		DurationDays:   7,
		StartDate:      start,
		ScheduledTimes: []domain.TimeOfDay{domain.MustTimeOfDay("08:00"), domain.MustTimeOfDay("20:00")},
	}
}

func TestCourseExpiryVisibility(t *testing.T) {
	t.Parallel()
	m := course("2024-01-01")
	if !m.IsVisibleAt(at("2024-01-01", 10, 0)) {
		t.Fatalf("course must be visible on its start day")
	}
	if !m.IsVisibleAt(at("2024-01-07", 23, 59)) {
		t.Fatalf("course must be visible on day 7")
	}
	if m.IsVisibleAt(at("2024-01-08", 0, 0)) {
		t.Fatalf("course must be hidden from day 8")
	}
	if m.IsVisibleAt(at("2024-02-01", 9, 0)) {
		t.Fatalf("course must stay hidden after expiry")
	}
}

func TestCourseProgressStates(t *testing.T) {
	t.Parallel()
	notStarted := course("")
	progress, ok := notStarted.Course(at("2024-01-03", 8, 0))
	if !ok || progress.State != domain.CourseNotStarted || progress.Total != 7 {
		t.Fatalf("expected not started, got %+v ok=%t", progress, ok)
	}
	if _, started := notStarted.CourseDayNumber(at("2024-01-03", 8, 0)); started {
		t.Fatalf("course day must be undefined before start")
	}
	if !notStarted.IsVisibleAt(at("2030-01-01", 8, 0)) {
		t.Fatalf("not started course is always visible")
	}

	running := course("2024-01-01")
	progress, _ = running.Course(at("2024-01-03", 21, 0))
	if progress.State != domain.CourseRunning || progress.Day != 3 {
		t.Fatalf("expected running day 3, got %+v", progress)
	}
	progress, _ = running.Course(at("2024-01-08", 6, 0))
	if progress.State != domain.CourseExpired || progress.Day != 8 {
		t.Fatalf("expected expired day 8, got %+v", progress)
	}

	fixed := domain.Medication{ID: 1, Kind: domain.KindFixed}
	if _, ok := fixed.Course(at("2024-01-01", 8, 0)); ok {
		t.Fatalf("medication without duration has no course")
	}
}

func TestCourseDayBeforeStartClampsToOne(t *testing.T) {
	t.Parallel()
	day, err := domain.CourseDay("2024-01-05", at("2024-01-01", 8, 0))
	if err != nil {
		t.Fatalf("course day: %v", err)
	}
	if day != 1 {
		t.Fatalf("expected clamp to day 1, got %d", day)
	}
}

func TestConditionalGatingVisibility(t *testing.T) {
	t.Parallel()
	m := domain.Medication{ID: 4, Kind: domain.KindConditional}
	if m.IsVisibleAt(at("2024-01-01", 8, 0)) {
		t.Fatalf("inactive conditional medication must be hidden")
	}
	m.IsActive = true
	if !m.IsVisibleAt(at("2024-01-01", 8, 0)) {
		t.Fatalf("active conditional medication must be visible")
	}
}
