package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"medtrack/internal/modules/schedule/domain"
)

func TestDefaultMedicationsAreValid(t *testing.T) {
	t.Parallel()
	meds := domain.DefaultMedications()
	if len(meds) != 6 {
		t.Fatalf("expected six seeded medications, got %d", len(meds))
	}
	ids := map[int]bool{}
	for _, m := range meds {
		if err := m.Validate(); err != nil {
			t.Fatalf("seed %d invalid: %v", m.ID, err)
		}
		if ids[m.ID] {
			t.Fatalf("duplicate seed id %d", m.ID)
		}
		ids[m.ID] = true
		if m.IsConditional() && m.IsActive {
			t.Fatalf("conditional seed %d must start inactive", m.ID)
		}
		if m.StartDate != "" {
			t.Fatalf("seed %d must not have a start date", m.ID)
		}
	}
}

func TestValidateRejectsBrokenMedications(t *testing.T) {
	t.Parallel()
	base := domain.DefaultMedications()[1]
	cases := map[string]func(m *domain.Medication){
		"zero id":        func(m *domain.Medication) { m.ID = 0 },
		"no name":        func(m *domain.Medication) { m.Name = " " },
		"bad kind":       func(m *domain.Medication) { m.Kind = "weekly" },
		"no times":       func(m *domain.Medication) { m.ScheduledTimes = nil },
		"duplicate time": func(m *domain.Medication) { m.ScheduledTimes = append(m.ScheduledTimes, m.ScheduledTimes[0]) },
		"bad start":      func(m *domain.Medication) { m.StartDate = "01/02/2024" },
		"foreign slot": func(m *domain.Medication) {
			m.DailyLog = domain.DailyLog{"2024-01-01": {{ScheduledSlot: domain.MustTimeOfDay("10:00")}}}
		},
		"duplicate take": func(m *domain.Medication) {
			r := domain.TakeRecord{ScheduledSlot: domain.MustTimeOfDay("08:00"), TakenAt: domain.MustTimeOfDay("08:01")}
			m.DailyLog = domain.DailyLog{"2024-01-01": {r, r}}
		},
	}
	for name, mutate := range cases {
		m := base.Clone()
		mutate(&m)
		if err := m.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	original := domain.DefaultMedications()[1]
	original.DailyLog["2024-01-01"] = []domain.TakeRecord{{ScheduledSlot: domain.MustTimeOfDay("08:00"), TakenAt: domain.MustTimeOfDay("08:02")}}

	clone := original.Clone()
	clone.DailyLog["2024-01-01"][0].TakenAt = domain.MustTimeOfDay("09:00")
	clone.DailyLog["2024-01-02"] = nil
	clone.ScheduledTimes[0] = domain.MustTimeOfDay("07:00")

	if original.DailyLog["2024-01-01"][0].TakenAt.String() != "08:02" {
		t.Fatalf("clone shares take records with original")
	}
	if _, ok := original.DailyLog["2024-01-02"]; ok {
		t.Fatalf("clone shares log map with original")
	}
	if original.ScheduledTimes[0].String() != "08:00" {
		t.Fatalf("clone shares scheduled times with original")
	}
}

func TestTakeOnFindsSlotRegardlessOfOrder(t *testing.T) {
	t.Parallel()
	m := domain.DefaultMedications()[2]
	m.DailyLog["2024-01-01"] = []domain.TakeRecord{
		{ScheduledSlot: domain.MustTimeOfDay("16:00"), TakenAt: domain.MustTimeOfDay("16:10")},
		{ScheduledSlot: domain.MustTimeOfDay("08:00"), TakenAt: domain.MustTimeOfDay("16:11")},
	}
	r, ok := m.TakeOn("2024-01-01", domain.MustTimeOfDay("08:00"))
	if !ok || r.TakenAt.String() != "16:11" {
		t.Fatalf("expected late take of 08:00, got %+v ok=%t", r, ok)
	}
	if _, ok := m.TakeOn("2024-01-02", domain.MustTimeOfDay("08:00")); ok {
		t.Fatalf("other day must not report a take")
	}
}

func TestMedicationDocumentShape(t *testing.T) {
	t.Parallel()
	m := domain.DefaultMedications()[1]
	m.StartDate = "2024-01-01"
	m.DailyLog["2024-01-01"] = []domain.TakeRecord{{ScheduledSlot: domain.MustTimeOfDay("08:00"), TakenAt: domain.MustTimeOfDay("08:03")}}
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc := string(raw)
	for _, want := range []string{
		`"scheduled_times":["08:00","20:00"]`,
		`"start_date":"2024-01-01"`,
		`"daily_log":{"2024-01-01":[{"scheduled":"08:00","taken_at":"08:03"}]}`,
		`"duration_days":7`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %s: %s", want, doc)
		}
	}
}

func TestBuildDayScheduleHidesAndMarks(t *testing.T) {
	t.Parallel()
	meds := domain.DefaultMedications()
	meds[0].DailyLog["2024-01-01"] = []domain.TakeRecord{{ScheduledSlot: domain.MustTimeOfDay("06:00"), TakenAt: domain.MustTimeOfDay("06:15")}}
	schedule := domain.BuildDaySchedule(meds, at("2024-01-01", 10, 0))

	if len(schedule.Entries) != 5 {
		t.Fatalf("expected inactive conditional to be hidden, got %d entries", len(schedule.Entries))
	}
	first := schedule.Entries[0]
	if !first.Slots[0].Taken || first.Slots[0].TakenAt.String() != "06:15" || !first.Slots[0].Due {
		t.Fatalf("unexpected first slot %+v", first.Slots[0])
	}
	lasal := schedule.Entries[2]
	if lasal.Medication.ID != 3 || lasal.Slots[3].Due {
		t.Fatalf("20:00 slot must not be due at 10:00: %+v", lasal.Slots[3])
	}
	taken, total := schedule.Counts()
	if taken != 1 || total != 9 {
		t.Fatalf("expected 1/9 taken, got %d/%d", taken, total)
	}
}
