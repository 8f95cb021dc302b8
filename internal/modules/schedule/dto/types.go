package dto

import "time"

type MedicationOutput struct {
	ID              int
	Name            string
	Dosage          string
	Instruction     string
	Kind            string
	Icon            string
	ScheduledTimes  []string
	IsActive        bool
	DurationDays    int
	MaxDurationDays int
	StartDate       string
	CourseState     string
	CourseDay       int
	Visible         bool
}

type SlotOutput struct {
	Time    string
	DueAt   time.Time
	Due     bool
	Overdue bool
	Taken   bool
	TakenAt string
}

type TodayEntry struct {
	Medication MedicationOutput
	Slots      []SlotOutput
	Footer     string
}

type TodayOutput struct {
	Day         string
	GeneratedAt time.Time
	Entries     []TodayEntry
	Taken       int
	Total       int
	EmptyHint   string
}

type ToggleTakenInput struct {
	MedicationID int
	Slot         string
}

type ToggleTakenOutput struct {
	MedicationID  int
	Name          string
	Slot          string
	Taken         bool
	TakenAt       string
	Declined      bool
	CourseStarted bool
	Warning       string
}

type ToggleConditionalOutput struct {
	MedicationID int
	Name         string
	IsActive     bool
	Warning      string
}

type ResetOutput struct {
	Applied bool
	Cleared int
	Warning string
}

type ReminderOutput struct {
	MedicationID int
	Slot         string
	DueAt        time.Time
	Title        string
	Body         string
	Tag          string
}

type SweepOutput struct {
	From       time.Time
	To         time.Time
	Due        []ReminderOutput
	Delivered  int
	Failed     int
	Skipped    int
	Permission string
}

type NoteOutput struct {
	Day  string
	Path string
}

type AddMedicationInput struct {
	Name        string
	Dosage      string
	Instruction string
	Times       []string
}
