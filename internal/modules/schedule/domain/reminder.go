package domain

import (
	"fmt"
	"time"
)

const ReminderTitle = "Time to take your medicine!"

type Reminder struct {
	MedicationID int
	Slot         TimeOfDay
	DueAt        time.Time
	Title        string
	Body         string
	Tag          string
}

func NewReminder(m Medication, slot TimeOfDay, dueAt time.Time) Reminder {
	return Reminder{
		MedicationID: m.ID,
		Slot:         slot,
		DueAt:        dueAt,
		Title:        ReminderTitle,
		Body:         fmt.Sprintf("%s - %s (%s)", m.Name, m.Dosage, m.Instruction),
		Tag:          ReminderTag(m.ID, slot),
	}
}

// ReminderTag is stable per (medication, slot) so the notification surface
// can collapse duplicates.
func ReminderTag(medicationID int, slot TimeOfDay) string {
	return fmt.Sprintf("med-%d-%s", medicationID, slot)
}

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)
