package domain

// DefaultMedications is the prescribed set written on first run.
func DefaultMedications() []Medication {
	return []Medication{
		{
			ID:             1,
			Name:           "Pro TB 3",
			Dosage:         "2 tablets",
			Instruction:    "Before meals",
			Kind:           KindFixed,
			ScheduledTimes: slots("06:00"),
			Icon:           "pill",
			DailyLog:       DailyLog{},
		},
		{
			ID:             2,
			Name:           "Sporetik Syrup",
			Dosage:         "2.5 ml",
			Instruction:    "After meals (every 12 hours)",
			Kind:           KindInterval,
			IntervalHours:  12,
			DurationDays:   7,
			ScheduledTimes: slots("08:00", "20:00"),
			Icon:           "bottle",
			DailyLog:       DailyLog{},
		},
		{
			ID:              3,
			Name:            "Lasal Syrup",
			Dosage:          "3 ml",
			Instruction:     "After meals (max 20 days)",
			Kind:            KindFrequency,
			TimesPerDay:     4,
			MaxDurationDays: 20,
			ScheduledTimes:  slots("08:00", "12:00", "16:00", "20:00"),
			Icon:            "bottle",
			DailyLog:        DailyLog{},
		},
		{
			ID:             4,
			Name:           "Disudrin Syrup",
			Dosage:         "1.5 ml",
			Instruction:    "After meals (when congested)",
			Kind:           KindConditional,
			IsActive:       false,
			TimesPerDay:    3,
			ScheduledTimes: slots("08:00", "14:00", "20:00"),
			Icon:           "bottle",
			DailyLog:       DailyLog{},
		},
		{
			ID:             5,
			Name:           "Teorol Drops",
			Dosage:         "3 drops",
			Instruction:    "Morning, after meals",
			Kind:           KindFixed,
			ScheduledTimes: slots("09:00"),
			Icon:           "drop",
			DailyLog:       DailyLog{},
		},
		{
			ID:             6,
			Name:           "Imunped Syrup",
			Dosage:         "2.5 ml",
			Instruction:    "Morning, after meals",
			Kind:           KindFixed,
			ScheduledTimes: slots("09:00"),
			Icon:           "bottle",
			DailyLog:       DailyLog{},
		},
	}
}

func slots(values ...string) []TimeOfDay {
	out := make([]TimeOfDay, 0, len(values))
	for _, v := range values {
		out = append(out, MustTimeOfDay(v))
	}
	return out
}
