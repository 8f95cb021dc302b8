package domain

// DayNote is the exported summary of one day's schedule.
type DayNote struct {
	Schedule DaySchedule
	Taken    int
	Total    int
}

func NewDayNote(schedule DaySchedule) DayNote {
	taken, total := schedule.Counts()
	return DayNote{Schedule: schedule, Taken: taken, Total: total}
}
