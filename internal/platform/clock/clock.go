package clock

import "time"

// Clock abstracts time to keep the schedule engine deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reports local wall-clock time. Dose slots and day keys are
// local, so it must not normalize to UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
