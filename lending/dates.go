package lending

import "time"

// DayLayout is the calendar-day format accepted by filters.
const DayLayout = "2006-01-02"

// ParseDay reads a YYYY-MM-DD day in UTC. With endOfDay the result is the last
// instant of that day, so it can close an inclusive range. Empty input gives nil.
func ParseDay(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DayLayout, v, time.UTC)
	if err != nil {
		return nil, NewValidationError("", 0, "invalid date "+v+", want YYYY-MM-DD")
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
