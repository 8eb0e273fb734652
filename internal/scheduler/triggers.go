package scheduler

import "time"

// NextDaily returns the next occurrence of hh:mm in loc strictly after now.
func NextDaily(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextWeekly returns the next occurrence of weekday at hh:mm in loc strictly
// after now.
func NextWeekly(now time.Time, weekday time.Weekday, hour, minute int, loc *time.Location) time.Time {
	next := NextDaily(now, hour, minute, loc)
	for next.Weekday() != weekday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextInterval returns the next multiple of interval after now. Intervals
// shorter than a minute are clamped to a minute.
func NextInterval(now time.Time, interval time.Duration) time.Time {
	if interval < time.Minute {
		interval = time.Minute
	}
	return now.Add(interval)
}
