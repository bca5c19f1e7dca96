package quota

import "time"

// DailyStale reports whether a rolling 24 hour window has elapsed since the
// last reset. The window slides from the moment of the reset, it is not
// anchored to midnight.
func DailyStale(lastReset, now time.Time) bool {
	return lastReset.Before(now.Add(-24 * time.Hour))
}

// MonthsBetween returns the number of calendar month boundaries crossed
// between the two instants. Day-of-month is ignored, so Jan 31 to Feb 1
// counts as one month.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// MonthlyStale reports whether at least one calendar month boundary has been
// crossed since the last reset.
func MonthlyStale(lastReset, now time.Time) bool {
	return MonthsBetween(lastReset, now) >= 1
}
