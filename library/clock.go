package library

import "time"

// Clock supplies the current date. Fines and due dates are pure
// functions of it, so tests inject a fixed implementation.
type Clock interface {
	// Today returns the current date truncated to UTC midnight.
	Today() time.Time
}

type systemClock struct{}

func (systemClock) Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from one date to another. Both
// arguments must be midnight-truncated.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// fineFor computes the days overdue and fine for a loan due on due as of
// today. Not-yet-due loans yield zero for both.
func fineFor(due, today time.Time) (daysOverdue int, fine int64) {
	days := daysBetween(due, today)
	if days <= 0 {
		return 0, 0
	}
	return days, int64(days) * FinePerDay
}
