package types

import (
	"time"
)

// BillingCycle is the calendar month billing period containing a point in time
type BillingCycle struct {
	// Start is the first day of the month
	Start time.Time
	// End is the last day of the month
	End time.Time
	// Next is the first day of the following month
	Next time.Time
	// DaysRemaining counts whole days from the day of the reference time to End
	DaysRemaining int
}

// CalendarMonthCycle returns the billing cycle containing now.
// All dates are midnight in now's location.
func CalendarMonthCycle(now time.Time) BillingCycle {
	today := StartOfDay(now)
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	next := start.AddDate(0, 1, 0)
	end := next.AddDate(0, 0, -1)

	return BillingCycle{
		Start:         start,
		End:           end,
		Next:          next,
		DaysRemaining: daysBetween(today, end),
	}
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, both at midnight.
// Dates are compared in UTC so daylight saving shifts do not lose a day.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
