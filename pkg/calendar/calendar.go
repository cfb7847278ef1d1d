// Package calendar holds the date arithmetic the scheduling engine is built
// on. Everything works at day granularity: callers hand in timestamps, the
// functions here compare and advance whole calendar days.
package calendar

import (
	"math"
	"time"
)

const hoursPerDay = 24

// Day strips the time-of-day component, leaving midnight UTC of the same
// calendar date.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(hoursPerDay * time.Hour)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// SameWeekday reports whether a and b fall on the same day of the week.
func SameWeekday(a, b time.Time) bool {
	return a.UTC().Weekday() == b.UTC().Weekday()
}

// SameDayOfMonth reports whether a and b fall on the same day of the month.
func SameDayOfMonth(a, b time.Time) bool {
	return a.UTC().Day() == b.UTC().Day()
}

// TermDays returns the loan term length in whole days, rounding partial days
// up. The result is never less than 1, so a same-day term still counts as a
// one-day term and downstream divisions stay safe.
func TermDays(start, due time.Time) int {
	hours := due.Sub(start).Hours()
	days := int(math.Ceil(math.Abs(hours) / hoursPerDay))
	if days < 1 {
		return 1
	}
	return days
}

// AddDays advances t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddMonths advances t by n calendar months, with time.AddDate's usual
// normalization (Jan 31 + 1 month = Mar 2 or 3).
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// CeilDiv divides n by d rounding up. d is clamped to a minimum of 1.
func CeilDiv(n, d int) int {
	if d < 1 {
		d = 1
	}
	return (n + d - 1) / d
}
