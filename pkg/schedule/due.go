package schedule

import (
	"time"

	"github.com/thetz25/LendingManagement/pkg/calendar"
	"github.com/thetz25/LendingManagement/pkg/models"
)

// DueOn reports whether a loan belongs on the collection worklist for the
// given date. Paid loans never appear; defaulted loans stay listed so
// collectors keep chasing them. A loan is never due before its start date.
//
// The match is frequency-specific and intentionally independent of the
// generated schedule's period boundaries: it answers "is collection expected
// today", not "which numbered installment is this".
func DueOn(loan models.Loan, date time.Time) bool {
	if loan.Status == models.StatusPaid {
		return false
	}
	if calendar.Day(loan.StartDate).After(calendar.Day(date)) {
		return false
	}

	switch loan.Frequency {
	case models.FrequencyWeekly:
		return calendar.SameWeekday(loan.StartDate, date)
	case models.FrequencyMonthly:
		return calendar.SameDayOfMonth(loan.StartDate, date)
	case models.FrequencyLumpSum:
		return calendar.SameDay(loan.DueDate, date)
	default:
		// Daily, and anything unrecognized: every started day is a due day.
		return true
	}
}
