package schedule

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thetz25/LendingManagement/pkg/calendar"
	"github.com/thetz25/LendingManagement/pkg/models"
)

// maxEntries bounds schedule generation against malformed date ranges
// (e.g. a due date decades past the start on a daily loan).
const maxEntries = 1000

// ErrScheduleTruncated reports that generation hit the entry cap before
// reaching the due date. The returned schedule is still valid, just cut
// short; callers decide whether to surface or log it.
var ErrScheduleTruncated = errors.New("schedule truncated at entry cap")

// TemporalClass places a schedule entry relative to a reference date.
type TemporalClass string

const (
	ClassPast     TemporalClass = "past"
	ClassToday    TemporalClass = "today"
	ClassUpcoming TemporalClass = "upcoming"
)

// Entry is one expected collection event. Entries are derived on every call
// and never persisted.
type Entry struct {
	Date   time.Time       `json:"date"`
	Target decimal.Decimal `json:"target_amount"`
	Class  TemporalClass   `json:"temporal_class"`
}

// Generate builds the ordered repayment schedule for a loan, earliest entry
// first, classifying each entry as past, today or upcoming relative to the
// given reference date (time of day ignored).
//
// A lump-sum loan has exactly one entry, at the due date. Otherwise entries
// advance from the start date one period at a time (a day, a week, or a
// calendar month) while they stay on or before the due date. The first
// entry is one period after the start, never the disbursement day itself.
// Each entry carries the same target, total payable divided by the entry
// count and rounded up, so the generated targets never sum below the total.
func Generate(loan models.Loan, today time.Time) ([]Entry, error) {
	ref := calendar.Day(today)

	var dates []time.Time
	var err error
	if loan.Frequency == models.FrequencyLumpSum {
		dates = []time.Time{calendar.Day(loan.DueDate)}
	} else {
		dates, err = advance(loan)
	}

	target := loan.TotalPayable.Div(decimal.NewFromInt(int64(len(dates)))).Ceil()

	entries := make([]Entry, 0, len(dates))
	for _, d := range dates {
		entries = append(entries, Entry{
			Date:   d,
			Target: target,
			Class:  classify(d, ref),
		})
	}
	return entries, err
}

// advance walks period by period from the start date, collecting each date
// that lands on or before the due date. Returns at least one entry: a
// degenerate range (due before the first period boundary) yields a single
// entry at the due date so the loan still has one collection event.
func advance(loan models.Loan) ([]time.Time, error) {
	due := calendar.Day(loan.DueDate)
	cursor := calendar.Day(loan.StartDate)

	var dates []time.Time
	for len(dates) < maxEntries {
		cursor = next(cursor, loan.Frequency)
		if cursor.After(due) {
			break
		}
		dates = append(dates, cursor)
	}

	if len(dates) == 0 {
		return []time.Time{due}, nil
	}
	if len(dates) == maxEntries && !next(cursor, loan.Frequency).After(due) {
		return dates, ErrScheduleTruncated
	}
	return dates, nil
}

// next advances one collection period. Unrecognized frequencies advance
// daily, mirroring Amortize's fallback.
func next(t time.Time, freq models.PaymentFrequency) time.Time {
	switch freq {
	case models.FrequencyWeekly:
		return calendar.AddDays(t, daysPerWeek)
	case models.FrequencyMonthly:
		return calendar.AddMonths(t, 1)
	default:
		return calendar.AddDays(t, 1)
	}
}

func classify(date, ref time.Time) TemporalClass {
	switch {
	case date.Before(ref):
		return ClassPast
	case date.Equal(ref):
		return ClassToday
	default:
		return ClassUpcoming
	}
}
