// Package schedule is the collection scheduling and amortization engine.
// Every function here is pure: it derives repayment schedules, due-today
// decisions and period reconciliations from loan snapshots handed in by the
// caller, and writes nothing anywhere. Degenerate inputs degrade to safe
// defaults instead of failing, since this feeds a collections dashboard
// rather than acting as a system of record.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/thetz25/LendingManagement/pkg/calendar"
	"github.com/thetz25/LendingManagement/pkg/models"
)

const (
	daysPerWeek  = 7
	daysPerMonth = 30 // flat approximation for period counting only
)

var oneHundred = decimal.NewFromInt(100)

// Terms are the loan parameters amortization is computed from.
type Terms struct {
	Principal    decimal.Decimal
	InterestRate decimal.Decimal // flat markup, percent
	StartDate    time.Time
	DueDate      time.Time // zero value defaults to now
	Frequency    models.PaymentFrequency
}

// Amortization is the repayment shape of a loan: what is owed in total, over
// how many collection periods, and how much each period should bring in.
type Amortization struct {
	TotalPayable      decimal.Decimal
	PeriodCount       int
	InstallmentTarget decimal.Decimal
}

// TotalPayable applies the flat markup: principal * (1 + rate/100).
func TotalPayable(principal, rate decimal.Decimal) decimal.Decimal {
	return principal.Add(principal.Mul(rate).Div(oneHundred))
}

// Amortize converts loan terms into total payable, period count and the
// per-period installment target. The target rounds up to the nearest
// currency unit so the sum of full installments never falls short of the
// total payable; the final period implicitly absorbs the remainder.
//
// An unrecognized frequency counts periods as daily rather than failing.
func Amortize(t Terms) Amortization {
	total := TotalPayable(t.Principal, t.InterestRate)

	due := t.DueDate
	if due.IsZero() {
		due = time.Now()
	}
	termDays := calendar.TermDays(t.StartDate, due)

	var periods int
	switch t.Frequency {
	case models.FrequencyWeekly:
		periods = calendar.CeilDiv(termDays, daysPerWeek)
	case models.FrequencyMonthly:
		periods = calendar.CeilDiv(termDays, daysPerMonth)
	case models.FrequencyLumpSum:
		periods = 1
	default:
		periods = termDays
	}
	if periods < 1 {
		periods = 1
	}

	return Amortization{
		TotalPayable:      total,
		PeriodCount:       periods,
		InstallmentTarget: total.Div(decimal.NewFromInt(int64(periods))).Ceil(),
	}
}
