package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/thetz25/LendingManagement/pkg/calendar"
	"github.com/thetz25/LendingManagement/pkg/models"
)

// Reconciliation is the paid/unpaid state of one collection period.
type Reconciliation struct {
	Collected decimal.Decimal `json:"collected"`
	Remaining decimal.Decimal `json:"remaining"`
	FullyPaid bool            `json:"fully_paid"`
}

// Reconcile sums the payments that landed on the reference date (date-only
// match; the caller normalizes time zones consistently) against the period
// target supplied by the caller. No schedule lookup happens here, just
// arithmetic over the figures handed in.
func Reconcile(payments []models.Payment, date time.Time, target decimal.Decimal) Reconciliation {
	collected := decimal.Zero
	for _, p := range payments {
		if calendar.SameDay(p.PaymentDate, date) {
			collected = collected.Add(p.Amount)
		}
	}

	remaining := target.Sub(collected)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return Reconciliation{
		Collected: collected,
		Remaining: remaining,
		FullyPaid: collected.GreaterThanOrEqual(target),
	}
}
