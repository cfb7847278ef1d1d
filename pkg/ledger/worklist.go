package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thetz25/LendingManagement/pkg/models"
	"github.com/thetz25/LendingManagement/pkg/schedule"
)

// WorklistItem is one loan on a day's collection worklist, annotated with
// the period target and what has been collected against it so far.
type WorklistItem struct {
	Loan      models.Loan     `json:"loan"`
	Borrower  models.Borrower `json:"borrower"`
	Target    decimal.Decimal `json:"target"`
	Collected decimal.Decimal `json:"collected"`
	Remaining decimal.Decimal `json:"remaining"`
	FullyPaid bool            `json:"fully_paid"`
}

// CollectionWorklist builds the collection worklist for a date: every
// active or defaulted loan whose frequency rule marks the date as a due
// day, with the day's payments reconciled against the period target.
//
// The target comes from the schedule's nearest today/upcoming entry; when
// the schedule has run out (all entries past), the amortized installment
// target stands in so an overdue loan still shows what a period should
// bring in.
func (l *Ledger) CollectionWorklist(date time.Time) ([]WorklistItem, error) {
	loans, err := l.storage.GetCollectibleLoans()
	if err != nil {
		return nil, fmt.Errorf("failed to load collectible loans: %w", err)
	}

	items := make([]WorklistItem, 0)
	for _, loan := range loans {
		if !schedule.DueOn(*loan, date) {
			continue
		}

		borrower, err := l.storage.GetBorrower(loan.BorrowerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load borrower for loan %s: %w", loan.ID, err)
		}

		payments, err := l.storage.GetPaymentsForLoan(loan.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payments for loan %s: %w", loan.ID, err)
		}

		target := l.periodTarget(*loan, date)
		rec := schedule.Reconcile(derefPayments(payments), date, target)

		items = append(items, WorklistItem{
			Loan:      *loan,
			Borrower:  *borrower,
			Target:    target,
			Collected: rec.Collected,
			Remaining: rec.Remaining,
			FullyPaid: rec.FullyPaid,
		})
	}
	return items, nil
}

// periodTarget picks the target amount for the date's collection period:
// the first today/upcoming schedule entry, falling back to the amortized
// installment when every entry is already past.
func (l *Ledger) periodTarget(loan models.Loan, date time.Time) decimal.Decimal {
	entries, err := schedule.Generate(loan, date)
	if err != nil && !errors.Is(err, schedule.ErrScheduleTruncated) {
		slog.Warn("Schedule generation failed for worklist", "loan_id", loan.ID, "error", err)
	}
	for _, e := range entries {
		if e.Class != schedule.ClassPast {
			return e.Target
		}
	}
	return schedule.Amortize(schedule.Terms{
		Principal:    loan.Principal,
		InterestRate: loan.InterestRate,
		StartDate:    loan.StartDate,
		DueDate:      loan.DueDate,
		Frequency:    loan.Frequency,
	}).InstallmentTarget
}

// NextDue returns the date and target amount of a loan's nearest pending
// collection (today or upcoming). When the schedule is exhausted the loan's
// due date and remaining balance stand in, which is what a reminder should
// chase anyway.
func (l *Ledger) NextDue(loan models.Loan, today time.Time) (time.Time, decimal.Decimal) {
	entries, err := schedule.Generate(loan, today)
	if err != nil && !errors.Is(err, schedule.ErrScheduleTruncated) {
		slog.Warn("Schedule generation failed", "loan_id", loan.ID, "error", err)
	}
	for _, e := range entries {
		if e.Class != schedule.ClassPast {
			return e.Date, e.Target
		}
	}
	return loan.DueDate, loan.Balance
}

func derefPayments(payments []*models.Payment) []models.Payment {
	out := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		out = append(out, *p)
	}
	return out
}
