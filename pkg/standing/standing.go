// Package standing classifies a borrower's repayment standing from their
// loan history. The classification is a priority-ordered decision list:
// rules are evaluated in sequence and the first match wins, so a defaulted
// loan outranks an overdue one even when both are present.
package standing

import (
	"fmt"
	"time"

	"github.com/thetz25/LendingManagement/pkg/calendar"
	"github.com/thetz25/LendingManagement/pkg/models"
)

// Status is the borrower-level risk category.
type Status string

const (
	StatusNew        Status = "New"
	StatusGoodPayer  Status = "Good Payer"
	StatusDelinquent Status = "Delinquent"
	StatusNeutral    Status = "Neutral"
)

// Result is a standing classification with its justification.
type Result struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// rule is one predicate in the decision list. It returns a Result and true
// when it matches; false hands evaluation to the next rule.
type rule func(loans []models.Loan, today time.Time) (Result, bool)

var rules = []rule{
	noHistory,
	anyDefaulted,
	anyOverdue,
	allPaid,
	somePaid,
}

// Classify runs the borrower's loans through the rule chain and returns the
// first match. The fallthrough covers borrowers with only current active
// loans: no outcome to judge yet.
func Classify(loans []models.Loan, today time.Time) Result {
	for _, r := range rules {
		if res, ok := r(loans, today); ok {
			return res
		}
	}
	return Result{
		Status: StatusNeutral,
		Reason: "Active loans exist but no full payment history yet.",
	}
}

func noHistory(loans []models.Loan, _ time.Time) (Result, bool) {
	if len(loans) > 0 {
		return Result{}, false
	}
	return Result{Status: StatusNew, Reason: "No history yet."}, true
}

func anyDefaulted(loans []models.Loan, _ time.Time) (Result, bool) {
	n := countStatus(loans, models.StatusDefaulted)
	if n == 0 {
		return Result{}, false
	}
	return Result{
		Status: StatusDelinquent,
		Reason: fmt.Sprintf("Has %d defaulted loan(s). High risk.", n),
	}, true
}

func anyOverdue(loans []models.Loan, today time.Time) (Result, bool) {
	ref := calendar.Day(today)
	n := 0
	for _, l := range loans {
		if l.Status == models.StatusActive && calendar.Day(l.DueDate).Before(ref) {
			n++
		}
	}
	if n == 0 {
		return Result{}, false
	}
	return Result{
		Status: StatusDelinquent,
		Reason: fmt.Sprintf("Has %d overdue active loan(s).", n),
	}, true
}

func allPaid(loans []models.Loan, _ time.Time) (Result, bool) {
	if len(loans) == 0 || countStatus(loans, models.StatusPaid) != len(loans) {
		return Result{}, false
	}
	return Result{
		Status: StatusGoodPayer,
		Reason: "Perfect payment history. All loans paid.",
	}, true
}

func somePaid(loans []models.Loan, _ time.Time) (Result, bool) {
	n := countStatus(loans, models.StatusPaid)
	if n == 0 {
		return Result{}, false
	}
	return Result{
		Status: StatusGoodPayer,
		Reason: fmt.Sprintf("Has successfully paid %d loan(s).", n),
	}, true
}

func countStatus(loans []models.Loan, status models.LoanStatus) int {
	n := 0
	for _, l := range loans {
		if l.Status == status {
			n++
		}
	}
	return n
}
