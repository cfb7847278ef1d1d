package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thetz25/LendingManagement/pkg/calendar"
	"github.com/thetz25/LendingManagement/pkg/models"
	"github.com/thetz25/LendingManagement/pkg/schedule"
	"github.com/thetz25/LendingManagement/pkg/standing"
	"github.com/thetz25/LendingManagement/pkg/store"
)

var (
	ErrLoanNotActive = errors.New("loan is not active")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidTerm   = errors.New("term must be at least one day")
	ErrNegativeRate  = errors.New("interest rate cannot be negative")
	ErrUnknownFreq   = errors.New("unknown payment frequency")
)

// Ledger handles the business logic for borrowers, loans and collections.
type Ledger struct {
	storage store.Storage
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage) *Ledger {
	return &Ledger{storage: s}
}

// RegisterBorrower creates a new borrower record.
func (l *Ledger) RegisterBorrower(name, phone, address string) (*models.Borrower, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("borrower name is required")
	}
	borrower := &models.Borrower{
		ID:        uuid.New(),
		Name:      name,
		Phone:     phone,
		Address:   address,
		CreatedAt: time.Now(),
	}
	if err := l.storage.CreateBorrower(borrower); err != nil {
		return nil, fmt.Errorf("failed to store borrower: %w", err)
	}
	return borrower, nil
}

// IssueLoan disburses a new loan to a borrower. The flat markup is applied
// once here: total payable = principal * (1 + rate/100), stored on the loan
// and never recomputed. The balance starts at the total payable and the due
// date is the start date plus the term.
func (l *Ledger) IssueLoan(borrowerID uuid.UUID, principal, rate decimal.Decimal, start time.Time, termDays int, freq models.PaymentFrequency) (*models.Loan, error) {
	if !principal.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if rate.IsNegative() {
		return nil, ErrNegativeRate
	}
	if termDays < 1 {
		return nil, ErrInvalidTerm
	}
	switch freq {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyLumpSum:
	default:
		return nil, ErrUnknownFreq
	}

	// The borrower must exist; the store's foreign key would catch this
	// too, but failing early gives a cleaner error.
	if _, err := l.storage.GetBorrower(borrowerID); err != nil {
		return nil, err
	}

	if start.IsZero() {
		start = time.Now()
	}
	total := schedule.TotalPayable(principal, rate)

	loan := &models.Loan{
		ID:           uuid.New(),
		BorrowerID:   borrowerID,
		Principal:    principal,
		InterestRate: rate,
		TotalPayable: total,
		Balance:      total,
		StartDate:    start,
		DueDate:      calendar.AddDays(start, termDays),
		Frequency:    freq,
		Status:       models.StatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	slog.Info("Loan issued",
		"loan_id", loan.ID,
		"borrower_id", borrowerID,
		"principal", principal.StringFixed(2),
		"total_payable", total.StringFixed(2),
		"frequency", freq,
	)
	return loan, nil
}

// RecordPayment appends a payment to a loan and applies it to the balance:
// new balance = max(0, balance - amount). The loan flips to paid exactly
// when the balance reaches zero.
func (l *Ledger) RecordPayment(loanID uuid.UUID, amount decimal.Decimal, paidAt time.Time) (*models.Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.StatusActive {
		return nil, ErrLoanNotActive
	}

	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	// The payment row goes in first: if the balance update then fails, the
	// collected money is still on record and the balance can be replayed.
	// The reverse order would decrement the balance with no payment behind it.
	payment := &models.Payment{
		ID:          uuid.New(),
		LoanID:      loan.ID,
		Amount:      amount,
		PaymentDate: paidAt,
	}
	if err := l.storage.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	loan.Balance = loan.Balance.Sub(amount)
	if loan.Balance.LessThanOrEqual(decimal.Zero) {
		loan.Balance = decimal.Zero
		loan.Status = models.StatusPaid
	}
	loan.UpdatedAt = time.Now()

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan balance: %w", err)
	}

	slog.Info("Payment recorded",
		"loan_id", loan.ID,
		"amount", amount.StringFixed(2),
		"balance", loan.Balance.StringFixed(2),
		"status", loan.Status,
	)
	return payment, nil
}

// MarkDefaulted moves an active loan to the defaulted state. Defaulted is
// terminal; the loan stays on the collection worklist but can no longer be
// paid off through the normal flow.
func (l *Ledger) MarkDefaulted(loanID uuid.UUID) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.StatusActive {
		return nil, ErrLoanNotActive
	}
	loan.Status = models.StatusDefaulted
	loan.UpdatedAt = time.Now()
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan status: %w", err)
	}
	slog.Warn("Loan marked defaulted", "loan_id", loan.ID, "balance", loan.Balance.StringFixed(2))
	return loan, nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	return l.storage.GetLoan(id)
}

// GetAllLoans retrieves all loans.
func (l *Ledger) GetAllLoans() ([]*models.Loan, error) {
	return l.storage.GetAllLoans()
}

// GetBorrower retrieves a borrower by its ID.
func (l *Ledger) GetBorrower(id uuid.UUID) (*models.Borrower, error) {
	return l.storage.GetBorrower(id)
}

// GetAllBorrowers retrieves all borrowers.
func (l *Ledger) GetAllBorrowers() ([]*models.Borrower, error) {
	return l.storage.GetAllBorrowers()
}

// UpdateBorrower updates a borrower's contact details.
func (l *Ledger) UpdateBorrower(borrower *models.Borrower) error {
	return l.storage.UpdateBorrower(borrower)
}

// LoanSchedule generates the repayment schedule for a loan relative to the
// given reference date. A truncated schedule is still returned; the
// truncation is logged and swallowed here because a capped schedule is a
// data problem on the loan, not a request failure.
func (l *Ledger) LoanSchedule(loanID uuid.UUID, today time.Time) ([]schedule.Entry, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	entries, err := schedule.Generate(*loan, today)
	if errors.Is(err, schedule.ErrScheduleTruncated) {
		slog.Warn("Schedule truncated at entry cap", "loan_id", loan.ID, "entries", len(entries))
		return entries, nil
	}
	return entries, err
}

// BorrowerStanding classifies a borrower's repayment standing from their
// full loan history.
func (l *Ledger) BorrowerStanding(borrowerID uuid.UUID, today time.Time) (standing.Result, error) {
	if _, err := l.storage.GetBorrower(borrowerID); err != nil {
		return standing.Result{}, err
	}
	loans, err := l.storage.GetLoansForBorrower(borrowerID)
	if err != nil {
		return standing.Result{}, err
	}
	return standing.Classify(deref(loans), today), nil
}

// HistorySummary renders a borrower's loan history as one line per loan,
// suitable for handing to the drafting assistant.
func (l *Ledger) HistorySummary(borrowerID uuid.UUID) (string, error) {
	loans, err := l.storage.GetLoansForBorrower(borrowerID)
	if err != nil {
		return "", err
	}
	if len(loans) == 0 {
		return "No loans on record.", nil
	}
	var b strings.Builder
	for _, loan := range loans {
		fmt.Fprintf(&b, "- %s loan of %s issued %s, due %s, balance %s, status %s\n",
			loan.Frequency, loan.Principal.StringFixed(2),
			loan.StartDate.Format("2006-01-02"), loan.DueDate.Format("2006-01-02"),
			loan.Balance.StringFixed(2), loan.Status)
	}
	return b.String(), nil
}

func deref(loans []*models.Loan) []models.Loan {
	out := make([]models.Loan, 0, len(loans))
	for _, l := range loans {
		out = append(out, *l)
	}
	return out
}
