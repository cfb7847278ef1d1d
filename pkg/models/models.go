package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentFrequency determines how often a loan is collected on.
type PaymentFrequency string

const (
	FrequencyDaily   PaymentFrequency = "daily"
	FrequencyWeekly  PaymentFrequency = "weekly"
	FrequencyMonthly PaymentFrequency = "monthly"
	FrequencyLumpSum PaymentFrequency = "lump_sum"
)

// LoanStatus tracks a loan's lifecycle. Transitions are one-directional:
// active -> paid or active -> defaulted. Both end states are terminal.
type LoanStatus string

const (
	StatusActive    LoanStatus = "active"
	StatusPaid      LoanStatus = "paid"
	StatusDefaulted LoanStatus = "defaulted"
)

// Borrower is a customer of the lending operation.
type Borrower struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Loan is a single fixed-markup loan. TotalPayable is computed once at
// issuance (principal plus the flat markup) and stored, never recomputed.
// Balance starts at TotalPayable and only ever decreases; it reaches zero
// exactly when the loan flips to paid.
type Loan struct {
	ID           uuid.UUID        `json:"id"`
	BorrowerID   uuid.UUID        `json:"borrower_id"`
	Principal    decimal.Decimal  `json:"principal"`
	InterestRate decimal.Decimal  `json:"interest_rate"` // flat markup, percent
	TotalPayable decimal.Decimal  `json:"total_payable"`
	Balance      decimal.Decimal  `json:"balance"`
	StartDate    time.Time        `json:"start_date"`
	DueDate      time.Time        `json:"due_date"`
	Frequency    PaymentFrequency `json:"payment_frequency"`
	Status       LoanStatus       `json:"status"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Payment is a single collected amount against a loan. Payments are
// append-only; they are never mutated or deleted.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	LoanID      uuid.UUID       `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
}
