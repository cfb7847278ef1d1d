package store

import (
	"github.com/google/uuid"

	"github.com/thetz25/LendingManagement/pkg/models"
)

// Storage defines the persistence operations for borrowers, loans and
// payments. Payments are append-only: there is no update or delete for them.
type Storage interface {
	CreateBorrower(borrower *models.Borrower) error
	GetBorrower(id uuid.UUID) (*models.Borrower, error)
	UpdateBorrower(borrower *models.Borrower) error
	GetAllBorrowers() ([]*models.Borrower, error)

	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	GetAllLoans() ([]*models.Loan, error)
	GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error)
	// GetCollectibleLoans returns loans still subject to collection:
	// active and defaulted, never paid.
	GetCollectibleLoans() ([]*models.Loan, error)

	CreatePayment(payment *models.Payment) error
	GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error)

	Close() error
}
