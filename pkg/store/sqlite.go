package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thetz25/LendingManagement/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	_, err = db.Exec("PRAGMA journal_mode = WAL;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	slog.Info("Database connection established and schema initialized", "path", dataSourceName)
	return s, nil
}

// initSchema creates the database tables if they don't already exist and adds
// new columns if necessary. Decimal fields are stored as TEXT in SQLite to
// ensure no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS borrowers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		borrower_id TEXT NOT NULL,
		principal TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		total_payable TEXT NOT NULL,
		balance TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		due_date DATETIME NOT NULL,
		payment_frequency TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(borrower_id) REFERENCES borrowers(id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_date DATETIME NOT NULL,
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	// Columns added after the first release; safe to re-run.
	columns := []string{
		"notes TEXT NOT NULL DEFAULT ''",
	}

	for _, col := range columns {
		_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE loans ADD COLUMN %s", col))
		if err != nil && !isDuplicateColumnError(err) {
			return fmt.Errorf("failed to add column %s: %w", col, err)
		}
	}

	return nil
}

// isDuplicateColumnError checks if the error indicates a duplicate column.
func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	return strings.HasPrefix(err.Error(), "duplicate column name")
}

// CreateBorrower inserts a new borrower into the database.
func (s *SQLiteStore) CreateBorrower(b *models.Borrower) error {
	_, err := s.db.Exec(
		`INSERT INTO borrowers (id, name, phone, address, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID.String(), b.Name, b.Phone, b.Address, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create borrower: %w", err)
	}
	return nil
}

// GetBorrower retrieves a borrower by its ID.
func (s *SQLiteStore) GetBorrower(id uuid.UUID) (*models.Borrower, error) {
	row := s.db.QueryRow(`SELECT id, name, phone, address, created_at FROM borrowers WHERE id = ?`, id.String())
	return scanBorrower(row)
}

// UpdateBorrower updates an existing borrower's contact details.
func (s *SQLiteStore) UpdateBorrower(b *models.Borrower) error {
	result, err := s.db.Exec(
		`UPDATE borrowers SET name = ?, phone = ?, address = ? WHERE id = ?`,
		b.Name, b.Phone, b.Address, b.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update borrower: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("borrower not found")
	}
	return nil
}

// GetAllBorrowers retrieves all borrowers ordered by name.
func (s *SQLiteStore) GetAllBorrowers() ([]*models.Borrower, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, address, created_at FROM borrowers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all borrowers: %w", err)
	}
	defer rows.Close()

	var borrowers []*models.Borrower
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			return nil, err
		}
		borrowers = append(borrowers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return borrowers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBorrower(row rowScanner) (*models.Borrower, error) {
	var b models.Borrower
	var idStr string
	var created time.Time
	if err := row.Scan(&idStr, &b.Name, &b.Phone, &b.Address, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("borrower not found")
		}
		return nil, fmt.Errorf("failed to scan borrower row: %w", err)
	}
	b.ID = uuid.MustParse(idStr)
	b.CreatedAt = created
	return &b, nil
}

const loanColumns = `id, borrower_id, principal, interest_rate, total_payable, balance, start_date, due_date, payment_frequency, status, notes, created_at, updated_at`

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (`+loanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.BorrowerID.String(), loan.Principal, loan.InterestRate, loan.TotalPayable,
		loan.Balance, loan.StartDate, loan.DueDate, loan.Frequency, loan.Status, loan.Notes,
		loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("loan not found")
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// UpdateLoan updates an existing loan in the database.
func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET borrower_id = ?, principal = ?, interest_rate = ?, total_payable = ?, balance = ?, start_date = ?, due_date = ?, payment_frequency = ?, status = ?, notes = ?, updated_at = ? WHERE id = ?`,
		loan.BorrowerID.String(), loan.Principal, loan.InterestRate, loan.TotalPayable, loan.Balance,
		loan.StartDate, loan.DueDate, loan.Frequency, loan.Status, loan.Notes, loan.UpdatedAt,
		loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("loan not found")
	}
	return nil
}

// GetAllLoans retrieves all loans.
func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// GetLoansForBorrower retrieves all loans belonging to one borrower.
func (s *SQLiteStore) GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT `+loanColumns+` FROM loans WHERE borrower_id = ? ORDER BY created_at ASC`, borrowerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get loans for borrower %s: %w", borrowerID, err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// GetCollectibleLoans retrieves loans still subject to collection
// (active and defaulted).
func (s *SQLiteStore) GetCollectibleLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT ` + loanColumns + ` FROM loans WHERE status IN ('active', 'defaulted') ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get collectible loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr, borrowerIDStr string
	var start, due, created, updated time.Time
	err := row.Scan(&idStr, &borrowerIDStr, &loan.Principal, &loan.InterestRate, &loan.TotalPayable,
		&loan.Balance, &start, &due, &loan.Frequency, &loan.Status, &loan.Notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(idStr)
	loan.BorrowerID = uuid.MustParse(borrowerIDStr)
	loan.StartDate = start
	loan.DueDate = due
	loan.CreatedAt = created
	loan.UpdatedAt = updated
	return &loan, nil
}

func scanLoans(rows *sql.Rows) ([]*models.Loan, error) {
	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

// CreatePayment inserts a new payment into the database. Payments are
// append-only, so there is no corresponding update or delete.
func (s *SQLiteStore) CreatePayment(payment *models.Payment) error {
	_, err := s.db.Exec(
		`INSERT INTO payments (id, loan_id, amount, payment_date) VALUES (?, ?, ?, ?)`,
		payment.ID.String(), payment.LoanID.String(), payment.Amount, payment.PaymentDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPaymentsForLoan retrieves all payments for a given loan ID.
func (s *SQLiteStore) GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error) {
	rows, err := s.db.Query(`SELECT id, loan_id, amount, payment_date FROM payments WHERE loan_id = ? ORDER BY payment_date ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var payment models.Payment
		var idStr, loanIDStr string
		var paidAt time.Time
		if err := rows.Scan(&idStr, &loanIDStr, &payment.Amount, &paidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payment.ID = uuid.MustParse(idStr)
		payment.LoanID = uuid.MustParse(loanIDStr)
		payment.PaymentDate = paidAt
		payments = append(payments, &payment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan payments: %w", err)
	}
	return payments, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
