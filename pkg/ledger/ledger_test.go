package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thetz25/LendingManagement/pkg/models"
)

// MockStore is a simple in-memory implementation of the Storage interface for testing.
type MockStore struct {
	borrowers map[uuid.UUID]*models.Borrower
	loans     map[uuid.UUID]*models.Loan
	payments  []*models.Payment
}

func NewMockStore() *MockStore {
	return &MockStore{
		borrowers: make(map[uuid.UUID]*models.Borrower),
		loans:     make(map[uuid.UUID]*models.Loan),
		payments:  []*models.Payment{},
	}
}

func (m *MockStore) CreateBorrower(b *models.Borrower) error {
	m.borrowers[b.ID] = b
	return nil
}

func (m *MockStore) GetBorrower(id uuid.UUID) (*models.Borrower, error) {
	b, ok := m.borrowers[id]
	if !ok {
		return nil, fmt.Errorf("borrower not found")
	}
	return b, nil
}

func (m *MockStore) UpdateBorrower(b *models.Borrower) error {
	m.borrowers[b.ID] = b
	return nil
}

func (m *MockStore) GetAllBorrowers() ([]*models.Borrower, error) {
	borrowers := []*models.Borrower{}
	for _, b := range m.borrowers {
		borrowers = append(borrowers, b)
	}
	return borrowers, nil
}

func (m *MockStore) CreateLoan(loan *models.Loan) error {
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, fmt.Errorf("loan not found")
	}
	return loan, nil
}

func (m *MockStore) UpdateLoan(loan *models.Loan) error {
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockStore) GetAllLoans() ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		loans = append(loans, l)
	}
	return loans, nil
}

func (m *MockStore) GetLoansForBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		if l.BorrowerID == borrowerID {
			loans = append(loans, l)
		}
	}
	return loans, nil
}

func (m *MockStore) GetCollectibleLoans() ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		if l.Status == models.StatusActive || l.Status == models.StatusDefaulted {
			loans = append(loans, l)
		}
	}
	return loans, nil
}

func (m *MockStore) CreatePayment(p *models.Payment) error {
	m.payments = append(m.payments, p)
	return nil
}

func (m *MockStore) GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error) {
	payments := []*models.Payment{}
	for _, p := range m.payments {
		if p.LoanID == loanID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (m *MockStore) Close() error {
	return nil
}

func newTestBorrower(t *testing.T, l *Ledger) *models.Borrower {
	t.Helper()
	borrower, err := l.RegisterBorrower("Maria Santos", "+63 900 000 0000", "Quezon City")
	if err != nil {
		t.Fatalf("Failed to register borrower: %v", err)
	}
	return borrower
}

func TestIssueLoan(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)
	borrower := newTestBorrower(t, l)

	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	loan, err := l.IssueLoan(borrower.ID, decimal.NewFromInt(1000), decimal.NewFromInt(20), start, 10, models.FrequencyDaily)
	if err != nil {
		t.Fatalf("Failed to issue loan: %v", err)
	}

	if !loan.TotalPayable.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected total payable 1200, got %s", loan.TotalPayable)
	}
	if !loan.Balance.Equal(loan.TotalPayable) {
		t.Errorf("Expected balance to start at total payable, got %s", loan.Balance)
	}
	if !loan.DueDate.Equal(start.AddDate(0, 0, 10)) {
		t.Errorf("Expected due date %s, got %s", start.AddDate(0, 0, 10), loan.DueDate)
	}
	if loan.Status != models.StatusActive {
		t.Errorf("Expected status active, got %s", loan.Status)
	}
}

func TestIssueLoanValidation(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)
	borrower := newTestBorrower(t, l)
	start := time.Now()

	cases := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		termDays  int
		freq      models.PaymentFrequency
		wantErr   error
	}{
		{"zero principal", decimal.Zero, decimal.NewFromInt(20), 10, models.FrequencyDaily, ErrInvalidAmount},
		{"negative rate", decimal.NewFromInt(1000), decimal.NewFromInt(-1), 10, models.FrequencyDaily, ErrNegativeRate},
		{"zero term", decimal.NewFromInt(1000), decimal.NewFromInt(20), 0, models.FrequencyDaily, ErrInvalidTerm},
		{"bad frequency", decimal.NewFromInt(1000), decimal.NewFromInt(20), 10, models.PaymentFrequency("hourly"), ErrUnknownFreq},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.IssueLoan(borrower.ID, tc.principal, tc.rate, start, tc.termDays, tc.freq)
			if err != tc.wantErr {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestIssueLoanUnknownBorrower(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)

	_, err := l.IssueLoan(uuid.New(), decimal.NewFromInt(1000), decimal.NewFromInt(20), time.Now(), 10, models.FrequencyDaily)
	if err == nil {
		t.Error("Expected error for unknown borrower")
	}
}

func TestRecordPayment(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)
	borrower := newTestBorrower(t, l)

	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	loan, _ := l.IssueLoan(borrower.ID, decimal.NewFromInt(1000), decimal.NewFromInt(20), start, 10, models.FrequencyDaily)

	_, err := l.RecordPayment(loan.ID, decimal.NewFromInt(400), start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Failed to record payment: %v", err)
	}

	if !loan.Balance.Equal(decimal.NewFromInt(800)) {
		t.Errorf("Expected balance 800, got %s", loan.Balance)
	}
	if loan.Status != models.StatusActive {
		t.Errorf("Expected status active after partial payment, got %s", loan.Status)
	}

	if len(store.payments) != 1 {
		t.Fatalf("Expected 1 payment record, got %d", len(store.payments))
	}
}

func TestRecordPaymentFlipsToPaidAtZero(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)
	borrower := newTestBorrower(t, l)

	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	loan, _ := l.IssueLoan(borrower.ID, decimal.NewFromInt(1000), decimal.NewFromInt(20), start, 10, models.FrequencyDaily)

	// Overpay: balance clamps to zero and the loan closes.
	_, err := l.RecordPayment(loan.ID, decimal.NewFromInt(1500), start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Failed to record payment: %v", err)
	}

	if !loan.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected balance 0, got %s", loan.Balance)
	}
	if loan.Status != models.StatusPaid {
		t.Errorf("Expected status paid, got %s", loan.Status)
	}

	// Paid is terminal.
	_, err = l.RecordPayment(loan.ID, decimal.NewFromInt(10), start.AddDate(0, 0, 2))
	if err != ErrLoanNotActive {
		t.Errorf("Expected ErrLoanNotActive on a paid loan, got %v", err)
	}
}

// failingPaymentStore rejects every payment insert.
type failingPaymentStore struct {
	*MockStore
}

func (f *failingPaymentStore) CreatePayment(p *models.Payment) error {
	return fmt.Errorf("disk full")
}

func TestRecordPaymentLeavesBalanceUntouchedOnStoreFailure(t *testing.T) {
	store := &failingPaymentStore{MockStore: NewMockStore()}
	l := NewLedger(store)
	borrower := newTestBorrower(t, l)

	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	loan, _ := l.IssueLoan(borrower.ID, decimal.NewFromInt(1000), decimal.NewFromInt(20), start, 10, models.FrequencyDaily)

	if _, err := l.RecordPayment(loan.ID, decimal.NewFromInt(400), start.AddDate(0, 0, 1)); err == nil {
		t.Fatal("Expected error when the payment cannot be stored")
	}

	// The balance must not move without a payment row backing it.
	if !loan.Balance.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected balance 1200 after a failed payment insert, got %s", loan.Balance)
	}
	if loan.Status != models.StatusActive {
		t.Errorf("Expected status active, got %s", loan.Status)
	}
}

func TestMarkDefaulted(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)
	borrower := newTestBorrower(t, l)

	loan, _ := l.IssueLoan(borrower.ID, decimal.NewFromInt(1000), decimal.NewFromInt(20), time.Now(), 10, models.FrequencyDaily)

	defaulted, err := l.MarkDefaulted(loan.ID)
	if err != nil {
		t.Fatalf("Failed to mark defaulted: %v", err)
	}
	if defaulted.Status != models.StatusDefaulted {
		t.Errorf("Expected status defaulted, got %s", defaulted.Status)
	}

	// Defaulted is terminal.
	if _, err := l.MarkDefaulted(loan.ID); err != ErrLoanNotActive {
		t.Errorf("Expected ErrLoanNotActive on a defaulted loan, got %v", err)
	}
}

func TestBorrowerStanding(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)
	borrower := newTestBorrower(t, l)

	result, err := l.BorrowerStanding(borrower.ID, time.Now())
	if err != nil {
		t.Fatalf("Failed to classify: %v", err)
	}
	if result.Status != "New" {
		t.Errorf("Expected New for a borrower with no loans, got %s", result.Status)
	}

	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	loan, _ := l.IssueLoan(borrower.ID, decimal.NewFromInt(1000), decimal.NewFromInt(20), start, 10, models.FrequencyDaily)
	l.RecordPayment(loan.ID, decimal.NewFromInt(1200), start.AddDate(0, 0, 5))

	result, err = l.BorrowerStanding(borrower.ID, start.AddDate(0, 0, 20))
	if err != nil {
		t.Fatalf("Failed to classify: %v", err)
	}
	if result.Status != "Good Payer" {
		t.Errorf("Expected Good Payer after full repayment, got %s", result.Status)
	}
}

func TestHistorySummary(t *testing.T) {
	store := NewMockStore()
	l := NewLedger(store)
	borrower := newTestBorrower(t, l)

	summary, err := l.HistorySummary(borrower.ID)
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}
	if summary != "No loans on record." {
		t.Errorf("Unexpected empty-history summary: %q", summary)
	}

	l.IssueLoan(borrower.ID, decimal.NewFromInt(1000), decimal.NewFromInt(20), time.Now(), 10, models.FrequencyDaily)
	summary, err = l.HistorySummary(borrower.ID)
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}
	if summary == "No loans on record." || summary == "" {
		t.Errorf("Expected a loan line in the summary, got %q", summary)
	}
}
