package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thetz25/LendingManagement/pkg/models"
)

func payment(amount int64, on time.Time) models.Payment {
	return models.Payment{
		Amount:      decimal.NewFromInt(amount),
		PaymentDate: on,
	}
}

func TestReconcilePartialPayment(t *testing.T) {
	day := date(2025, time.March, 5)
	target := decimal.NewFromInt(120)

	rec := Reconcile([]models.Payment{payment(50, day)}, day, target)

	if !rec.Collected.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Collected = %s, want 50", rec.Collected)
	}
	if !rec.Remaining.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Remaining = %s, want 70", rec.Remaining)
	}
	if rec.FullyPaid {
		t.Error("FullyPaid = true, want false")
	}
}

func TestReconcileOverpayment(t *testing.T) {
	day := date(2025, time.March, 5)
	target := decimal.NewFromInt(120)

	rec := Reconcile([]models.Payment{payment(100, day), payment(50, day)}, day, target)

	if !rec.Collected.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Collected = %s, want 150", rec.Collected)
	}
	if !rec.Remaining.Equal(decimal.Zero) {
		t.Errorf("Remaining = %s, want 0", rec.Remaining)
	}
	if !rec.FullyPaid {
		t.Error("FullyPaid = false, want true")
	}
}

func TestReconcileExactPayment(t *testing.T) {
	day := date(2025, time.March, 5)
	target := decimal.NewFromInt(120)

	rec := Reconcile([]models.Payment{payment(120, day)}, day, target)

	if !rec.FullyPaid {
		t.Error("FullyPaid = false, want true for an exact payment")
	}
	if !rec.Remaining.Equal(decimal.Zero) {
		t.Errorf("Remaining = %s, want 0", rec.Remaining)
	}
}

func TestReconcileIgnoresOtherDays(t *testing.T) {
	day := date(2025, time.March, 5)
	target := decimal.NewFromInt(120)

	payments := []models.Payment{
		payment(120, day.AddDate(0, 0, -1)),
		payment(30, day),
		payment(120, day.AddDate(0, 0, 1)),
	}
	rec := Reconcile(payments, day, target)

	if !rec.Collected.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Collected = %s, want 30 (only same-day payments count)", rec.Collected)
	}
}

func TestReconcileMatchesByDateNotTime(t *testing.T) {
	day := date(2025, time.March, 5)
	target := decimal.NewFromInt(120)

	evening := day.Add(20 * time.Hour)
	rec := Reconcile([]models.Payment{payment(120, evening)}, day, target)

	if !rec.FullyPaid {
		t.Error("payment later the same day should still count")
	}
}

func TestReconcileNoPayments(t *testing.T) {
	day := date(2025, time.March, 5)
	target := decimal.NewFromInt(120)

	rec := Reconcile(nil, day, target)

	if !rec.Collected.Equal(decimal.Zero) {
		t.Errorf("Collected = %s, want 0", rec.Collected)
	}
	if !rec.Remaining.Equal(target) {
		t.Errorf("Remaining = %s, want %s", rec.Remaining, target)
	}
	if rec.FullyPaid {
		t.Error("FullyPaid = true, want false")
	}
}
