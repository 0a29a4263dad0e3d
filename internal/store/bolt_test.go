package store_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/account-assistant/internal/model"
	"github.com/ledgerdesk/account-assistant/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestCustomer(t *testing.T, s *store.Store, balance string) *model.Customer {
	t.Helper()
	c := &model.Customer{
		Name:    "Ada",
		Email:   "ada@example.com",
		Balance: decimal.RequireFromString(balance),
	}
	if err := s.CreateCustomer(c); err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	return c
}

func TestCreateAndGetCustomer(t *testing.T) {
	s := newTestStore(t)
	c := newTestCustomer(t, s, "100.00")

	if c.ID == 0 {
		t.Fatal("expected an assigned ID")
	}
	if c.CreatedAt.IsZero() {
		t.Fatal("expected a stamped creation time")
	}

	got, err := s.GetCustomer(c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Ada" || !got.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("unexpected customer: %+v", got)
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetCustomer(42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTicketRequiresCustomer(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateTicket(&model.Ticket{CustomerID: 99, Subject: "no one home"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing customer, got %v", err)
	}

	c := newTestCustomer(t, s, "0")
	tk := &model.Ticket{CustomerID: c.ID, Subject: "invoice question"}
	if err := s.CreateTicket(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.Status != model.TicketStatusOpen {
		t.Fatalf("expected status %q, got %q", model.TicketStatusOpen, tk.Status)
	}

	got, err := s.GetTicket(tk.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CustomerID != c.ID || got.Subject != "invoice question" {
		t.Fatalf("unexpected ticket: %+v", got)
	}
}

func TestRegisterPaymentDecrementsBalance(t *testing.T) {
	s := newTestStore(t)
	c := newTestCustomer(t, s, "100.00")

	p, newBalance, err := s.RegisterPayment(c.ID, decimal.RequireFromString("50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !newBalance.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected new balance 50.00, got %s", newBalance)
	}
	if !p.Amount.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected payment amount 50, got %s", p.Amount)
	}

	// Balance and payment must be persisted consistently.
	stored, err := s.GetCustomer(c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Balance.Equal(newBalance) {
		t.Fatalf("persisted balance %s does not match returned %s", stored.Balance, newBalance)
	}
	if _, err := s.GetPayment(p.ID); err != nil {
		t.Fatalf("payment record missing: %v", err)
	}
}

func TestRegisterPaymentRepeatedCalls(t *testing.T) {
	s := newTestStore(t)
	c := newTestCustomer(t, s, "100")

	// Each call decrements again; payments accumulate.
	for i := 0; i < 3; i++ {
		if _, _, err := s.RegisterPayment(c.ID, decimal.RequireFromString("10.50")); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
	}

	stored, err := s.GetCustomer(c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Balance.Equal(decimal.RequireFromString("68.50")) {
		t.Fatalf("expected balance 68.50, got %s", stored.Balance)
	}

	payments, err := s.ListPayments(c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payments) != 3 {
		t.Fatalf("expected 3 payment records, got %d", len(payments))
	}
}

func TestRegisterPaymentMissingCustomerLeavesNoRecord(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.RegisterPayment(7, decimal.NewFromInt(5))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// The aborted transaction must not leave a payment behind.
	payments, err := s.ListPayments(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payments) != 0 {
		t.Fatalf("expected no payment records, got %d", len(payments))
	}
}

func TestRegisterPaymentExactDecimal(t *testing.T) {
	s := newTestStore(t)
	c := newTestCustomer(t, s, "0.30")

	// 0.1 + 0.2 style drift must not appear with exact decimals.
	_, b1, err := s.RegisterPayment(c.ID, decimal.RequireFromString("0.10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, b2, err := s.RegisterPayment(c.ID, decimal.RequireFromString("0.20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b1.Equal(decimal.RequireFromString("0.20")) || !b2.IsZero() {
		t.Fatalf("unexpected balances: %s then %s", b1, b2)
	}
}
