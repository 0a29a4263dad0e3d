package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/account-assistant/internal/model"
	"github.com/ledgerdesk/account-assistant/internal/service"
	"github.com/ledgerdesk/account-assistant/internal/store"
	"github.com/ledgerdesk/account-assistant/pkg/logger"
)

func newAccountService(t *testing.T) (*service.AccountService, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return service.NewAccountService(st, nil, logger.NewNop()), st
}

func seedCustomer(t *testing.T, svc *service.AccountService, balance string) *model.Customer {
	t.Helper()
	c, err := svc.CreateCustomer(context.Background(), &model.CreateCustomerRequest{
		Name:    "Ada",
		Email:   "ada@example.com",
		Balance: balance,
	})
	if err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	return c
}

func TestQueryBalance(t *testing.T) {
	svc, _ := newAccountService(t)
	c := seedCustomer(t, svc, "100.00")

	got, err := svc.QueryBalance(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CustomerID != c.ID || got.Name != "Ada" || !got.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestQueryBalanceNotFound(t *testing.T) {
	svc, _ := newAccountService(t)
	if _, err := svc.QueryBalance(context.Background(), 99); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	svc, _ := newAccountService(t)
	c := seedCustomer(t, svc, "0")

	if _, err := svc.CreateTicket(context.Background(), c.ID, "  ", ""); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank subject, got %v", err)
	}
	if _, err := svc.CreateTicket(context.Background(), 99, "help", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing customer, got %v", err)
	}

	tk, err := svc.CreateTicket(context.Background(), c.ID, "billing issue", "details")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.Status != model.TicketStatusOpen || tk.Subject != "billing issue" {
		t.Fatalf("unexpected ticket result: %+v", tk)
	}
}

func TestRegisterPaymentNormalizesInput(t *testing.T) {
	svc, _ := newAccountService(t)
	c := seedCustomer(t, svc, "2000.00")

	res, err := svc.RegisterPayment(context.Background(), c.ID, "$1,234.56")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NewBalance.Equal(decimal.RequireFromString("765.44")) {
		t.Fatalf("expected new balance 765.44, got %s", res.NewBalance)
	}
	if res.PaymentID == 0 {
		t.Fatal("expected an assigned payment ID")
	}
}

func TestRegisterPaymentRejectsBadAmount(t *testing.T) {
	svc, st := newAccountService(t)
	c := seedCustomer(t, svc, "100")

	for _, bad := range []any{"", "-", ".", "abc", nil} {
		if _, err := svc.RegisterPayment(context.Background(), c.ID, bad); !errors.Is(err, service.ErrValidation) {
			t.Fatalf("expected ErrValidation for %v, got %v", bad, err)
		}
	}

	// Rejected amounts must leave the balance untouched.
	stored, err := st.GetCustomer(c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Balance.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("balance changed after rejected payments: %s", stored.Balance)
	}
}

func TestRegisterPaymentMissingCustomer(t *testing.T) {
	svc, _ := newAccountService(t)
	if _, err := svc.RegisterPayment(context.Background(), 99, 50); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
