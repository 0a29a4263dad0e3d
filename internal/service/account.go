// Package service provides business logic for the account assistant.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerdesk/account-assistant/internal/events"
	"github.com/ledgerdesk/account-assistant/internal/model"
	"github.com/ledgerdesk/account-assistant/internal/money"
	"github.com/ledgerdesk/account-assistant/internal/store"
	"github.com/ledgerdesk/account-assistant/internal/tool"
	"github.com/ledgerdesk/account-assistant/pkg/logger"
	"github.com/ledgerdesk/account-assistant/pkg/metrics"
)

// ErrValidation marks missing or malformed required input.
var ErrValidation = errors.New("validation failed")

// AccountService carries the domain operations shared by the REST surface and
// the assistant's tool path. Both paths apply the same validation.
type AccountService struct {
	store  *store.Store
	events *events.Publisher
	logger *logger.Logger
}

// NewAccountService creates a new account service. The events publisher may
// be nil; audit publishing is best-effort.
func NewAccountService(st *store.Store, pub *events.Publisher, log *logger.Logger) *AccountService {
	return &AccountService{
		store:  st,
		events: pub,
		logger: log,
	}
}

// CreateCustomer creates a customer record with an optional opening balance.
func (s *AccountService) CreateCustomer(ctx context.Context, req *model.CreateCustomerRequest) (*model.Customer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	balance := decimal.Zero
	if req.Balance != "" {
		var err error
		balance, err = money.Normalize(req.Balance)
		if err != nil {
			return nil, fmt.Errorf("%w: balance: %v", ErrValidation, err)
		}
	}

	c := &model.Customer{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Balance: balance,
	}
	if err := s.store.CreateCustomer(c); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

// GetCustomer retrieves a customer record.
func (s *AccountService) GetCustomer(ctx context.Context, customerID int64) (*model.Customer, error) {
	return s.store.GetCustomer(customerID)
}

// ListCustomers returns all customers.
func (s *AccountService) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.store.ListCustomers()
}

// QueryBalance looks up a customer's balance.
func (s *AccountService) QueryBalance(ctx context.Context, customerID int64) (*model.BalanceResult, error) {
	c, err := s.store.GetCustomer(customerID)
	if err != nil {
		return nil, err
	}
	return &model.BalanceResult{
		CustomerID: c.ID,
		Name:       c.Name,
		Balance:    c.Balance,
	}, nil
}

// CreateTicket opens a support ticket for a customer. Subject is required on
// every path, tool and REST alike.
func (s *AccountService) CreateTicket(ctx context.Context, customerID int64, subject, description string) (*model.TicketResult, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}

	t := &model.Ticket{
		CustomerID:  customerID,
		Subject:     subject,
		Description: description,
	}
	if err := s.store.CreateTicket(t); err != nil {
		return nil, err
	}

	metrics.TicketsCreatedTotal.Inc()
	s.publish(ctx, events.TypeTicketCreated, customerID, t)

	return &model.TicketResult{
		ID:         t.ID,
		CustomerID: t.CustomerID,
		Subject:    t.Subject,
		Status:     t.Status,
	}, nil
}

// RegisterPayment normalizes the amount, then inserts the payment and
// decrements the customer's balance in one atomic store transaction. The
// amount may be an integer, a float, or a string with currency decoration.
func (s *AccountService) RegisterPayment(ctx context.Context, customerID int64, amount any) (*model.PaymentResult, error) {
	normalized, err := money.Normalize(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrValidation, err)
	}

	payment, newBalance, err := s.store.RegisterPayment(customerID, normalized)
	if err != nil {
		return nil, err
	}

	metrics.PaymentsRegisteredTotal.Inc()
	s.publish(ctx, events.TypePaymentRegistered, customerID, payment)

	return &model.PaymentResult{
		PaymentID:  payment.ID,
		NewBalance: newBalance,
	}, nil
}

// RegisterTools binds the domain operations into the dispatch registry. The
// mapping is fixed at startup; only model-supplied names can miss, and the
// registry reports those as errors.
func (s *AccountService) RegisterTools(r *tool.Registry) {
	r.Register(tool.CheckBalanceDefinition(), func(ctx context.Context, args map[string]any) (any, error) {
		id, err := intArg(args, "customer_id")
		if err != nil {
			return nil, err
		}
		return s.QueryBalance(ctx, id)
	})

	r.Register(tool.CreateTicketDefinition(), func(ctx context.Context, args map[string]any) (any, error) {
		id, err := intArg(args, "customer_id")
		if err != nil {
			return nil, err
		}
		subject, _ := args["subject"].(string)
		description, _ := args["description"].(string)
		return s.CreateTicket(ctx, id, subject, description)
	})

	r.Register(tool.RegisterPaymentDefinition(), func(ctx context.Context, args map[string]any) (any, error) {
		id, err := intArg(args, "customer_id")
		if err != nil {
			return nil, err
		}
		return s.RegisterPayment(ctx, id, args["amount"])
	})
}

func (s *AccountService) publish(ctx context.Context, eventType string, customerID int64, payload any) {
	if err := s.events.Publish(ctx, eventType, customerID, payload); err != nil {
		s.logger.Warn("failed to publish audit event",
			zap.String("event_type", eventType),
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
	}
}

func intArg(args map[string]any, key string) (int64, error) {
	f, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrValidation, key)
	}
	return int64(f), nil
}
