// Package model defines data structures for the account assistant.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatusOpen is the status assigned to every new ticket.
const TicketStatusOpen = "open"

// Customer represents an account holder. Balance is an exact decimal and is
// only ever mutated through payment registration.
type Customer struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// Ticket represents a support ticket. It always references a customer that
// existed at creation time.
type Ticket struct {
	ID          int64     `json:"id"`
	CustomerID  int64     `json:"customer_id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Payment represents a registered payment. Its creation is committed in the
// same transaction as the balance decrement on its customer.
type Payment struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreateCustomerRequest is the request to create a customer.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Balance string `json:"balance,omitempty"`
}

// CreateTicketRequest is the request to open a ticket.
type CreateTicketRequest struct {
	CustomerID  int64  `json:"customer_id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
}

// RegisterPaymentRequest is the request to register a payment. Amount is kept
// raw so integer, float and string forms all reach the normalizer unchanged.
type RegisterPaymentRequest struct {
	CustomerID int64           `json:"customer_id"`
	Amount     json.RawMessage `json:"amount"`
}

// BalanceResult is the balance lookup payload, shared by the REST and tool paths.
type BalanceResult struct {
	CustomerID int64           `json:"customer_id"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
}

// TicketResult is the created-ticket summary payload.
type TicketResult struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Subject    string `json:"subject"`
	Status     string `json:"status"`
}

// PaymentResult is the registered-payment payload.
type PaymentResult struct {
	PaymentID  int64           `json:"payment_id"`
	NewBalance decimal.Decimal `json:"new_balance"`
}
