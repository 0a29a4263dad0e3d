package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ledgerdesk/account-assistant/internal/middleware"
	"github.com/ledgerdesk/account-assistant/internal/model"
	"github.com/ledgerdesk/account-assistant/internal/service"
	"github.com/ledgerdesk/account-assistant/pkg/logger"
)

// AccountHandler handles customer, ticket and payment endpoints.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(svc *service.AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: svc,
		logger:   log,
	}
}

// ListCustomers handles GET /api/v1/customers
func (h *AccountHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.accounts.ListCustomers(r.Context())
	if err != nil {
		h.logger.Error("failed to list customers", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customers": customers,
		"total":     len(customers),
	})
}

// CreateCustomer handles POST /api/v1/customers
func (h *AccountHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := h.accounts.CreateCustomer(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// GetCustomer handles GET /api/v1/customers/:id
func (h *AccountHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	customer, err := h.accounts.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// GetBalance handles GET /api/v1/customers/:id/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	balance, err := h.accounts.QueryBalance(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// CreateTicket handles POST /api/v1/tickets
func (h *AccountHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateSubject(req.Subject); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.accounts.CreateTicket(r.Context(), req.CustomerID, req.Subject, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// RegisterPayment handles POST /api/v1/payments
func (h *AccountHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.accounts.RegisterPayment(r.Context(), req.CustomerID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// customerID parses the :id URL parameter, writing a 400 on failure.
func customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid customer ID")
		return 0, false
	}
	return id, true
}
