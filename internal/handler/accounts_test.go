package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/account-assistant/internal/llm"
	"github.com/ledgerdesk/account-assistant/internal/model"
	"github.com/ledgerdesk/account-assistant/internal/service"
	"github.com/ledgerdesk/account-assistant/internal/store"
	"github.com/ledgerdesk/account-assistant/internal/tool"
	"github.com/ledgerdesk/account-assistant/pkg/logger"
)

// staticModel answers every turn with fixed content and no tool calls.
type staticModel struct {
	content string
	err     error
}

func (m *staticModel) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.content}, nil
}

func (m *staticModel) Name() string { return "static" }

func newTestRouter(t *testing.T, model llm.Client) chi.Router {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	log := logger.NewNop()
	accounts := service.NewAccountService(st, nil, log)
	registry := tool.NewRegistry()
	accounts.RegisterTools(registry)
	assistant := service.NewAssistantService(model, registry, service.AssistantConfig{
		Model:        "test",
		RetryBackoff: time.Millisecond,
	}, log)

	accountHandler := NewAccountHandler(accounts, log)
	assistantHandler := NewAssistantHandler(assistant, log)
	healthHandler := NewHealthHandler(st, nil)

	r := chi.NewRouter()
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Post("/customers", accountHandler.CreateCustomer)
	r.Get("/customers", accountHandler.ListCustomers)
	r.Get("/customers/{id}", accountHandler.GetCustomer)
	r.Get("/customers/{id}/balance", accountHandler.GetBalance)
	r.Post("/tickets", accountHandler.CreateTicket)
	r.Post("/payments", accountHandler.RegisterPayment)
	r.Post("/assistant", assistantHandler.Ask)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCustomerLifecycle(t *testing.T) {
	r := newTestRouter(t, &staticModel{content: "ok"})

	rec := doJSON(t, r, http.MethodPost, "/customers", `{"name":"Ada","email":"ada@example.com","balance":"100.00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, r, http.MethodGet, "/customers/1/balance", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var balance model.BalanceResult
	if err := json.Unmarshal(rec.Body.Bytes(), &balance); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if balance.CustomerID != 1 || !balance.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("unexpected balance payload: %+v", balance)
	}

	rec = doJSON(t, r, http.MethodGet, "/customers/99/balance", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing customer, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/customers/abc/balance", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric ID, got %d", rec.Code)
	}
}

func TestCreateTicketEndpoint(t *testing.T) {
	r := newTestRouter(t, &staticModel{content: "ok"})
	doJSON(t, r, http.MethodPost, "/customers", `{"name":"Ada","email":"ada@example.com"}`)

	rec := doJSON(t, r, http.MethodPost, "/tickets", `{"customer_id":1,"subject":"billing issue"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, r, http.MethodPost, "/tickets", `{"customer_id":1,"subject":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank subject, got %d", rec.Code)
	}

	long := strings.Repeat("x", 300)
	rec = doJSON(t, r, http.MethodPost, "/tickets", `{"customer_id":1,"subject":"`+long+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized subject, got %d", rec.Code)
	}
}

func TestReadyEndpoint(t *testing.T) {
	r := newTestRouter(t, &staticModel{content: "ok"})

	rec := doJSON(t, r, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "ready" || resp["broker"] != "disabled" {
		t.Fatalf("unexpected readiness payload: %v", resp)
	}
}

func TestRegisterPaymentEndpointAcceptsAmountForms(t *testing.T) {
	r := newTestRouter(t, &staticModel{content: "ok"})
	doJSON(t, r, http.MethodPost, "/customers", `{"name":"Ada","email":"ada@example.com","balance":"100"}`)

	// Amount as number and as decorated string both register.
	for _, body := range []string{
		`{"customer_id":1,"amount":25}`,
		`{"customer_id":1,"amount":"$25.00"}`,
	} {
		rec := doJSON(t, r, http.MethodPost, "/payments", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 for %s, got %d: %s", body, rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, r, http.MethodPost, "/payments", `{"customer_id":1,"amount":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparsable amount, got %d", rec.Code)
	}
}

func TestAssistantEndpoint(t *testing.T) {
	r := newTestRouter(t, &staticModel{content: "Happy to help."})

	rec := doJSON(t, r, http.MethodPost, "/assistant", `{"text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["answer"] != "Happy to help." {
		t.Fatalf("unexpected answer: %v", resp)
	}

	rec = doJSON(t, r, http.MethodPost, "/assistant", `{"text":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/assistant", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestAssistantEndpointUpstreamError(t *testing.T) {
	r := newTestRouter(t, &staticModel{err: errors.New("connection refused")})

	rec := doJSON(t, r, http.MethodPost, "/assistant", `{"text":"hello"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body)
	}
}
