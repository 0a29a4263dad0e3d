package handler

import (
	"net/http"

	"github.com/ledgerdesk/account-assistant/internal/events"
	"github.com/ledgerdesk/account-assistant/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store  *store.Store
	events *events.Publisher
}

// NewHealthHandler creates a new health handler. The events publisher may be
// nil when no broker is configured.
func NewHealthHandler(st *store.Store, pub *events.Publisher) *HealthHandler {
	return &HealthHandler{
		store:  st,
		events: pub,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database not reachable",
		})
		return
	}

	// The audit feed is best-effort, so a dead broker is reported but does
	// not fail readiness.
	broker := "disabled"
	if h.events != nil {
		broker = "disconnected"
		if h.events.IsConnected() {
			broker = "connected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"broker": broker,
	})
}
