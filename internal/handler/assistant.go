package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ledgerdesk/account-assistant/internal/middleware"
	"github.com/ledgerdesk/account-assistant/internal/model"
	"github.com/ledgerdesk/account-assistant/internal/service"
	"github.com/ledgerdesk/account-assistant/pkg/logger"
)

// AssistantHandler handles the conversational endpoint.
type AssistantHandler struct {
	assistant *service.AssistantService
	logger    *logger.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(svc *service.AssistantService, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant: svc,
		logger:    log,
	}
}

// Ask handles POST /api/v1/assistant
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.assistant.Ask(ctx, req.Text)
	if err != nil {
		h.logger.Error("assistant request failed",
			zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
