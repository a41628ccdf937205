package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"relaychat-backend/internal/middleware"
	"relaychat-backend/internal/models"
	"relaychat-backend/internal/relay"
)

// GenerateHandler is the relay entry point. It runs behind optional auth:
// guest-mode clients call it without a session and nothing is persisted.
type GenerateHandler struct {
	relay *relay.Relay
	dev   bool
}

func NewGenerateHandler(r *relay.Relay, dev bool) *GenerateHandler {
	return &GenerateHandler{relay: r, dev: dev}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Prompt is required", r))
		return
	}

	user := middleware.GetUser(r.Context())
	response, err := h.relay.Generate(r.Context(), req, user)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateResponse{Response: response})
}
