package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"relaychat-backend/internal/middleware"
	"relaychat-backend/internal/models"
	"relaychat-backend/internal/services"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 1000
)

type AdminHandler struct {
	adminService *services.AdminService
	dev          bool
}

func NewAdminHandler(adminService *services.AdminService, dev bool) *AdminHandler {
	return &AdminHandler{adminService: adminService, dev: dev}
}

func (h *AdminHandler) GetRelayURL(w http.ResponseWriter, r *http.Request) {
	value, err := h.adminService.RelayURL(r.Context())
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": models.SettingRelayURL, "value": value})
}

func (h *AdminHandler) SetRelayURL(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	setting, err := h.adminService.SetRelayURL(r.Context(), middleware.GetUser(r.Context()), req.Value)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"setting": setting})
}

func (h *AdminHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	value, err := h.adminService.RelayModel(r.Context())
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": models.SettingRelayModel, "value": value})
}

func (h *AdminHandler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	setting, err := h.adminService.SetRelayModel(r.Context(), middleware.GetUser(r.Context()), req.Value)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"setting": setting})
}

func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs": h.adminService.RecentLogs(limitParam(r)),
	})
}

func (h *AdminHandler) Errors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"errors": h.adminService.RecentErrors(limitParam(r)),
	})
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultLogLimit
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}
