package handlers

import (
	"encoding/json"
	"net/http"

	"relaychat-backend/internal/middleware"
	"relaychat-backend/internal/models"
	"relaychat-backend/internal/services"
	"relaychat-backend/internal/session"
)

type AuthHandler struct {
	authService   *services.AuthService
	secureCookies bool
	dev           bool
}

func NewAuthHandler(authService *services.AuthService, secureCookies, dev bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies, dev: dev}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	user, token, err := h.authService.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, models.UserResponse{User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	user, token, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, models.UserResponse{User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		h.authService.Logout(r.Context(), token)
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Not authenticated", r))
		return
	}
	writeJSON(w, http.StatusOK, models.UserResponse{User: user})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
