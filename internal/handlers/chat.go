package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"relaychat-backend/internal/middleware"
	"relaychat-backend/internal/models"
	"relaychat-backend/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
	dev         bool
}

func NewChatHandler(chatService *services.ChatService, dev bool) *ChatHandler {
	return &ChatHandler{chatService: chatService, dev: dev}
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	chats, err := h.chatService.ListChats(r.Context(), user)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req models.CreateChatRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
	}

	chat, err := h.chatService.CreateChat(r.Context(), user, req.Title)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"chat": chat})
}

func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var req models.RenameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	chat, err := h.chatService.RenameChat(r.Context(), user, chatID, req.Title)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chat": chat})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	if err := h.chatService.DeleteChat(r.Context(), user, chatID); err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(r.Context(), user, chatID)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *ChatHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var req models.AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	message, err := h.chatService.AppendMessage(r.Context(), user, chatID, req.Role, req.Content)
	if err != nil {
		handleServiceError(w, r, err, h.dev)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": message})
}

func chatIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
		return uuid.Nil, false
	}
	return chatID, true
}
