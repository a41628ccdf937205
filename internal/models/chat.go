package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	Role      string    `json:"role"` // "user" or "ai"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateChatRequest struct {
	Title string `json:"title"`
}

type RenameChatRequest struct {
	Title string `json:"title"`
}

type AppendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
