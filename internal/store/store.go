// Package store is the persistence layer: users, settings, chats and
// messages behind one contract with two interchangeable backends.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"relaychat-backend/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type Store interface {
	// Users
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*models.User, error)

	// Settings
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) (*models.Setting, error)

	// Chats
	ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	CountChatsForUser(ctx context.Context, userID uuid.UUID) (int, error)
	GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	CreateChat(ctx context.Context, userID uuid.UUID, title string) (*models.Chat, error)
	RenameChat(ctx context.Context, chatID uuid.UUID, title string) (*models.Chat, error)
	// DeleteChat removes the chat's messages first, then the chat itself,
	// and reports whether the chat existed.
	DeleteChat(ctx context.Context, chatID uuid.UUID) (bool, error)

	// Messages
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	AppendMessage(ctx context.Context, chatID uuid.UUID, role, content string) (*models.Message, error)

	Close()
}
