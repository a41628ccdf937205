package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"relaychat-backend/internal/logbuf"
	"relaychat-backend/internal/models"
	"relaychat-backend/internal/store"
)

type ChatService struct {
	store store.Store
	logs  *logbuf.Buffer
}

func NewChatService(st store.Store, logs *logbuf.Buffer) *ChatService {
	return &ChatService{store: st, logs: logs}
}

func (s *ChatService) ListChats(ctx context.Context, user *models.User) ([]models.Chat, error) {
	return s.store.ListChatsForUser(ctx, user.ID)
}

// CreateChat titles the chat "Chat N" when the caller supplies none.
func (s *ChatService) CreateChat(ctx context.Context, user *models.User, title string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		count, err := s.store.CountChatsForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		title = fmt.Sprintf("Chat %d", count+1)
	}

	chat, err := s.store.CreateChat(ctx, user.ID, title)
	if err != nil {
		return nil, err
	}

	s.logs.Append(models.LevelInfo, fmt.Sprintf("chat %q created", chat.Title),
		logbuf.WithUser(user.ID, user.Username), logbuf.WithAction("create_chat"))
	return chat, nil
}

func (s *ChatService) RenameChat(ctx context.Context, user *models.User, chatID uuid.UUID, title string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Fields: map[string]string{"title": "Title is required"}}
	}
	if _, err := s.ownedChat(ctx, user, chatID); err != nil {
		return nil, err
	}
	return s.store.RenameChat(ctx, chatID, title)
}

func (s *ChatService) DeleteChat(ctx context.Context, user *models.User, chatID uuid.UUID) error {
	if _, err := s.ownedChat(ctx, user, chatID); err != nil {
		return err
	}
	existed, err := s.store.DeleteChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !existed {
		return &NotFoundError{Message: "Chat not found"}
	}

	s.logs.Append(models.LevelInfo, "chat deleted",
		logbuf.WithUser(user.ID, user.Username), logbuf.WithAction("delete_chat"))
	return nil
}

func (s *ChatService) ListMessages(ctx context.Context, user *models.User, chatID uuid.UUID) ([]models.Message, error) {
	if _, err := s.ownedChat(ctx, user, chatID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, chatID)
}

func (s *ChatService) AppendMessage(ctx context.Context, user *models.User, chatID uuid.UUID, role, content string) (*models.Message, error) {
	if role != models.RoleUser && role != models.RoleAI {
		return nil, &ValidationError{Fields: map[string]string{"role": "Role must be 'user' or 'ai'"}}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "Content is required"}}
	}
	if _, err := s.ownedChat(ctx, user, chatID); err != nil {
		return nil, err
	}
	return s.store.AppendMessage(ctx, chatID, role, content)
}

// ownedChat loads the chat and verifies the caller owns it. Every
// chat-scoped operation goes through this check.
func (s *ChatService) ownedChat(ctx context.Context, user *models.User, chatID uuid.UUID) (*models.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Message: "Chat not found"}
		}
		return nil, err
	}
	if chat.UserID != user.ID {
		return nil, &ForbiddenError{Message: "Access denied"}
	}
	return chat, nil
}
