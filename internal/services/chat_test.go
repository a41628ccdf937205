package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"relaychat-backend/internal/logbuf"
	"relaychat-backend/internal/models"
	"relaychat-backend/internal/store"
)

func newChatFixture(t *testing.T) (*ChatService, *models.User, *models.User, store.Store) {
	t.Helper()
	mem := store.NewMemory()
	svc := NewChatService(mem, logbuf.New(100))

	owner, err := mem.CreateUser(context.Background(), "alice", "hash", false)
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	other, err := mem.CreateUser(context.Background(), "bob", "hash", false)
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	return svc, owner, other, mem
}

func TestCreateChatAutoTitle(t *testing.T) {
	svc, owner, _, _ := newChatFixture(t)
	ctx := context.Background()

	first, err := svc.CreateChat(ctx, owner, "")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if first.Title != "Chat 1" {
		t.Errorf("expected auto title 'Chat 1', got %q", first.Title)
	}

	second, err := svc.CreateChat(ctx, owner, "  ")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if second.Title != "Chat 2" {
		t.Errorf("expected auto title 'Chat 2', got %q", second.Title)
	}

	named, err := svc.CreateChat(ctx, owner, "Trip planning")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if named.Title != "Trip planning" {
		t.Errorf("expected explicit title kept, got %q", named.Title)
	}
}

func TestChatOwnershipEnforced(t *testing.T) {
	svc, owner, other, _ := newChatFixture(t)
	ctx := context.Background()

	chat, err := svc.CreateChat(ctx, owner, "private")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	if _, err := svc.ListMessages(ctx, other, chat.ID); err == nil {
		t.Errorf("expected list messages denied for a non-owner")
	} else if _, ok := err.(*ForbiddenError); !ok {
		t.Errorf("expected ForbiddenError, got %v", err)
	}

	if _, err := svc.AppendMessage(ctx, other, chat.ID, models.RoleUser, "hi"); err == nil {
		t.Errorf("expected append denied for a non-owner")
	}
	if _, err := svc.RenameChat(ctx, other, chat.ID, "mine now"); err == nil {
		t.Errorf("expected rename denied for a non-owner")
	}
	if err := svc.DeleteChat(ctx, other, chat.ID); err == nil {
		t.Errorf("expected delete denied for a non-owner")
	}

	// The owner still has full access.
	if _, err := svc.AppendMessage(ctx, owner, chat.ID, models.RoleUser, "hi"); err != nil {
		t.Errorf("owner append failed: %v", err)
	}
}

func TestChatNotFound(t *testing.T) {
	svc, owner, _, _ := newChatFixture(t)

	if _, err := svc.ListMessages(context.Background(), owner, uuid.New()); err == nil {
		t.Errorf("expected not found for a missing chat")
	} else if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestAppendMessageValidation(t *testing.T) {
	svc, owner, _, _ := newChatFixture(t)
	ctx := context.Background()

	chat, _ := svc.CreateChat(ctx, owner, "")

	if _, err := svc.AppendMessage(ctx, owner, chat.ID, "assistant", "hi"); err == nil {
		t.Errorf("expected unknown role rejected")
	}
	if _, err := svc.AppendMessage(ctx, owner, chat.ID, models.RoleUser, "  "); err == nil {
		t.Errorf("expected empty content rejected")
	}

	msg, err := svc.AppendMessage(ctx, owner, chat.ID, models.RoleAI, "answer")
	if err != nil {
		t.Fatalf("append ai message: %v", err)
	}
	if msg.Role != models.RoleAI {
		t.Errorf("expected role kept, got %q", msg.Role)
	}
}
