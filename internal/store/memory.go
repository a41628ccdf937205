package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"relaychat-backend/internal/models"
)

// Memory is the process-local backend used in development and tests. All
// mutations happen under one lock, so the check-and-insert on username is
// atomic here too.
type Memory struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	byName   map[string]uuid.UUID
	settings map[string]models.Setting
	chats    map[uuid.UUID]models.Chat
	messages map[uuid.UUID][]models.Message // chatID -> messages, append order
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]models.User),
		byName:   make(map[string]uuid.UUID),
		settings: make(map[string]models.Setting),
		chats:    make(map[uuid.UUID]models.Chat),
		messages: make(map[uuid.UUID][]models.Message),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *Memory) CreateUser(_ context.Context, username, passwordHash string, isAdmin bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[username]; exists {
		return nil, ErrUsernameTaken
	}
	u := models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	m.byName[username] = u.ID
	return &u, nil
}

func (m *Memory) GetSetting(_ context.Context, key string) (*models.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) UpsertSetting(_ context.Context, key, value string) (*models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[key]
	if !ok {
		s = models.Setting{ID: uuid.New(), Key: key}
	}
	s.Value = value
	m.settings[key] = s
	return &s, nil
}

func (m *Memory) ListChatsForUser(_ context.Context, userID uuid.UUID) ([]models.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chats := make([]models.Chat, 0)
	for _, c := range m.chats {
		if c.UserID == userID {
			chats = append(chats, c)
		}
	}
	// Most recently active first.
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (m *Memory) CountChatsForUser(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, c := range m.chats {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) GetChat(_ context.Context, id uuid.UUID) (*models.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) CreateChat(_ context.Context, userID uuid.UUID, title string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	c := models.Chat{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.chats[c.ID] = c
	return &c, nil
}

func (m *Memory) RenameChat(_ context.Context, chatID uuid.UUID, title string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	c.Title = title
	c.UpdatedAt = time.Now()
	m.chats[chatID] = c
	return &c, nil
}

func (m *Memory) DeleteChat(_ context.Context, chatID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[chatID]; !ok {
		return false, nil
	}
	// Messages go first so a chat never leaves orphans behind.
	delete(m.messages, chatID)
	delete(m.chats, chatID)
	return true, nil
}

func (m *Memory) ListMessages(_ context.Context, chatID uuid.UUID) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[chatID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *Memory) AppendMessage(_ context.Context, chatID uuid.UUID, role, content string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	msg := models.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	m.messages[chatID] = append(m.messages[chatID], msg)
	c.UpdatedAt = msg.CreatedAt
	m.chats[chatID] = c
	return &msg, nil
}

func (m *Memory) Close() {}
