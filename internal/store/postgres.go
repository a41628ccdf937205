package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaychat-backend/internal/models"
)

const uniqueViolation = "23505"

// Postgres is the durable backend. SQL mirrors the memory backend's
// contract; the unique index on users.username closes the duplicate
// registration race at the storage boundary.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, is_admin, created_at FROM users WHERE id = $1`

	err := p.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return user, nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, is_admin, created_at FROM users WHERE username = $1`

	err := p.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return user, nil
}

func (p *Postgres) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}
	query := `
		INSERT INTO users (id, username, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := p.pool.QueryRow(ctx, query, user.ID, username, passwordHash, isAdmin).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (p *Postgres) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	s := &models.Setting{}
	query := `SELECT id, key, value FROM settings WHERE key = $1`

	err := p.pool.QueryRow(ctx, query, key).Scan(&s.ID, &s.Key, &s.Value)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return s, nil
}

func (p *Postgres) UpsertSetting(ctx context.Context, key, value string) (*models.Setting, error) {
	s := &models.Setting{Key: key, Value: value}
	query := `
		INSERT INTO settings (id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		RETURNING id`

	err := p.pool.QueryRow(ctx, query, uuid.New(), key, value).Scan(&s.ID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Postgres) ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	query := `SELECT id, user_id, title, created_at, updated_at
		FROM chats WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := p.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := make([]models.Chat, 0)
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (p *Postgres) CountChatsForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chats WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (p *Postgres) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	c := &models.Chat{}
	query := `SELECT id, user_id, title, created_at, updated_at FROM chats WHERE id = $1`

	err := p.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return c, nil
}

func (p *Postgres) CreateChat(ctx context.Context, userID uuid.UUID, title string) (*models.Chat, error) {
	c := &models.Chat{ID: uuid.New(), UserID: userID, Title: title}
	query := `
		INSERT INTO chats (id, user_id, title)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := p.pool.QueryRow(ctx, query, c.ID, userID, title).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Postgres) RenameChat(ctx context.Context, chatID uuid.UUID, title string) (*models.Chat, error) {
	c := &models.Chat{ID: chatID, Title: title}
	query := `
		UPDATE chats SET title = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING user_id, created_at, updated_at`

	err := p.pool.QueryRow(ctx, query, title, chatID).Scan(&c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return c, nil
}

func (p *Postgres) DeleteChat(ctx context.Context, chatID uuid.UUID) (bool, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID); err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	query := `SELECT id, chat_id, role, content, created_at
		FROM messages WHERE chat_id = $1 ORDER BY created_at ASC`

	rows, err := p.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (p *Postgres) AppendMessage(ctx context.Context, chatID uuid.UUID, role, content string) (*models.Message, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	msg := &models.Message{ID: uuid.New(), ChatID: chatID, Role: role, Content: content}
	query := `
		INSERT INTO messages (id, chat_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if err := tx.QueryRow(ctx, query, msg.ID, chatID, role, content).Scan(&msg.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		// Foreign key violation means the chat does not exist.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tag, err := tx.Exec(ctx, `UPDATE chats SET updated_at = $1 WHERE id = $2`, msg.CreatedAt, chatID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return msg, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
