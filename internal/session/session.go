// Package session tracks opaque session tokens. A token is random hex
// generated at login and maps to a user id until it expires or is revoked
// by logout.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const TTL = 24 * time.Hour

var ErrNotFound = errors.New("session not found")

type Store interface {
	// Create persists the token before returning; callers rely on the
	// session being visible to an immediate follow-up request.
	Create(ctx context.Context, token string, userID uuid.UUID) error
	Get(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

// NewToken returns a 64-hex-char random session token.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
