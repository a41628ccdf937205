package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"relaychat-backend/internal/models"
)

type contextKey string

const UserKey contextKey = "user"

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "session_token"

type userResolver interface {
	UserFromToken(ctx context.Context, token string) (*models.User, error)
}

type SessionAuth struct {
	resolver userResolver
}

func NewSessionAuth(resolver userResolver) *SessionAuth {
	return &SessionAuth{resolver: resolver}
}

// Middleware validates the session cookie and attaches the user to the
// request context. Requests without a valid session get a generic 401.
func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := a.resolve(r)
		if user == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserKey, user)))
	})
}

// Optional attaches the user when a valid session is present but never
// rejects. Guest-mode endpoints use this.
func (a *SessionAuth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := a.resolve(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), UserKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates a route on the admin role. Must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", r)
			return
		}
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin role required", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *SessionAuth) resolve(r *http.Request) *models.User {
	token := TokenFromRequest(r)
	if token == "" {
		return nil
	}
	user, err := a.resolver.UserFromToken(r.Context(), token)
	if err != nil {
		return nil
	}
	return user
}

// TokenFromRequest reads the session token from the cookie, falling back
// to a Bearer header for non-browser clients.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// GetUser extracts the authenticated user from the request context.
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	})
}
