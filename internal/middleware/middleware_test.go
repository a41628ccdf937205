package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"relaychat-backend/internal/models"
)

type fakeResolver struct {
	users map[string]*models.User
}

func (f *fakeResolver) UserFromToken(_ context.Context, token string) (*models.User, error) {
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("session not found")
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func newAuth(users map[string]*models.User) *SessionAuth {
	return NewSessionAuth(&fakeResolver{users: users})
}

func TestSessionMiddlewareRejectsWithoutCookie(t *testing.T) {
	auth := newAuth(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	rr := httptest.NewRecorder()
	auth.Middleware(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSessionMiddlewareAttachesUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	auth := newAuth(map[string]*models.User{"tok": user})

	var seen *models.User
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if seen == nil || seen.Username != "alice" {
		t.Errorf("expected the user attached to the context")
	}
}

func TestSessionMiddlewareBearerFallback(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	auth := newAuth(map[string]*models.User{"tok": user})

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	auth.Middleware(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 via bearer token, got %d", rr.Code)
	}
}

func TestOptionalNeverRejects(t *testing.T) {
	auth := newAuth(nil)

	var seen *models.User
	handler := auth.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected guest request to pass, got %d", rr.Code)
	}
	if seen != nil {
		t.Errorf("expected no user for a guest request")
	}
}

func TestRequireAdmin(t *testing.T) {
	regular := &models.User{ID: uuid.New(), Username: "alice"}
	admin := &models.User{ID: uuid.New(), Username: "root", IsAdmin: true}
	auth := newAuth(map[string]*models.User{"user-tok": regular, "admin-tok": admin})

	handler := auth.Middleware(RequireAdmin(http.HandlerFunc(okHandler)))

	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "user-tok"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a regular user, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "admin-tok"})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", rr.Code)
	}
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d unexpectedly limited", i)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the limit, got %d", rr.Code)
	}

	// A different IP has its own window.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected a different ip unaffected, got %d", rr.Code)
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	handler := RequestID(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected a generated request id on the response")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "given-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") != "given-id" {
		t.Errorf("expected the provided request id echoed back")
	}
}
