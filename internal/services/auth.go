package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"relaychat-backend/internal/logbuf"
	"relaychat-backend/internal/metrics"
	"relaychat-backend/internal/models"
	"relaychat-backend/internal/session"
	"relaychat-backend/internal/store"
)

// Login failures use one generic message so the API never reveals whether
// a username exists.
const invalidCredentials = "Invalid credentials"

type AuthService struct {
	store         store.Store
	sessions      session.Store
	logs          *logbuf.Buffer
	adminUsername string
}

func NewAuthService(st store.Store, sessions session.Store, logs *logbuf.Buffer, adminUsername string) *AuthService {
	return &AuthService{
		store:         st,
		sessions:      sessions,
		logs:          logs,
		adminUsername: adminUsername,
	}
}

// Register creates the account and a session in one step. The session
// write completes before we return so the client's next request sees it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	fieldErrors := make(map[string]string)
	if err := validateUsername(req.Username); err != nil {
		fieldErrors["username"] = err.Error()
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return nil, "", &ValidationError{Fields: fieldErrors}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	isAdmin := s.adminUsername != "" && req.Username == s.adminUsername
	user, err := s.store.CreateUser(ctx, req.Username, string(hash), isAdmin)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return nil, "", &ConflictError{Message: "Username already taken"}
		}
		return nil, "", err
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.logs.Append(models.LevelInfo, fmt.Sprintf("user %s registered", user.Username),
		logbuf.WithUser(user.ID, user.Username), logbuf.WithAction("register"))

	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", s.loginFailed(req.Username)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", s.loginFailed(req.Username)
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.logs.Append(models.LevelInfo, fmt.Sprintf("user %s logged in", user.Username),
		logbuf.WithUser(user.ID, user.Username), logbuf.WithAction("login"))

	return user, token, nil
}

func (s *AuthService) loginFailed(username string) error {
	metrics.Global().LoginFailures.Inc()
	// Level error so the attempt is visible in the full log; the errors
	// view filters these out as routine noise.
	s.logs.Append(models.LevelError,
		fmt.Sprintf("login failed for %s: invalid credentials", username),
		logbuf.WithAction("login"))
	return &UnauthorizedError{Message: invalidCredentials}
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// UserFromToken resolves a session token to its user, or an
// UnauthorizedError when the session is missing or expired.
func (s *AuthService) UserFromToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, &UnauthorizedError{Message: "Not authenticated"}
		}
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &UnauthorizedError{Message: "Not authenticated"}
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (string, error) {
	token, err := session.NewToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Create(ctx, token, user.ID); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}
	return token, nil
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return fmt.Errorf("Username must be between 3 and 32 characters")
	}
	for _, ch := range username {
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' && ch != '-' && ch != '.' {
			return fmt.Errorf("Username may only contain letters, digits, '_', '-' and '.'")
		}
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
