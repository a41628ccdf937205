package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"relaychat-backend/internal/logbuf"
	"relaychat-backend/internal/models"
	"relaychat-backend/internal/store"
)

// AdminService mutates the relay configuration settings and reads the
// diagnostics buffer. Callers are expected to have passed the admin gate.
type AdminService struct {
	store        store.Store
	logs         *logbuf.Buffer
	defaultURL   string
	defaultModel string
}

func NewAdminService(st store.Store, logs *logbuf.Buffer, defaultURL, defaultModel string) *AdminService {
	return &AdminService{
		store:        st,
		logs:         logs,
		defaultURL:   defaultURL,
		defaultModel: defaultModel,
	}
}

// RelayURL returns the persisted target URL, falling back to the
// compiled-in default when no setting exists yet.
func (s *AdminService) RelayURL(ctx context.Context) (string, error) {
	return s.settingOrDefault(ctx, models.SettingRelayURL, s.defaultURL)
}

func (s *AdminService) SetRelayURL(ctx context.Context, admin *models.User, value string) (*models.Setting, error) {
	value = strings.TrimSpace(value)
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ValidationError{Fields: map[string]string{"value": "Value must be an absolute http(s) URL"}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ValidationError{Fields: map[string]string{"value": "Value must be an absolute http(s) URL"}}
	}

	setting, err := s.store.UpsertSetting(ctx, models.SettingRelayURL, value)
	if err != nil {
		return nil, err
	}

	s.logs.Append(models.LevelInfo, fmt.Sprintf("relay url changed to %s", value),
		logbuf.WithUser(admin.ID, admin.Username), logbuf.WithAction("set_relay_url"))
	return setting, nil
}

func (s *AdminService) RelayModel(ctx context.Context) (string, error) {
	return s.settingOrDefault(ctx, models.SettingRelayModel, s.defaultModel)
}

func (s *AdminService) SetRelayModel(ctx context.Context, admin *models.User, value string) (*models.Setting, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, &ValidationError{Fields: map[string]string{"value": "Value is required"}}
	}

	setting, err := s.store.UpsertSetting(ctx, models.SettingRelayModel, value)
	if err != nil {
		return nil, err
	}

	s.logs.Append(models.LevelInfo, fmt.Sprintf("relay model changed to %s", value),
		logbuf.WithUser(admin.ID, admin.Username), logbuf.WithAction("set_relay_model"))
	return setting, nil
}

func (s *AdminService) RecentLogs(limit int) []models.LogEntry {
	return s.logs.Recent(limit)
}

func (s *AdminService) RecentErrors(limit int) []models.LogEntry {
	return s.logs.RecentErrors(limit)
}

func (s *AdminService) settingOrDefault(ctx context.Context, key, fallback string) (string, error) {
	setting, err := s.store.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fallback, nil
		}
		return "", err
	}
	if setting.Value == "" {
		return fallback, nil
	}
	return setting.Value, nil
}
