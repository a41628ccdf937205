package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// RelayLogData is the typed payload attached to relay attempt entries.
type RelayLogData struct {
	TargetURL     string `json:"target_url"`
	Model         string `json:"model"`
	PromptPreview string `json:"prompt_preview"`
	StatusCode    int    `json:"status_code,omitempty"`
	Outcome       string `json:"outcome"`
}

type LogEntry struct {
	ID        uint64            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	Relay     *RelayLogData     `json:"relay,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	UserID    *uuid.UUID        `json:"user_id,omitempty"`
	Username  string            `json:"username,omitempty"`
	Action    string            `json:"action,omitempty"`
}
