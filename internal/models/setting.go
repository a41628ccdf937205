package models

import "github.com/google/uuid"

// Setting keys understood by the admin endpoints.
const (
	SettingRelayURL   = "relay_url"
	SettingRelayModel = "relay_model"
)

type Setting struct {
	ID    uuid.UUID `json:"id"`
	Key   string    `json:"key"`
	Value string    `json:"value"`
}

type UpdateSettingRequest struct {
	Value string `json:"value"`
}
