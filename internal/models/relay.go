package models

// HistoryEntry is a single prior turn the client sends for context.
type HistoryEntry struct {
	Role    string `json:"role"` // "user" or "ai"
	Content string `json:"content"`
}

type GenerateRequest struct {
	Prompt    string         `json:"prompt"`
	Model     string         `json:"model"`
	History   []HistoryEntry `json:"history"`
	TargetURL string         `json:"targetUrl"`
	Stream    bool           `json:"stream"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}
