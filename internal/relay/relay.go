// Package relay forwards assembled prompts to the external generation
// endpoint and normalizes every response or failure into one of a small
// set of outcome kinds.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"relaychat-backend/internal/logbuf"
	"relaychat-backend/internal/metrics"
	"relaychat-backend/internal/models"
)

// Outcome kinds. Each maps to a distinct client-visible error so the UI
// can render tailored guidance.
const (
	KindBadStatus = "bad_status"
	KindNonJSON   = "non_json"
	KindTimeout   = "timeout"
	KindNetwork   = "network"
	outcomeOK     = "success"
)

const generatePath = "/api/generate"

// Error is a classified upstream failure.
type Error struct {
	Kind       string
	StatusCode int // upstream status, set for KindBadStatus
	Message    string
}

func (e *Error) Error() string { return e.Message }

type settingsReader interface {
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
}

type Config struct {
	DefaultURL   string
	DefaultModel string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

type Relay struct {
	cfg      Config
	settings settingsReader
	logs     *logbuf.Buffer
}

func New(cfg Config, settings settingsReader, logs *logbuf.Buffer) *Relay {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "llama2:7b"
	}
	return &Relay{cfg: cfg, settings: settings, logs: logs}
}

// Generate performs the single upstream call for one inbound request.
// No retries: every failure is terminal and surfaced to the caller.
func (r *Relay) Generate(ctx context.Context, req models.GenerateRequest, user *models.User) (string, error) {
	finalPrompt := BuildPrompt(req.History, req.Prompt)
	targetURL := r.resolveTargetURL(ctx, req.TargetURL)
	model := r.resolveModel(ctx, req.Model)

	text, relayErr := r.callOnce(ctx, targetURL, model, finalPrompt)
	r.record(targetURL, model, req.Prompt, relayErr, user)
	if relayErr != nil {
		return "", relayErr
	}
	return text, nil
}

// resolveTargetURL applies the precedence: per-request override, then the
// persisted setting, then the compiled-in default.
func (r *Relay) resolveTargetURL(ctx context.Context, override string) string {
	if override != "" {
		return override
	}
	if s, err := r.settings.GetSetting(ctx, models.SettingRelayURL); err == nil && s.Value != "" {
		return s.Value
	}
	return r.cfg.DefaultURL
}

func (r *Relay) resolveModel(ctx context.Context, requested string) string {
	if requested != "" {
		return requested
	}
	if s, err := r.settings.GetSetting(ctx, models.SettingRelayModel); err == nil && s.Value != "" {
		return s.Value
	}
	return r.cfg.DefaultModel
}

func (r *Relay) callOnce(ctx context.Context, targetURL, model, prompt string) (string, *Error) {
	endpoint, err := buildEndpointURL(targetURL)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: fmt.Sprintf("invalid relay target: %v", err)}
	}

	payload := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: fmt.Sprintf("marshal relay payload: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: fmt.Sprintf("build relay request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "relaychat-backend")

	resp, err := r.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Kind: KindTimeout, Message: "upstream timeout"}
		}
		if errors.Is(err, context.Canceled) {
			return "", &Error{Kind: KindTimeout, Message: "request canceled"}
		}
		return "", &Error{Kind: KindNetwork, Message: "cannot reach the model endpoint"}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: "read upstream response failed"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{
			Kind:       KindBadStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("upstream returned status %d", resp.StatusCode),
		}
	}

	// The tunnel serves HTML error pages with a 200; never parse those
	// as JSON.
	if !isJSONContentType(resp.Header.Get("Content-Type")) {
		return "", &Error{Kind: KindNonJSON, Message: "upstream returned non-JSON"}
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &Error{Kind: KindNonJSON, Message: "upstream returned malformed JSON"}
	}
	return parsed.Response, nil
}

func (r *Relay) record(targetURL, model, prompt string, relayErr *Error, user *models.User) {
	data := &models.RelayLogData{
		TargetURL:     targetURL,
		Model:         model,
		PromptPreview: Preview(prompt),
		Outcome:       outcomeOK,
	}

	opts := []logbuf.Option{logbuf.WithRelay(data), logbuf.WithAction("generate")}
	if user != nil {
		opts = append(opts, logbuf.WithUser(user.ID, user.Username))
	}

	if relayErr == nil {
		metrics.Global().RelayAttempts.WithLabelValues(outcomeOK).Inc()
		r.logs.Append(models.LevelInfo, "relay request succeeded", opts...)
		return
	}

	data.Outcome = relayErr.Kind
	data.StatusCode = relayErr.StatusCode
	metrics.Global().RelayAttempts.WithLabelValues(relayErr.Kind).Inc()
	r.logs.Append(models.LevelError, fmt.Sprintf("relay request failed: %s", relayErr.Message), opts...)
}

func buildEndpointURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("base url is empty")
	}
	if strings.HasSuffix(base, generatePath) {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q has no scheme or host", base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + generatePath
	return u.String(), nil
}

func isJSONContentType(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
