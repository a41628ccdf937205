package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"relaychat-backend/internal/models"
	"relaychat-backend/internal/relay"
	"relaychat-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// handleServiceError maps service and relay errors to HTTP responses.
// Internal errors only carry detail in development.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, dev bool) {
	var relayErr *relay.Error
	if errors.As(err, &relayErr) {
		writeRelayError(w, r, relayErr)
		return
	}

	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnauthorizedError:
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", e.Message, r))
	case *services.ForbiddenError:
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", e.Message, r))
	case *services.RateLimitError:
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", e.Message, r))
	default:
		message := "An unexpected error occurred"
		if dev {
			message = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", message, r))
	}
}

func writeRelayError(w http.ResponseWriter, r *http.Request, relayErr *relay.Error) {
	switch relayErr.Kind {
	case relay.KindTimeout:
		writeJSON(w, http.StatusRequestTimeout, errorResp("RELAY_TIMEOUT", relayErr.Message, r))
	case relay.KindNetwork:
		writeJSON(w, http.StatusServiceUnavailable, errorResp("RELAY_NETWORK", relayErr.Message, r))
	case relay.KindNonJSON:
		writeJSON(w, http.StatusBadGateway, errorResp("RELAY_NON_JSON", relayErr.Message, r))
	default:
		writeJSON(w, http.StatusBadGateway, errorResp("RELAY_BAD_STATUS", relayErr.Message, r))
	}
}
