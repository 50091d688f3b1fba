package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/nando-scheduler/backend/internal/api/middleware"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// statusForError maps an application error to an HTTP status
func statusForError(err error) int {
	appErr, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeForbidden:
		return http.StatusForbidden
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithAppError writes err as a JSON error. Internal details are
// logged and never sent to the client.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("Request failed")
		if status == http.StatusBadGateway {
			respondWithError(w, status, "upstream service unavailable")
			return
		}
		respondWithError(w, status, "internal server error")
		return
	}

	appErr, _ := apperrors.As(err)
	respondWithError(w, status, appErr.Message)
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		message := "invalid request body"
		if errors.Is(err, io.EOF) {
			message = "request body is required"
		}
		respondWithError(w, http.StatusBadRequest, message)
		return false
	}
	return true
}

func requester(r *http.Request) entities.Requester {
	return middleware.RequesterFromContext(r.Context())
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, apperrors.NewValidationError(name + " must be a non-negative integer")
	}
	return value, nil
}
