package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-consult-nosql/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CodeEnvelope wraps request-code responses.
type CodeEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConfirmEnvelope wraps confirm-code responses.
type ConfirmEnvelope struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ConsultationEnvelope wraps a single created consultation.
type ConsultationEnvelope struct {
	Success      bool                 `json:"success"`
	Consultation *domain.Consultation `json:"consultation"`
}

// ConsultationsEnvelope wraps a consultation list.
type ConsultationsEnvelope struct {
	Consultations []domain.Consultation `json:"consultations"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors onto HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingContact),
		errors.Is(err, domain.ErrMissingCode),
		errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrUserNotVerified):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrDuplicateContact):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
