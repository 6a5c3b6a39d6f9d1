package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-consult-nosql/internal/application/verification"
	"github.com/go-consult-nosql/internal/domain"
)

// AuthHandler handles the contact verification flow endpoints.
type AuthHandler struct {
	svc verification.Service
}

func NewAuthHandler(svc verification.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request-code":
		var body domain.ContactRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		issued, err := h.svc.RequestCode(r.Context(), body)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, CodeEnvelope{Success: true, Code: issued.Code, Message: issued.Message})
	case "confirm-code":
		var body struct {
			domain.ContactRequest
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		conf, err := h.svc.ConfirmCode(r.Context(), body.ContactRequest, body.Code)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ConfirmEnvelope{Success: true, UserID: conf.UserID, Message: conf.Message})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
