package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-consult-nosql/internal/application/consultation"
	"github.com/go-consult-nosql/internal/domain"
	"github.com/go-consult-nosql/internal/transport/http/middleware"
)

// ConsultationHandler handles consultation booking endpoints.
type ConsultationHandler struct {
	svc consultation.Service
}

func NewConsultationHandler(svc consultation.Service) *ConsultationHandler {
	return &ConsultationHandler{svc: svc}
}

func (h *ConsultationHandler) Create(w http.ResponseWriter, r *http.Request) {
	identityID, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user ID required")
		return
	}
	var req domain.CreateConsultationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.Create(r.Context(), identityID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ConsultationEnvelope{Success: true, Consultation: c})
}

func (h *ConsultationHandler) List(w http.ResponseWriter, r *http.Request) {
	identityID, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user ID required")
		return
	}
	consultations, err := h.svc.List(r.Context(), identityID)
	if err != nil {
		httpError(w, err)
		return
	}
	if consultations == nil {
		consultations = []domain.Consultation{}
	}
	writeJSON(w, http.StatusOK, ConsultationsEnvelope{Consultations: consultations})
}
