package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

// BookingDraftService defines the draft persistence used by the handler
type BookingDraftService interface {
	Load(ctx context.Context, userID string) *entities.BookingDraft
	Save(ctx context.Context, userID string, draft *entities.BookingDraft) (*entities.BookingDraft, error)
	Clear(ctx context.Context, userID string) error
}

// BookingDraftHandler exposes a patient's in-progress booking
type BookingDraftHandler struct {
	service BookingDraftService
}

// NewBookingDraftHandler creates a new booking draft handler
func NewBookingDraftHandler(service BookingDraftService) *BookingDraftHandler {
	return &BookingDraftHandler{service: service}
}

type draftRequest struct {
	ProfessionalID   string   `json:"professional_id"`
	ProfessionalName string   `json:"professional_name"`
	Specialty        string   `json:"specialty"`
	ClinicID         string   `json:"clinic_id"`
	ClinicName       string   `json:"clinic_name"`
	Location         string   `json:"location"`
	Date             string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time             string   `json:"time" validate:"omitempty,datetime=15:04"`
	SlotID           string   `json:"slot_id"`
	VisitPrice       *float64 `json:"visit_price" validate:"omitempty,gte=0"`
}

func (d draftRequest) toEntity() *entities.BookingDraft {
	return &entities.BookingDraft{
		ProfessionalID:   d.ProfessionalID,
		ProfessionalName: d.ProfessionalName,
		Specialty:        d.Specialty,
		ClinicID:         d.ClinicID,
		ClinicName:       d.ClinicName,
		Location:         d.Location,
		Date:             d.Date,
		Time:             d.Time,
		SlotID:           d.SlotID,
		VisitPrice:       d.VisitPrice,
	}
}

// GetDraft handles GET /api/patients/{patientId}/booking-draft
func (h *BookingDraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	draft := h.service.Load(r.Context(), patientID)
	if draft == nil {
		respondWithError(w, http.StatusNotFound, "no booking draft")
		return
	}

	respondWithJSON(w, http.StatusOK, draft)
}

// SaveDraft handles PUT /api/patients/{patientId}/booking-draft
func (h *BookingDraftHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	var req draftRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	draft, err := h.service.Save(r.Context(), patientID, req.toEntity())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save booking draft")
		return
	}

	respondWithJSON(w, http.StatusOK, draft)
}

// ClearDraft handles DELETE /api/patients/{patientId}/booking-draft
func (h *BookingDraftHandler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	if err := h.service.Clear(r.Context(), patientID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to clear booking draft")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
