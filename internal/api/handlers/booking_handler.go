package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

// BookingService defines the booking operations used by the handler
type BookingService interface {
	Confirm(ctx context.Context, patientID, sessionID string) (*entities.Booking, error)
	Cancel(ctx context.Context, patientID string) error
	History(ctx context.Context, patientID string, limit int) ([]*entities.BookingAttempt, error)
}

// BookingHandler confirms booking drafts against the scheduler
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type confirmRequest struct {
	SessionID string `json:"session_id"`
}

// ConfirmBooking handles POST /api/patients/{patientId}/bookings
func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	// An empty body confirms without a search session.
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	booking, err := h.service.Confirm(r.Context(), patientID, req.SessionID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

// CancelBooking handles POST /api/patients/{patientId}/bookings/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	if err := h.service.Cancel(r.Context(), patientID); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListBookings handles GET /api/patients/{patientId}/bookings
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientId")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	attempts, err := h.service.History(r.Context(), patientID, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": attempts,
		"count":    len(attempts),
	})
}
