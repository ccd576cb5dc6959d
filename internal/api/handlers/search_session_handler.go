package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/clinicavailability/internal/application/services"
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

// SearchSessionService defines the search session operations used by the handler
type SearchSessionService interface {
	Create() *services.SearchSession
	Delete(id string) error
	Page(
		ctx context.Context,
		sessionID string,
		results []entities.ProfessionalResult,
		filters entities.AvailabilityFilterState,
		page, pageSize int,
	) (services.AvailabilityPage, error)
	ProfessionalAvailability(ctx context.Context, sessionID, professionalID string) (*entities.ProfessionalAvailability, error)
}

// SearchSessionHandler serves paginated availability for search sessions
type SearchSessionHandler struct {
	service SearchSessionService
}

// NewSearchSessionHandler creates a new search session handler
func NewSearchSessionHandler(service SearchSessionService) *SearchSessionHandler {
	return &SearchSessionHandler{service: service}
}

type searchSessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type pageRequest struct {
	Results  []entities.ProfessionalResult    `json:"results" validate:"dive"`
	Filters  entities.AvailabilityFilterState `json:"filters"`
	Page     int                              `json:"page" validate:"gte=0,lte=10000"`
	PageSize int                              `json:"page_size" validate:"gte=0"`
}

// CreateSession handles POST /api/search-sessions
func (h *SearchSessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.service.Create()
	respondWithJSON(w, http.StatusCreated, searchSessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
	})
}

// DeleteSession handles DELETE /api/search-sessions/{id}
func (h *SearchSessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	if err := h.service.Delete(sessionID); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPage handles POST /api/search-sessions/{id}/page
func (h *SearchSessionHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	var req pageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	page, err := h.service.Page(r.Context(), sessionID, req.Results, req.Filters, req.Page, req.PageSize)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// GetProfessionalAvailability handles GET /api/search-sessions/{id}/professionals/{professionalId}/availability
func (h *SearchSessionHandler) GetProfessionalAvailability(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	professionalID := r.PathValue("professionalId")
	if sessionID == "" || professionalID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID and professional ID are required")
		return
	}

	availability, err := h.service.ProfessionalAvailability(r.Context(), sessionID, professionalID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, availability)
}
