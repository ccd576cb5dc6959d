package routes

import (
	"net/http"

	"github.com/zatekoja/clinicavailability/internal/api/handlers"
	"github.com/zatekoja/clinicavailability/internal/api/middleware"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchSessionHandler *handlers.SearchSessionHandler
	bookingDraftHandler  *handlers.BookingDraftHandler
	bookingHandler       *handlers.BookingHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchSessionHandler *handlers.SearchSessionHandler,
	bookingDraftHandler *handlers.BookingDraftHandler,
	bookingHandler *handlers.BookingHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                  http.NewServeMux(),
		searchSessionHandler: searchSessionHandler,
		bookingDraftHandler:  bookingDraftHandler,
		bookingHandler:       bookingHandler,
		metrics:              metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Search sessions
	r.mux.HandleFunc("POST /api/search-sessions", r.searchSessionHandler.CreateSession)
	r.mux.HandleFunc("DELETE /api/search-sessions/{id}", r.searchSessionHandler.DeleteSession)
	r.mux.HandleFunc("POST /api/search-sessions/{id}/page", r.searchSessionHandler.GetPage)
	r.mux.HandleFunc("GET /api/search-sessions/{id}/professionals/{professionalId}/availability", r.searchSessionHandler.GetProfessionalAvailability)

	// Booking drafts
	r.mux.HandleFunc("GET /api/patients/{patientId}/booking-draft", r.bookingDraftHandler.GetDraft)
	r.mux.HandleFunc("PUT /api/patients/{patientId}/booking-draft", r.bookingDraftHandler.SaveDraft)
	r.mux.HandleFunc("DELETE /api/patients/{patientId}/booking-draft", r.bookingDraftHandler.ClearDraft)

	// Bookings
	r.mux.HandleFunc("POST /api/patients/{patientId}/bookings", r.bookingHandler.ConfirmBooking)
	r.mux.HandleFunc("POST /api/patients/{patientId}/bookings/cancel", r.bookingHandler.CancelBooking)
	r.mux.HandleFunc("GET /api/patients/{patientId}/bookings", r.bookingHandler.ListBookings)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
