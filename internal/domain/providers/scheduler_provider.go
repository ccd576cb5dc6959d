package providers

import (
	"context"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

// BatchAvailabilityRequest is the body of the scheduler's batch availability call.
type BatchAvailabilityRequest struct {
	ProfessionalIDs []string `json:"ids_profissionais"`
	StartDate       string   `json:"data_inicio"`
	NumDays         int      `json:"num_dias"`
	DurationMinutes int      `json:"duracao_minutos"`
}

// RawSlot is a single timestamped record returned by the scheduler.
type RawSlot struct {
	Timestamp string `json:"dt_horario"`
	Available bool   `json:"disponivel"`
	Reason    string `json:"motivo,omitempty"`
}

// RawProfessionalSlots groups the scheduler's records for one professional.
type RawProfessionalSlots struct {
	ProfessionalID string    `json:"id_profissional"`
	Slots          []RawSlot `json:"horarios"`
}

// CreateBookingRequest is the body of the scheduler's booking creation call.
type CreateBookingRequest struct {
	PatientID       string   `json:"id_paciente"`
	ProfessionalID  string   `json:"id_profissional"`
	ClinicID        string   `json:"id_clinica,omitempty"`
	ScheduledAt     string   `json:"dt_agendamento"`
	DurationMinutes int      `json:"nr_duracao_minutos"`
	Price           *float64 `json:"vl_valor,omitempty"`
}

// SchedulerProvider is the external scheduling service.
// Implementations return an AppError of type CONFLICT when the booked slot was already taken.
type SchedulerProvider interface {
	// FetchAvailability issues one request covering every professional in req.
	FetchAvailability(ctx context.Context, req BatchAvailabilityRequest) ([]RawProfessionalSlots, error)

	// CreateBooking books a slot on the external scheduler.
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*entities.Booking, error)
}
