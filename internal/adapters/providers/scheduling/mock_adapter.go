package scheduling

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicavailability/pkg/errors"
)

const mockTimestampLayout = "2006-01-02T15:04:05"

// MockAdapter provides deterministic availability for local development.
// Slots it has booked are reported unavailable and cannot be booked twice.
type MockAdapter struct {
	openHour  int
	closeHour int
	location  *time.Location

	mu     sync.Mutex
	booked map[string]struct{}
}

// NewMockAdapter creates a mock scheduling provider.
func NewMockAdapter(location *time.Location) *MockAdapter {
	if location == nil {
		location = time.Local
	}
	return &MockAdapter{
		openHour:  8,
		closeHour: 18,
		location:  location,
		booked:    make(map[string]struct{}),
	}
}

// FetchAvailability returns business-hours slots for every requested professional.
func (m *MockAdapter) FetchAvailability(ctx context.Context, req providers.BatchAvailabilityRequest) ([]providers.RawProfessionalSlots, error) {
	start, err := time.ParseInLocation(entities.DateLayout, req.StartDate, m.location)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", req.StartDate, err)
	}
	step := time.Duration(req.DurationMinutes) * time.Minute
	if step <= 0 {
		step = time.Hour
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]providers.RawProfessionalSlots, 0, len(req.ProfessionalIDs))
	for _, id := range req.ProfessionalIDs {
		seed := seedFor(id)
		record := providers.RawProfessionalSlots{ProfessionalID: id}

		for day := 0; day < req.NumDays; day++ {
			date := start.AddDate(0, 0, day)
			// Each professional takes one weekday off.
			if int(date.Weekday()) == int(seed%7) {
				continue
			}
			open := time.Date(date.Year(), date.Month(), date.Day(), m.openHour, 0, 0, 0, m.location)
			closing := time.Date(date.Year(), date.Month(), date.Day(), m.closeHour, 0, 0, 0, m.location)

			for cursor, n := open, 0; cursor.Before(closing); cursor, n = cursor.Add(step), n+1 {
				ts := cursor.Format(mockTimestampLayout)
				_, taken := m.booked[id+"|"+ts]
				available := !taken && (uint32(n)+seed+uint32(day))%3 != 0
				slot := providers.RawSlot{Timestamp: ts, Available: available}
				if !available {
					slot.Reason = "ocupado"
				}
				record.Slots = append(record.Slots, slot)
			}
		}
		out = append(out, record)
	}
	return out, nil
}

// CreateBooking books a slot unless the mock already booked it.
func (m *MockAdapter) CreateBooking(ctx context.Context, req providers.CreateBookingRequest) (*entities.Booking, error) {
	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, apperrors.NewExternalError("invalid booking time", err)
	}
	at = at.In(m.location)
	key := req.ProfessionalID + "|" + at.Format(mockTimestampLayout)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.booked[key]; taken {
		return nil, apperrors.NewConflictError("slot already booked", nil)
	}
	m.booked[key] = struct{}{}

	return &entities.Booking{
		ID:              "mock-" + uuid.New().String(),
		PatientID:       req.PatientID,
		ProfessionalID:  req.ProfessionalID,
		ClinicID:        req.ClinicID,
		ScheduledAt:     at,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Status:          string(entities.BookingStatusConfirmed),
	}, nil
}

func seedFor(id string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()
}
