package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/clinicavailability/internal/application/services"
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

type MockSearchSessionService struct {
	mock.Mock
}

func (m *MockSearchSessionService) Create() *services.SearchSession {
	args := m.Called()
	return args.Get(0).(*services.SearchSession)
}

func (m *MockSearchSessionService) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockSearchSessionService) Page(
	ctx context.Context,
	sessionID string,
	results []entities.ProfessionalResult,
	filters entities.AvailabilityFilterState,
	page, pageSize int,
) (services.AvailabilityPage, error) {
	args := m.Called(ctx, sessionID, results, filters, page, pageSize)
	return args.Get(0).(services.AvailabilityPage), args.Error(1)
}

func (m *MockSearchSessionService) ProfessionalAvailability(ctx context.Context, sessionID, professionalID string) (*entities.ProfessionalAvailability, error) {
	args := m.Called(ctx, sessionID, professionalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ProfessionalAvailability), args.Error(1)
}

type MockBookingDraftService struct {
	mock.Mock
}

func (m *MockBookingDraftService) Load(ctx context.Context, userID string) *entities.BookingDraft {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*entities.BookingDraft)
}

func (m *MockBookingDraftService) Save(ctx context.Context, userID string, draft *entities.BookingDraft) (*entities.BookingDraft, error) {
	args := m.Called(ctx, userID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BookingDraft), args.Error(1)
}

func (m *MockBookingDraftService) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Confirm(ctx context.Context, patientID, sessionID string) (*entities.Booking, error) {
	args := m.Called(ctx, patientID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, patientID string) error {
	args := m.Called(ctx, patientID)
	return args.Error(0)
}

func (m *MockBookingService) History(ctx context.Context, patientID string, limit int) ([]*entities.BookingAttempt, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BookingAttempt), args.Error(1)
}
