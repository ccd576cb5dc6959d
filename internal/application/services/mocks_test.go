package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/clinicavailability/internal/application/services"
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
)

// Mocks

type MockSchedulerProvider struct {
	mock.Mock
}

func (m *MockSchedulerProvider) FetchAvailability(ctx context.Context, req providers.BatchAvailabilityRequest) ([]providers.RawProfessionalSlots, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]providers.RawProfessionalSlots), args.Error(1)
}

func (m *MockSchedulerProvider) CreateBooking(ctx context.Context, req providers.CreateBookingRequest) (*entities.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

type MockBookingLedger struct {
	mock.Mock
}

func (m *MockBookingLedger) Record(ctx context.Context, attempt *entities.BookingAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockBookingLedger) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.BookingAttempt, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BookingAttempt), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.SlotEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SlotEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.SlotEvent), args.Error(1)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// recordingScheduler answers availability requests from a fixed table and records every request.
type recordingScheduler struct {
	mu       sync.Mutex
	slots    map[string][]providers.RawSlot
	requests []providers.BatchAvailabilityRequest
	delay    time.Duration
	fetchErr error
}

func newRecordingScheduler(slots map[string][]providers.RawSlot) *recordingScheduler {
	if slots == nil {
		slots = map[string][]providers.RawSlot{}
	}
	return &recordingScheduler{slots: slots}
}

func (s *recordingScheduler) FetchAvailability(ctx context.Context, req providers.BatchAvailabilityRequest) ([]providers.RawProfessionalSlots, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	out := make([]providers.RawProfessionalSlots, 0, len(req.ProfessionalIDs))
	for _, id := range req.ProfessionalIDs {
		out = append(out, providers.RawProfessionalSlots{ProfessionalID: id, Slots: s.slots[id]})
	}
	return out, nil
}

func (s *recordingScheduler) CreateBooking(ctx context.Context, req providers.CreateBookingRequest) (*entities.Booking, error) {
	return &entities.Booking{ID: "b-1"}, nil
}

func (s *recordingScheduler) setSlots(id string, slots []providers.RawSlot) {
	s.mu.Lock()
	s.slots[id] = slots
	s.mu.Unlock()
}

func (s *recordingScheduler) failFetches(err error) {
	s.mu.Lock()
	s.fetchErr = err
	s.mu.Unlock()
}

func (s *recordingScheduler) requestedIDs() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.requests))
	for i, r := range s.requests {
		out[i] = append([]string(nil), r.ProfessionalIDs...)
	}
	return out
}

// Fixtures

var brt = time.FixedZone("BRT", -3*60*60)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestFetcher(provider providers.SchedulerProvider, windowDays int, now time.Time) *services.AvailabilityFetcher {
	return services.NewAvailabilityFetcher(provider, services.FetcherConfig{
		WindowDays:          windowDays,
		SlotDurationMinutes: 60,
		CutoffHour:          17,
		Location:            brt,
	}, nil).WithClock(clockAt(now))
}

func dayWithSlots(date string, slots ...entities.ScheduleSlot) entities.ScheduleDay {
	if slots == nil {
		slots = []entities.ScheduleSlot{}
	}
	return entities.ScheduleDay{Date: date, Slots: slots}
}

func availabilityOf(id string, days ...entities.ScheduleDay) *entities.ProfessionalAvailability {
	return &entities.ProfessionalAvailability{ProfessionalID: id, Days: days}
}
