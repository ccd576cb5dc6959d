package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/domain/providers"
	"github.com/zatekoja/clinicavailability/internal/domain/repositories"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicavailability/pkg/errors"
)

// BookingConfig holds the booking parameters sent to the scheduler.
type BookingConfig struct {
	SlotDurationMinutes int
	Location            *time.Location
}

// BookingService confirms and cancels booking drafts against the external scheduler
type BookingService struct {
	drafts   *BookingDraftStores
	sessions *SessionRegistry
	provider providers.SchedulerProvider
	ledger   repositories.BookingLedgerRepository
	events   providers.EventBus
	cfg      BookingConfig
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewBookingService creates a booking service. events and metrics may be nil.
func NewBookingService(
	drafts *BookingDraftStores,
	sessions *SessionRegistry,
	provider providers.SchedulerProvider,
	ledger repositories.BookingLedgerRepository,
	events providers.EventBus,
	cfg BookingConfig,
	metrics *observability.Metrics,
) *BookingService {
	if cfg.SlotDurationMinutes < 1 {
		cfg.SlotDurationMinutes = 60
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &BookingService{
		drafts:   drafts,
		sessions: sessions,
		provider: provider,
		ledger:   ledger,
		events:   events,
		cfg:      cfg,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Confirm books the patient's draft. The slot is invalidated in the search session
// before the scheduler is called and restored if the scheduler rejects the booking.
// sessionID may be empty when the booking did not start from a search.
func (s *BookingService) Confirm(ctx context.Context, patientID, sessionID string) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.Confirm")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)

	draft := s.drafts.For(patientID).Load(ctx)
	if !draft.HasSlot() {
		return nil, apperrors.NewValidationError("no slot selected for booking")
	}
	observability.SetSpanAttributes(span,
		attribute.String("professional.id", draft.ProfessionalID),
		attribute.String("slot.date", draft.Date),
	)

	scheduledAt, err := s.scheduledAt(draft)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var (
		session *SearchSession
		held    bool
	)
	if sessionID != "" {
		if session, err = s.sessions.Get(sessionID); err != nil {
			return nil, err
		}
		held = session.Invalidator.OnBookingConfirmed(ctx, draft)
	}

	booking, err := s.provider.CreateBooking(ctx, providers.CreateBookingRequest{
		PatientID:       patientID,
		ProfessionalID:  draft.ProfessionalID,
		ClinicID:        draft.ClinicID,
		ScheduledAt:     scheduledAt.Format(time.RFC3339),
		DurationMinutes: s.cfg.SlotDurationMinutes,
		Price:           draft.VisitPrice,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, s.handleFailure(ctx, patientID, draft, session, held, scheduledAt, err)
	}

	if booking.PatientID == "" {
		booking.PatientID = patientID
	}
	if booking.ProfessionalID == "" {
		booking.ProfessionalID = draft.ProfessionalID
	}
	if booking.ScheduledAt.IsZero() {
		booking.ScheduledAt = scheduledAt
	}
	if booking.DurationMinutes == 0 {
		booking.DurationMinutes = s.cfg.SlotDurationMinutes
	}

	if err := s.drafts.For(patientID).Clear(ctx); err != nil {
		logger.Warn().Err(err).Str("patient_id", patientID).Msg("failed to clear booking draft after confirmation")
	}

	s.record(ctx, patientID, draft, scheduledAt, entities.BookingStatusConfirmed, booking.ID, "")
	observability.RecordBookingOutcome(ctx, s.metrics, string(entities.BookingStatusConfirmed))
	s.broadcast(ctx, draft, sessionID)

	logger.Info().
		Str("booking_id", booking.ID).
		Str("professional_id", draft.ProfessionalID).
		Str("date", draft.Date).
		Msg("booking confirmed")

	return booking, nil
}

func (s *BookingService) handleFailure(
	ctx context.Context,
	patientID string,
	draft *entities.BookingDraft,
	session *SearchSession,
	held bool,
	scheduledAt time.Time,
	cause error,
) error {
	logger := observability.LoggerFromContext(ctx)

	if session != nil {
		// Only a slot this confirmation took is given back; one that was already unavailable stays so.
		if held {
			session.Invalidator.Rollback(ctx, draft)
		}
		if err := session.Loader.RefreshDay(ctx, draft.ProfessionalID, draft.Date); err != nil {
			logger.Warn().Err(err).
				Str("professional_id", draft.ProfessionalID).
				Str("date", draft.Date).
				Msg("failed to refresh day after rejected booking")
		}
	}

	status := entities.BookingStatusFailed
	if apperrors.IsType(cause, apperrors.ErrorTypeConflict) {
		status = entities.BookingStatusConflict
	}
	s.record(ctx, patientID, draft, scheduledAt, status, "", cause.Error())
	observability.RecordBookingOutcome(ctx, s.metrics, string(status))

	logger.Warn().Err(cause).
		Str("professional_id", draft.ProfessionalID).
		Str("status", string(status)).
		Msg("booking rejected")

	if status == entities.BookingStatusConflict {
		return apperrors.NewConflictError("slot is no longer available", cause)
	}
	return apperrors.NewExternalError("failed to confirm booking with scheduler", cause)
}

// Cancel discards the patient's draft
func (s *BookingService) Cancel(ctx context.Context, patientID string) error {
	if err := s.drafts.For(patientID).Clear(ctx); err != nil {
		return apperrors.NewInternalError("failed to cancel booking draft", err)
	}
	return nil
}

// History lists the patient's recent confirmation attempts
func (s *BookingService) History(ctx context.Context, patientID string, limit int) ([]*entities.BookingAttempt, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	attempts, err := s.ledger.ListByPatient(ctx, patientID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list booking attempts", err)
	}
	return attempts, nil
}

// scheduledAt resolves the slot start: the slot id is the scheduler timestamp, date and time are the fallback.
func (s *BookingService) scheduledAt(draft *entities.BookingDraft) (time.Time, error) {
	if at, ok := parseSlotTimestamp(draft.SlotID, s.cfg.Location); ok {
		return at, nil
	}
	at, err := time.ParseInLocation(entities.DateLayout+" "+entities.TimeLayout, draft.Date+" "+draft.Time, s.cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("draft slot %q on %s %s has no usable start time", draft.SlotID, draft.Date, draft.Time)
	}
	return at, nil
}

func (s *BookingService) record(
	ctx context.Context,
	patientID string,
	draft *entities.BookingDraft,
	scheduledAt time.Time,
	status entities.BookingStatus,
	externalID, reason string,
) {
	attempt := &entities.BookingAttempt{
		ID:             uuid.New().String(),
		PatientID:      patientID,
		ProfessionalID: draft.ProfessionalID,
		ClinicID:       draft.ClinicID,
		SlotID:         draft.SlotID,
		ScheduledAt:    scheduledAt,
		Status:         status,
		ExternalID:     externalID,
		FailureReason:  reason,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.ledger.Record(ctx, attempt); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("patient_id", patientID).
			Str("status", string(status)).
			Msg("failed to record booking attempt")
	}
}

// broadcast tells every search session that the slot is gone. Without an event bus
// only sessions of this process are reached.
func (s *BookingService) broadcast(ctx context.Context, draft *entities.BookingDraft, originSession string) {
	event := &entities.SlotEvent{
		ID:             uuid.New().String(),
		ProfessionalID: draft.ProfessionalID,
		Date:           draft.Date,
		SlotID:         draft.SlotID,
		Time:           draft.Time,
		OriginSession:  originSession,
		OccurredAt:     s.now().UTC(),
	}

	if s.events == nil {
		s.sessions.InvalidateEverywhere(ctx, event)
		return
	}
	if err := s.events.Publish(ctx, providers.EventChannelSlotBookings, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to publish slot booking event")
		s.sessions.InvalidateEverywhere(ctx, event)
	}
}
