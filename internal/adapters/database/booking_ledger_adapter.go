package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinicavailability/pkg/errors"
)

const bookingAttemptsTable = "booking_attempts"

// bookingAttemptsSchema creates the ledger table on first start.
const bookingAttemptsSchema = `
CREATE TABLE IF NOT EXISTS booking_attempts (
	id              UUID PRIMARY KEY,
	patient_id      TEXT NOT NULL,
	professional_id TEXT NOT NULL,
	clinic_id       TEXT NOT NULL DEFAULT '',
	slot_id         TEXT NOT NULL DEFAULT '',
	scheduled_at    TIMESTAMPTZ NOT NULL,
	status          TEXT NOT NULL,
	external_id     TEXT NOT NULL DEFAULT '',
	failure_reason  TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_booking_attempts_patient ON booking_attempts (patient_id, created_at DESC);
`

// BookingLedgerAdapter implements the BookingLedgerRepository interface
type BookingLedgerAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingLedgerAdapter creates a new booking ledger adapter
func NewBookingLedgerAdapter(client *postgres.Client) *BookingLedgerAdapter {
	return &BookingLedgerAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// EnsureSchema creates the ledger table if it does not exist
func (a *BookingLedgerAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, bookingAttemptsSchema); err != nil {
		return apperrors.NewInternalError("failed to create booking ledger schema", err)
	}
	return nil
}

// Record appends a booking attempt to the ledger
func (a *BookingLedgerAdapter) Record(ctx context.Context, attempt *entities.BookingAttempt) error {
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":              attempt.ID,
		"patient_id":      attempt.PatientID,
		"professional_id": attempt.ProfessionalID,
		"clinic_id":       attempt.ClinicID,
		"slot_id":         attempt.SlotID,
		"scheduled_at":    attempt.ScheduledAt,
		"status":          string(attempt.Status),
		"external_id":     attempt.ExternalID,
		"failure_reason":  attempt.FailureReason,
		"created_at":      attempt.CreatedAt,
	}

	query, args, err := a.db.Insert(bookingAttemptsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to record booking attempt", err)
	}
	return nil
}

// ListByPatient returns a patient's most recent attempts, newest first
func (a *BookingLedgerAdapter) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.BookingAttempt, error) {
	query, args, err := a.db.Select(
		"id", "patient_id", "professional_id", "clinic_id", "slot_id",
		"scheduled_at", "status", "external_id", "failure_reason", "created_at",
	).From(bookingAttemptsTable).
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list booking attempts", err)
	}
	defer rows.Close()

	var attempts []*entities.BookingAttempt
	for rows.Next() {
		attempt := &entities.BookingAttempt{}
		var status string
		var clinicID, slotID, externalID, reason sql.NullString
		if err := rows.Scan(
			&attempt.ID,
			&attempt.PatientID,
			&attempt.ProfessionalID,
			&clinicID,
			&slotID,
			&attempt.ScheduledAt,
			&status,
			&externalID,
			&reason,
			&attempt.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking attempt", err)
		}
		attempt.Status = entities.BookingStatus(status)
		attempt.ClinicID = clinicID.String
		attempt.SlotID = slotID.String
		attempt.ExternalID = externalID.String
		attempt.FailureReason = reason.String
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate booking attempts", err)
	}
	return attempts, nil
}

// NoopBookingLedger discards attempts. It is used when no database is configured.
type NoopBookingLedger struct{}

// Record discards the attempt
func (NoopBookingLedger) Record(context.Context, *entities.BookingAttempt) error { return nil }

// ListByPatient always returns an empty list
func (NoopBookingLedger) ListByPatient(context.Context, string, int) ([]*entities.BookingAttempt, error) {
	return []*entities.BookingAttempt{}, nil
}
