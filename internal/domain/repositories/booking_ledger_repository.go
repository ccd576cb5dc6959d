package repositories

import (
	"context"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

// BookingLedgerRepository records every booking confirmation attempt and its outcome.
type BookingLedgerRepository interface {
	// Record appends an attempt to the ledger
	Record(ctx context.Context, attempt *entities.BookingAttempt) error

	// ListByPatient returns a patient's attempts, newest first
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.BookingAttempt, error)
}
