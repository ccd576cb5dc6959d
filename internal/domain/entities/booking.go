package entities

import (
	"time"
)

// BookingDraft is a patient's in-progress, not yet confirmed slot selection.
// Empty strings and a nil VisitPrice mean "not set".
type BookingDraft struct {
	ProfessionalID   string   `json:"professional_id,omitempty"`
	ProfessionalName string   `json:"professional_name,omitempty"`
	Specialty        string   `json:"specialty,omitempty"`
	ClinicID         string   `json:"clinic_id,omitempty"`
	ClinicName       string   `json:"clinic_name,omitempty"`
	Location         string   `json:"location,omitempty"`
	Date             string   `json:"date,omitempty"`
	Time             string   `json:"time,omitempty"`
	SlotID           string   `json:"slot_id,omitempty"`
	VisitPrice       *float64 `json:"visit_price,omitempty"`
}

// HasSlot reports whether the draft identifies a concrete slot.
func (d *BookingDraft) HasSlot() bool {
	if d == nil || d.ProfessionalID == "" || d.Date == "" {
		return false
	}
	return d.SlotID != "" || d.Time != ""
}

// Matcher returns the slot matcher for this draft: slot id first, else wall-clock time.
func (d *BookingDraft) Matcher() SlotMatcher {
	return SlotMatcher{ID: d.SlotID, Time: d.Time}
}

// Supersedes reports whether d describes a different slot selection than prior,
// in which case it replaces prior instead of being merged onto it.
func (d *BookingDraft) Supersedes(prior *BookingDraft) bool {
	if prior == nil {
		return false
	}
	differs := func(next, old string) bool {
		return next != "" && old != "" && next != old
	}
	return differs(d.ProfessionalID, prior.ProfessionalID) ||
		differs(d.SlotID, prior.SlotID) ||
		differs(d.Date, prior.Date) ||
		differs(d.Time, prior.Time)
}

// MergeOnto returns prior with every field set in d overwritten.
func (d *BookingDraft) MergeOnto(prior *BookingDraft) *BookingDraft {
	merged := BookingDraft{}
	if prior != nil {
		merged = *prior
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&merged.ProfessionalID, d.ProfessionalID)
	set(&merged.ProfessionalName, d.ProfessionalName)
	set(&merged.Specialty, d.Specialty)
	set(&merged.ClinicID, d.ClinicID)
	set(&merged.ClinicName, d.ClinicName)
	set(&merged.Location, d.Location)
	set(&merged.Date, d.Date)
	set(&merged.Time, d.Time)
	set(&merged.SlotID, d.SlotID)
	if d.VisitPrice != nil {
		price := *d.VisitPrice
		merged.VisitPrice = &price
	}
	return &merged
}

// BookingStatus is the outcome of a confirmation attempt.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusConflict  BookingStatus = "conflict"
	BookingStatusFailed    BookingStatus = "failed"
)

// Booking is the resource returned by the scheduler after a successful booking.
type Booking struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	ProfessionalID  string    `json:"professional_id"`
	ClinicID        string    `json:"clinic_id,omitempty"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           *float64  `json:"price,omitempty"`
	Status          string    `json:"status,omitempty"`
}

// BookingAttempt is one row of the booking ledger.
type BookingAttempt struct {
	ID             string        `json:"id" db:"id"`
	PatientID      string        `json:"patient_id" db:"patient_id"`
	ProfessionalID string        `json:"professional_id" db:"professional_id"`
	ClinicID       string        `json:"clinic_id" db:"clinic_id"`
	SlotID         string        `json:"slot_id" db:"slot_id"`
	ScheduledAt    time.Time     `json:"scheduled_at" db:"scheduled_at"`
	Status         BookingStatus `json:"status" db:"status"`
	ExternalID     string        `json:"external_id" db:"external_id"`
	FailureReason  string        `json:"failure_reason" db:"failure_reason"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}
