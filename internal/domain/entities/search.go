package entities

import "time"

// ProfessionalResult is one row of a search result set produced by the professional directory.
type ProfessionalResult struct {
	ProfessionalID string  `json:"professional_id" validate:"required"`
	Name           string  `json:"name"`
	Specialty      string  `json:"specialty,omitempty"`
	ClinicID       string  `json:"clinic_id,omitempty"`
	ClinicName     string  `json:"clinic_name,omitempty"`
	Location       string  `json:"location,omitempty"`
	Rating         float64 `json:"rating" validate:"gte=0,lte=5"`
	VisitPrice     float64 `json:"visit_price" validate:"gte=0"`
}

// AvailabilityFilterState is the set of filters applied over a result set.
// Zero values disable the corresponding filter. The date range applies only when both bounds are set.
type AvailabilityFilterState struct {
	MinPrice         float64 `json:"min_price" validate:"gte=0"`
	MaxPrice         float64 `json:"max_price" validate:"gte=0"`
	MinRating        float64 `json:"min_rating" validate:"gte=0,lte=5"`
	RequireAvailable bool    `json:"require_available"`
	DateFrom         string  `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo           string  `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// ResultPage is a paginated view over a filtered result set.
type ResultPage struct {
	Items      []ProfessionalResult `json:"items"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"total_pages"`
}

// SlotEvent is broadcast when a slot is booked so other search sessions can invalidate it.
type SlotEvent struct {
	ID             string    `json:"id"`
	ProfessionalID string    `json:"professional_id"`
	Date           string    `json:"date"`
	SlotID         string    `json:"slot_id,omitempty"`
	Time           string    `json:"time,omitempty"`
	OriginSession  string    `json:"origin_session,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
