package services

import (
	"context"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
	"github.com/zatekoja/clinicavailability/internal/infrastructure/observability"
)

// OptimisticSlotInvalidator flips a booked slot to unavailable in a session cache
// without waiting for a refetch.
type OptimisticSlotInvalidator struct {
	cache   *AvailabilityCache
	metrics *observability.Metrics
}

// NewOptimisticSlotInvalidator creates an invalidator over cache. metrics may be nil.
func NewOptimisticSlotInvalidator(cache *AvailabilityCache, metrics *observability.Metrics) *OptimisticSlotInvalidator {
	return &OptimisticSlotInvalidator{cache: cache, metrics: metrics}
}

// OnBookingConfirmed marks the draft's slot unavailable. Slot id wins over wall-clock time.
// It reports whether a cached slot changed; drafts for uncached professionals or days are a no-op.
func (i *OptimisticSlotInvalidator) OnBookingConfirmed(ctx context.Context, draft *entities.BookingDraft) bool {
	if !draft.HasSlot() {
		return false
	}
	applied := i.cache.InvalidateSlot(draft.ProfessionalID, draft.Date, draft.Matcher())
	observability.RecordSlotInvalidation(ctx, i.metrics, "invalidate", applied)
	return applied
}

// Rollback re-marks the draft's slot available after a failed confirmation.
func (i *OptimisticSlotInvalidator) Rollback(ctx context.Context, draft *entities.BookingDraft) bool {
	if !draft.HasSlot() {
		return false
	}
	applied := i.cache.RestoreSlot(draft.ProfessionalID, draft.Date, draft.Matcher())
	observability.RecordSlotInvalidation(ctx, i.metrics, "restore", applied)
	return applied
}

// ApplyEvent invalidates a slot booked through another session.
func (i *OptimisticSlotInvalidator) ApplyEvent(ctx context.Context, event *entities.SlotEvent) bool {
	if event == nil || event.ProfessionalID == "" || event.Date == "" {
		return false
	}
	matcher := entities.SlotMatcher{ID: event.SlotID, Time: event.Time}
	applied := i.cache.InvalidateSlot(event.ProfessionalID, event.Date, matcher)
	observability.RecordSlotInvalidation(ctx, i.metrics, "event", applied)
	return applied
}
