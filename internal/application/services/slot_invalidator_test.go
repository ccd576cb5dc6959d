package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/clinicavailability/internal/application/services"
	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

func TestOptimisticSlotInvalidator(t *testing.T) {
	ctx := context.Background()

	setup := func() (*services.AvailabilityCache, *services.OptimisticSlotInvalidator) {
		cache := services.NewAvailabilityCache()
		cache.Merge(map[string]*entities.ProfessionalAvailability{"p1": twoSlotDay()})
		return cache, services.NewOptimisticSlotInvalidator(cache, nil)
	}

	t.Run("invalidates the confirmed slot and nothing else", func(t *testing.T) {
		cache, invalidator := setup()

		applied := invalidator.OnBookingConfirmed(ctx, &entities.BookingDraft{
			ProfessionalID: "p1", Date: "2024-06-10", Time: "10:00", SlotID: "s1",
		})

		assert.True(t, applied)
		got, _ := cache.Get("p1")
		assert.False(t, got.Days[0].Slots[0].Available)
		assert.True(t, got.Days[0].Slots[1].Available)
	})

	t.Run("ignores drafts without a slot", func(t *testing.T) {
		cache, invalidator := setup()

		assert.False(t, invalidator.OnBookingConfirmed(ctx, &entities.BookingDraft{ProfessionalID: "p1"}))
		assert.False(t, invalidator.OnBookingConfirmed(ctx, nil))

		got, _ := cache.Get("p1")
		assert.Equal(t, twoSlotDay(), got)
	})

	t.Run("rollback restores the slot", func(t *testing.T) {
		cache, invalidator := setup()
		draft := &entities.BookingDraft{ProfessionalID: "p1", Date: "2024-06-10", SlotID: "s2"}

		invalidator.OnBookingConfirmed(ctx, draft)
		assert.True(t, invalidator.Rollback(ctx, draft))

		got, _ := cache.Get("p1")
		assert.Equal(t, twoSlotDay(), got)
	})

	t.Run("applies slot events from other sessions", func(t *testing.T) {
		cache, invalidator := setup()

		assert.True(t, invalidator.ApplyEvent(ctx, &entities.SlotEvent{ProfessionalID: "p1", Date: "2024-06-10", Time: "10:00"}))
		assert.False(t, invalidator.ApplyEvent(ctx, &entities.SlotEvent{}))

		got, _ := cache.Get("p1")
		assert.False(t, got.Days[0].Slots[1].Available)
	})
}
