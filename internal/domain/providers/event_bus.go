package providers

import (
	"context"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to slot events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SlotEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SlotEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelSlotBookings carries a SlotEvent for every confirmed booking.
const EventChannelSlotBookings = "slot-bookings"
