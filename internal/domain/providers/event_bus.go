package providers

import (
	"context"

	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to schedule events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ScheduleEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ScheduleEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelScheduleUpdates is the channel for all schedule changes
	EventChannelScheduleUpdates = "schedule:updates"

	// EventChannelResourcePrefix is the prefix for resource-specific channels
	EventChannelResourcePrefix = "resource:"
)

// GetResourceChannel returns the channel name for a specific resource
func GetResourceChannel(resourceID string) string {
	return EventChannelResourcePrefix + resourceID
}
