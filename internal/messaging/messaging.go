package messaging

import (
	"context"
	"log/slog"
)

// Topics used by the order service.
const (
	TopicOrderPlaced          = "orders.placed"
	TopicPaymentStatusUpdated = "orders.payment_status_updated"
	TopicPaymentStatus        = "payments.status"
)

// HeaderEventType names the event carried by a message.
const HeaderEventType = "event_type"

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
// Consume blocks until ctx is cancelled.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error)
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	slog.DebugContext(ctx, "Messaging disabled, dropping event", "topic", topic, "key", key)
	return nil
}
