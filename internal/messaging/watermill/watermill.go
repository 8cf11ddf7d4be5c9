// Package watermill adapts watermill publishers and subscribers to the
// messaging interfaces. It backs both the in-process gochannel broker and
// the Sarama based Kafka broker.
package watermill

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	wm "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/messaging"
)

// keyMetadata carries the message key; the Kafka marshaler uses it as the
// partition key.
const keyMetadata = "partition_key"

// Broker wraps a watermill publisher/subscriber pair.
type Broker struct {
	pub message.Publisher
	sub message.Subscriber
	// shared is set when pub and sub are the same pubsub.
	shared bool
}

var (
	_ messaging.Publisher  = (*Broker)(nil)
	_ messaging.Subscriber = (*Broker)(nil)
)

// NewGoChannel returns an in-process broker.
func NewGoChannel(logger wm.LoggerAdapter) *Broker {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &Broker{pub: ps, sub: ps, shared: true}
}

// NewKafka returns a Kafka broker built on Sarama. Every subscription joins
// consumerGroup.
func NewKafka(brokers []string, consumerGroup string, logger wm.LoggerAdapter) (*Broker, error) {
	marshaler := kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		return msg.Metadata.Get(keyMetadata), nil
	})

	pubConfig := kafka.DefaultSaramaSyncPublisherConfig()
	pubConfig.Producer.RequiredAcks = sarama.WaitForAll
	pubConfig.Producer.Idempotent = true
	pubConfig.Net.MaxOpenRequests = 1

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             marshaler,
		OverwriteSaramaConfig: pubConfig,
		Tracer:                kafka.NewOTELSaramaTracer(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	// Callbacks published before the first start must not be skipped.
	subConfig := kafka.DefaultSaramaSubscriberConfig()
	subConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           marshaler,
		OverwriteSaramaConfig: subConfig,
		ConsumerGroup:         consumerGroup,
		Tracer:                kafka.NewOTELSaramaTracer(),
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &Broker{pub: pub, sub: sub}, nil
}

func (b *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set(keyMetadata, key)
	if typed, ok := event.(interface{ EventType() string }); ok {
		msg.Metadata.Set(messaging.HeaderEventType, typed.EventType())
	}
	msg.SetContext(ctx)

	if err := b.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Consume ignores groupID; the group is fixed when the broker is built.
// Messages are acked after the handler returns, even on failure.
func (b *Broker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	messages, err := b.sub.Subscribe(ctx, topic)
	if err != nil {
		slog.Error("Error subscribing", "topic", topic, "err", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Consumer shutting down", "topic", topic)
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := handler(ctx, msg.Payload); err != nil {
				slog.Error("Error handling message", "topic", topic, "message_uuid", msg.UUID, "err", err)
			}
			msg.Ack()
		}
	}
}

// Close closes the publisher and the subscriber.
func (b *Broker) Close() error {
	pubErr := b.pub.Close()
	if b.shared {
		return pubErr
	}
	subErr := b.sub.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
