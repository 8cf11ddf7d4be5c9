package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/messaging"
)

// Broker publishes and consumes JSON messages with segmentio/kafka-go.
// Writers are created per topic on first use and reused.
type Broker struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafkaGo.Writer
}

var (
	_ messaging.Publisher  = (*Broker)(nil)
	_ messaging.Subscriber = (*Broker)(nil)
)

// NewKafkaBroker creates a new Kafka publisher and subscriber.
func NewKafkaBroker(brokers []string) *Broker {
	return &Broker{brokers: brokers, writers: make(map[string]*kafkaGo.Writer)}
}

func (k *Broker) writer(topic string) *kafkaGo.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	w, ok := k.writers[topic]
	if !ok {
		w = &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(k.brokers...),
			Topic:    topic,
			Balancer: &kafkaGo.Hash{},
		}
		k.writers[topic] = w
	}
	return w
}

func (k *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	msg, err := newMessage(key, event)
	if err != nil {
		return err
	}
	return k.writer(topic).WriteMessages(ctx, msg)
}

// newMessage encodes event as JSON. Events that name their type carry it in
// the event_type header.
func newMessage(key string, event any) (kafkaGo.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafkaGo.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafkaGo.Message{
		Key:   []byte(key),
		Value: payload,
	}
	if typed, ok := event.(interface{ EventType() string }); ok {
		msg.Headers = append(msg.Headers, kafkaGo.Header{Key: messaging.HeaderEventType, Value: []byte(typed.EventType())})
	}
	return msg, nil
}

// Consume commits each message after the handler returns, even on failure.
// A message fetched when ctx is cancelled is handled before Consume returns.
func (k *Broker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Consumer shutting down", "topic", topic)
				return
			}
			slog.Error("Error reading message", "topic", topic, "err", err)
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			slog.Error("Error handling message", "topic", topic, "key", string(msg.Key), "err", err)
		}
		if groupID == "" {
			continue
		}
		if err := reader.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
			slog.Error("Error committing message", "topic", topic, "offset", msg.Offset, "err", err)
		}
	}
}

// Close flushes and closes every writer.
func (k *Broker) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var firstErr error
	for topic, w := range k.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close writer for %s: %w", topic, err)
		}
		delete(k.writers, topic)
	}
	return firstErr
}
