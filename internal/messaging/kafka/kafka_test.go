package kafka

import (
	"encoding/json"
	"testing"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/messaging"
)

func TestNewMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		event      any
		wantHeader string
	}{
		{"typed event", entity.PaymentStatusUpdated{OrderID: 9, OrderStatus: entity.StatusCompleted}, "PaymentStatusUpdated"},
		{"plain value", map[string]int{"order_id": 9}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg, err := newMessage("9", tt.event)
			if err != nil {
				t.Fatalf("newMessage() error = %v", err)
			}
			if string(msg.Key) != "9" {
				t.Errorf("key = %q, want 9", msg.Key)
			}

			var decoded map[string]any
			if err := json.Unmarshal(msg.Value, &decoded); err != nil || decoded["order_id"] != float64(9) {
				t.Errorf("value = %s (%v)", msg.Value, err)
			}

			var got string
			for _, h := range msg.Headers {
				if h.Key == messaging.HeaderEventType {
					got = string(h.Value)
				}
			}
			if got != tt.wantHeader {
				t.Errorf("event_type header = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

func TestNewMessageRejectsUnencodableEvent(t *testing.T) {
	t.Parallel()

	if _, err := newMessage("1", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestWriterIsReusedPerTopic(t *testing.T) {
	t.Parallel()

	b := NewKafkaBroker([]string{"localhost:9092"})
	first := b.writer(messaging.TopicOrderPlaced)
	if b.writer(messaging.TopicOrderPlaced) != first {
		t.Error("writer not reused for the same topic")
	}
	if b.writer(messaging.TopicPaymentStatusUpdated) == first {
		t.Error("topics share a writer")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(b.writers) != 0 {
		t.Errorf("writers left after Close: %d", len(b.writers))
	}
}
