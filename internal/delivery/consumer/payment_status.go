package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/messaging"
)

// PaymentStatusUpdater applies a gateway status report to an order.
type PaymentStatusUpdater interface {
	UpdatePaymentStatus(ctx context.Context, orderID int64, reportedStatus, responseMessage string) (*entity.Order, error)
}

// PaymentStatusHandler handles gateway callbacks from the payments.status topic.
type PaymentStatusHandler struct {
	orders PaymentStatusUpdater
}

func NewPaymentStatusHandler(orders PaymentStatusUpdater) *PaymentStatusHandler {
	return &PaymentStatusHandler{orders: orders}
}

func (h *PaymentStatusHandler) HandlerName() string {
	return "PaymentStatusHandler"
}

// Handle decodes one callback and applies it. Callbacks for unknown orders
// are logged and dropped; redelivering them can't succeed.
func (h *PaymentStatusHandler) Handle(ctx context.Context, payload []byte) error {
	var cb entity.PaymentStatusCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return fmt.Errorf("failed to unmarshal payment status callback: %w", err)
	}
	if cb.OrderID <= 0 {
		return errors.New("payment status callback without order_id")
	}
	if strings.TrimSpace(cb.Status) == "" {
		return fmt.Errorf("payment status callback for order %d without pg_status", cb.OrderID)
	}

	slog.InfoContext(ctx, "Handling payment status callback", "order_id", cb.OrderID, "pg_status", cb.Status)

	order, err := h.orders.UpdatePaymentStatus(ctx, cb.OrderID, cb.Status, cb.ResponseMessage)
	if errors.Is(err, entity.ErrNotFound) {
		slog.WarnContext(ctx, "Dropping payment status for unknown order", "order_id", cb.OrderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply payment status for order %d: %w", cb.OrderID, err)
	}

	slog.InfoContext(ctx, "Payment status applied", "order_id", order.ID, "order_status", order.Status)
	return nil
}

// Run consumes payment callbacks until ctx is cancelled. A callback already
// being handled when ctx is cancelled runs to completion; Run returns after it.
func (h *PaymentStatusHandler) Run(ctx context.Context, sub messaging.Subscriber, groupID string) {
	slog.Info("Consumer started", "handler", h.HandlerName(), "topic", messaging.TopicPaymentStatus, "group", groupID)
	sub.Consume(ctx, messaging.TopicPaymentStatus, groupID, func(ctx context.Context, payload []byte) error {
		return h.Handle(context.WithoutCancel(ctx), payload)
	})
	slog.Info("Consumer stopped", "handler", h.HandlerName())
}

// Start runs Run in a goroutine. The returned channel is closed once Run
// has returned.
func (h *PaymentStatusHandler) Start(ctx context.Context, sub messaging.Subscriber, groupID string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx, sub, groupID)
	}()
	return done
}
