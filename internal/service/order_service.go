package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/cache"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/messaging"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/metrics"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
)

const (
	useCasePlaceOrder          = "place_order"
	useCaseUpdatePaymentStatus = "update_payment_status"
	useCaseListCustomerOrders  = "list_customer_orders"
	useCaseGetCustomerOrder    = "get_customer_order"
	useCaseListAllOrders       = "list_all_orders"
	useCaseGetOrder            = "get_order"
)

var tracer = otel.Tracer("github.com/egannguyen/go-kafka-ecommerce/order-service/internal/service")

// PlaceOrderInput carries the checkout request. The gateway fields are
// ignored for cash payments.
type PlaceOrderInput struct {
	Email                  string
	AddressID              int64
	PaymentMethod          string
	GatewayName            string
	ExternalReferenceID    *string
	GatewayStatus          string
	GatewayResponseMessage string
}

// OrderService orchestrates order placement, payment status updates and
// order queries.
type OrderService struct {
	store     repository.Store
	publisher messaging.Publisher
	cache     cache.Cache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	retry     RetryPolicy
	now       func() time.Time
}

type Option func(*OrderService)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *OrderService) { s.retry = p }
}

// WithCache enables read-through caching of single order views.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *OrderService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *OrderService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(store repository.Store, publisher messaging.Publisher, opts ...Option) *OrderService {
	s := &OrderService{
		store:     store,
		publisher: publisher,
		cache:     cache.Nop{},
		retry:     DefaultRetryPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = messaging.NopPublisher{}
	}
	return s
}

// PlaceOrder converts the customer's cart into an order with its payment
// and items, decrements inventory and clears the cart in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (order *entity.Order, err error) {
	ctx, done := s.begin(ctx, useCasePlaceOrder,
		attribute.String("order.email", in.Email),
		attribute.Int64("order.address_id", in.AddressID),
		attribute.String("payment.method", in.PaymentMethod),
	)
	defer func() { done(err) }()

	slog.InfoContext(ctx, "Service: Placing order", "email", in.Email, "address_id", in.AddressID, "payment_method", in.PaymentMethod)

	err = s.retry.Do(ctx, s.onRetry(useCasePlaceOrder), func(ctx context.Context) error {
		o, err := s.placeOrderTx(ctx, in)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.TopicOrderPlaced, order.ID, entity.NewOrderPlaced(order, s.now()))
	slog.InfoContext(ctx, "Order placed", "order_id", order.ID, "status", order.Status, "items", len(order.Items))
	return order, nil
}

func (s *OrderService) placeOrderTx(ctx context.Context, in PlaceOrderInput) (*entity.Order, error) {
	var order *entity.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cart, err := tx.Carts().FindByEmailForUpdate(ctx, in.Email)
		if err != nil {
			return err
		}
		if _, err := tx.Addresses().FindByID(ctx, in.AddressID); err != nil {
			return err
		}
		if cart.IsEmpty() {
			return entity.NewInvalidState("cart empty")
		}

		payment, status := newPayment(in)
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}

		o := &entity.Order{
			Email:       in.Email,
			OrderDate:   dateOf(s.now()),
			TotalAmount: cart.TotalPrice(),
			Status:      status,
			AddressID:   in.AddressID,
			Payment:     *payment,
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}

		items := make([]entity.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			items = append(items, entity.OrderItem{
				ProductID:        item.ProductID,
				Quantity:         item.Quantity,
				Discount:         item.Discount,
				OrderedUnitPrice: item.UnitPrice,
			})
		}
		if err := tx.Orders().CreateItems(ctx, o.ID, items); err != nil {
			return err
		}
		o.Items = items

		for _, item := range cart.Items {
			remaining, err := tx.Products().DecrementQuantity(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if remaining < 0 {
				slog.WarnContext(ctx, "Inventory went negative", "product_id", item.ProductID, "quantity", remaining, "order_id", o.ID)
			}
		}

		if err := tx.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// newPayment returns the payment to record and the initial order label.
func newPayment(in PlaceOrderInput) (*entity.Payment, string) {
	if strings.EqualFold(in.PaymentMethod, entity.PaymentMethodCash) {
		return &entity.Payment{
			Method:          in.PaymentMethod,
			GatewayName:     entity.CashGatewayName,
			Status:          entity.PaymentPending.String(),
			ResponseMessage: entity.CashResponseMessage,
		}, entity.StatusPendingCashPayment
	}
	return &entity.Payment{
		Method:              in.PaymentMethod,
		GatewayName:         in.GatewayName,
		ExternalReferenceID: in.ExternalReferenceID,
		Status:              in.GatewayStatus,
		ResponseMessage:     in.GatewayResponseMessage,
	}, entity.StatusOrderAccepted
}

// UpdatePaymentStatus applies a gateway status report to an order. The raw
// status is stored on the payment; its normalized form picks the order
// label. Any status may follow any other.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID int64, reportedStatus, responseMessage string) (order *entity.Order, err error) {
	ctx, done := s.begin(ctx, useCaseUpdatePaymentStatus,
		attribute.Int64("order.id", orderID),
		attribute.String("payment.reported_status", reportedStatus),
	)
	defer func() { done(err) }()

	slog.InfoContext(ctx, "Service: Updating payment status", "order_id", orderID, "pg_status", reportedStatus)

	err = s.retry.Do(ctx, s.onRetry(useCaseUpdatePaymentStatus), func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			o, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
			if err != nil {
				return err
			}

			label := entity.NormalizePaymentStatus(reportedStatus).OrderStatusLabel()
			if err := tx.Payments().UpdateStatus(ctx, o.Payment.ID, reportedStatus, responseMessage); err != nil {
				return err
			}
			if err := tx.Orders().UpdateStatus(ctx, o.ID, label); err != nil {
				return err
			}

			o.Payment.Status = reportedStatus
			o.Payment.ResponseMessage = responseMessage
			o.Status = label
			order = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.refreshCachedOrder(ctx, order)

	s.publish(ctx, messaging.TopicPaymentStatusUpdated, order.ID, entity.PaymentStatusUpdated{
		OrderID:         order.ID,
		ReportedStatus:  reportedStatus,
		ResponseMessage: responseMessage,
		OrderStatus:     order.Status,
		UpdatedAt:       s.now(),
	})
	slog.InfoContext(ctx, "Payment status updated", "order_id", order.ID, "order_status", order.Status)
	return order, nil
}

// ListOrdersForCustomer returns the customer's orders by ascending id.
func (s *OrderService) ListOrdersForCustomer(ctx context.Context, email string) (orders []entity.Order, err error) {
	ctx, done := s.begin(ctx, useCaseListCustomerOrders, attribute.String("order.email", email))
	defer func() { done(err) }()

	return s.store.Orders().FindByEmail(ctx, email)
}

// GetOrderForCustomer returns the order only if it belongs to email.
func (s *OrderService) GetOrderForCustomer(ctx context.Context, orderID int64, email string) (order *entity.Order, err error) {
	ctx, done := s.begin(ctx, useCaseGetCustomerOrder,
		attribute.Int64("order.id", orderID),
		attribute.String("order.email", email),
	)
	defer func() { done(err) }()

	if cached, ok := s.cachedOrder(ctx, orderID); ok {
		if cached.Email != email {
			return nil, entity.NewNotFound("Order", "orderId", orderID)
		}
		return cached, nil
	}

	order, err = s.store.Orders().FindByIDAndEmail(ctx, orderID, email)
	if err != nil {
		return nil, err
	}
	s.cacheOrder(ctx, order)
	return order, nil
}

// ListAllOrders returns every order by ascending id.
func (s *OrderService) ListAllOrders(ctx context.Context) (orders []entity.Order, err error) {
	ctx, done := s.begin(ctx, useCaseListAllOrders)
	defer func() { done(err) }()

	return s.store.Orders().FindAll(ctx)
}

// GetOrder returns any order by id.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (order *entity.Order, err error) {
	ctx, done := s.begin(ctx, useCaseGetOrder, attribute.Int64("order.id", orderID))
	defer func() { done(err) }()

	if cached, ok := s.cachedOrder(ctx, orderID); ok {
		return cached, nil
	}

	order, err = s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.cacheOrder(ctx, order)
	return order, nil
}

func (s *OrderService) orderKey(orderID int64) string {
	return s.cache.GenerateKey("order", strconv.FormatInt(orderID, 10))
}

func (s *OrderService) cachedOrder(ctx context.Context, orderID int64) (*entity.Order, bool) {
	raw, err := s.cache.Get(ctx, s.orderKey(orderID))
	if err != nil {
		slog.WarnContext(ctx, "Order cache read failed", "order_id", orderID, "err", err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var o entity.Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		slog.WarnContext(ctx, "Discarding undecodable cached order", "order_id", orderID, "err", err)
		return nil, false
	}
	return &o, true
}

// cacheOrder fills a missing entry after a store read. It never replaces an
// existing entry, which may hold a newer committed state than o.
func (s *OrderService) cacheOrder(ctx context.Context, o *entity.Order) {
	payload, err := json.Marshal(o)
	if err != nil {
		return
	}
	if _, err := s.cache.SetNX(ctx, s.orderKey(o.ID), payload, s.cacheTTL); err != nil {
		slog.WarnContext(ctx, "Order cache write failed", "order_id", o.ID, "err", err)
	}
}

// refreshCachedOrder overwrites the entry with a just-committed order. If
// that fails the entry is dropped so readers go back to the store.
func (s *OrderService) refreshCachedOrder(ctx context.Context, o *entity.Order) {
	key := s.orderKey(o.ID)
	payload, err := json.Marshal(o)
	if err == nil {
		err = s.cache.Set(ctx, key, payload, s.cacheTTL)
	}
	if err == nil {
		return
	}
	slog.WarnContext(ctx, "Order cache refresh failed", "order_id", o.ID, "err", err)
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate cached order", "order_id", o.ID, "err", err)
	}
}

// publish is best effort; the workflow has already committed.
func (s *OrderService) publish(ctx context.Context, topic string, orderID int64, event entity.Event) {
	if err := s.publisher.PublishEvent(ctx, topic, strconv.FormatInt(orderID, 10), event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "topic", topic, "event", event.EventType(), "order_id", orderID, "err", err)
	}
}

func (s *OrderService) onRetry(useCase string) func(int, error) {
	return func(int, error) { s.metrics.IncRetry(useCase) }
}

// begin starts a span and returns a func that ends it and records metrics.
func (s *OrderService) begin(ctx context.Context, useCase string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := tracer.Start(ctx, "OrderService."+useCase, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		outcome := outcomeOf(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		s.metrics.ObserveUseCase(useCase, outcome, time.Since(start))
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entity.ErrNotFound):
		return "not_found"
	case errors.Is(err, entity.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrRetriesExhausted):
		return "retries_exhausted"
	default:
		return "error"
	}
}

// dateOf truncates t to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
