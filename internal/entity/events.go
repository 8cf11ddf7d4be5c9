package entity

import "time"

// Event represents a domain event published after a workflow commits.
type Event interface {
	EventType() string
}

// OrderPlaced is emitted when a cart has been converted into an order.
type OrderPlaced struct {
	OrderID       int64       `json:"order_id"`
	Email         string      `json:"email"`
	TotalAmount   string      `json:"total_amount"`
	Status        string      `json:"order_status"`
	PaymentMethod string      `json:"payment_method"`
	Items         []OrderItem `json:"order_items"`
	PlacedAt      time.Time   `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// NewOrderPlaced builds the event from a freshly placed order.
func NewOrderPlaced(o *Order, at time.Time) OrderPlaced {
	return OrderPlaced{
		OrderID:       o.ID,
		Email:         o.Email,
		TotalAmount:   o.TotalAmount.String(),
		Status:        o.Status,
		PaymentMethod: o.Payment.Method,
		Items:         o.Items,
		PlacedAt:      at,
	}
}

// PaymentStatusUpdated is emitted when a payment callback has been applied.
type PaymentStatusUpdated struct {
	OrderID         int64     `json:"order_id"`
	ReportedStatus  string    `json:"pg_status"`
	ResponseMessage string    `json:"pg_response_message"`
	OrderStatus     string    `json:"order_status"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (e PaymentStatusUpdated) EventType() string { return "PaymentStatusUpdated" }

// PaymentStatusCallback is the inbound gateway notification.
type PaymentStatusCallback struct {
	OrderID         int64  `json:"order_id"`
	Status          string `json:"pg_status"`
	ResponseMessage string `json:"pg_response_message"`
}
