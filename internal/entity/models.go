package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the inventory side of a catalog entry. Only Quantity is
// touched by order placement.
type Product struct {
	ID           int64           `json:"product_id"`
	Name         string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	SpecialPrice decimal.Decimal `json:"special_price"`
}

// CartItem is a pending line in a customer's cart.
type CartItem struct {
	ID        int64           `json:"cart_item_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"product_price"`
	Discount  decimal.Decimal `json:"discount"`
}

// Subtotal is the unit price times quantity. UnitPrice is already the
// discounted price captured when the item was added.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds a customer's items in insertion order.
type Cart struct {
	ID    int64      `json:"cart_id"`
	Email string     `json:"email"`
	Items []CartItem `json:"cart_items"`
}

// TotalPrice is derived from the items at read time.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Address is the shipping address an order points at.
type Address struct {
	ID         int64  `json:"address_id"`
	Street     string `json:"street"`
	Building   string `json:"building_name"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"pincode"`
}

// Payment records how an order is settled. Status holds the raw gateway
// string, not the normalized PaymentStatus.
type Payment struct {
	ID                  int64   `json:"payment_id"`
	Method              string  `json:"payment_method"`
	GatewayName         string  `json:"pg_name"`
	ExternalReferenceID *string `json:"pg_payment_id"`
	Status              string  `json:"pg_status"`
	ResponseMessage     string  `json:"pg_response_message"`
}

// OrderItem is a price and quantity snapshot of a cart line, frozen at
// order time.
type OrderItem struct {
	ID               int64           `json:"order_item_id"`
	ProductID        int64           `json:"product_id"`
	Quantity         int             `json:"quantity"`
	Discount         decimal.Decimal `json:"discount"`
	OrderedUnitPrice decimal.Decimal `json:"ordered_product_price"`
}

// Order is a placed purchase. It owns its Payment and Items.
type Order struct {
	ID          int64           `json:"order_id"`
	Email       string          `json:"email"`
	OrderDate   time.Time       `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"order_status"`
	AddressID   int64           `json:"address_id"`
	Payment     Payment         `json:"payment"`
	Items       []OrderItem     `json:"order_items"`
}

// Clone returns a deep copy so callers can't mutate stored state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.Payment.ExternalReferenceID != nil {
		ref := *o.Payment.ExternalReferenceID
		c.Payment.ExternalReferenceID = &ref
	}
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

// Order status labels shown to customers.
const (
	StatusPendingCashPayment = "Pending Cash Payment"
	StatusOrderAccepted      = "Order Accepted !"
	StatusCompleted          = "Completada"
	StatusCancelled          = "Cancelada"
	StatusPending            = "La Orden está Pendiente !"
)

// Cash payments get fixed gateway values.
const (
	PaymentMethodCash   = "CASH"
	CashGatewayName     = "CASH"
	CashResponseMessage = "Pending cash payment"
)
