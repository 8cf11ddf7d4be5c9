package http

import (
	"github.com/shopspring/decimal"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

const dateLayout = "2006-01-02"

type placeOrderRequest struct {
	AddressID         int64   `json:"address_id"`
	PGName            string  `json:"pg_name"`
	PGPaymentID       *string `json:"pg_payment_id"`
	PGStatus          string  `json:"pg_status"`
	PGResponseMessage string  `json:"pg_response_message"`
}

type updatePaymentStatusRequest struct {
	PGStatus          string `json:"pg_status"`
	PGResponseMessage string `json:"pg_response_message"`
}

// OrderDTO is the wire shape of an order.
type OrderDTO struct {
	OrderID     int64           `json:"order_id"`
	Email       string          `json:"email"`
	OrderItems  []OrderItemDTO  `json:"order_items"`
	OrderDate   string          `json:"order_date"`
	Payment     PaymentDTO      `json:"payment"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderStatus string          `json:"order_status"`
	AddressID   int64           `json:"address_id"`
}

type OrderItemDTO struct {
	OrderItemID         int64           `json:"order_item_id"`
	ProductID           int64           `json:"product_id"`
	Quantity            int             `json:"quantity"`
	Discount            decimal.Decimal `json:"discount"`
	OrderedProductPrice decimal.Decimal `json:"ordered_product_price"`
}

type PaymentDTO struct {
	PaymentID         int64   `json:"payment_id"`
	PaymentMethod     string  `json:"payment_method"`
	PGPaymentID       *string `json:"pg_payment_id"`
	PGStatus          string  `json:"pg_status"`
	PGResponseMessage string  `json:"pg_response_message"`
	PGName            string  `json:"pg_name"`
}

func toOrderDTO(o *entity.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			OrderItemID:         item.ID,
			ProductID:           item.ProductID,
			Quantity:            item.Quantity,
			Discount:            item.Discount,
			OrderedProductPrice: item.OrderedUnitPrice,
		})
	}
	payment := PaymentDTO{
		PaymentID:         o.Payment.ID,
		PaymentMethod:     o.Payment.Method,
		PGPaymentID:       o.Payment.ExternalReferenceID,
		PGStatus:          o.Payment.Status,
		PGResponseMessage: o.Payment.ResponseMessage,
		PGName:            o.Payment.GatewayName,
	}
	return OrderDTO{
		OrderID:     o.ID,
		Email:       o.Email,
		OrderItems:  items,
		OrderDate:   o.OrderDate.Format(dateLayout),
		Payment:     payment,
		TotalAmount: o.TotalAmount,
		OrderStatus: o.Status,
		AddressID:   o.AddressID,
	}
}

func toOrderDTOs(orders []entity.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderDTO(&orders[i]))
	}
	return out
}
