package entity

import "strings"

// PaymentStatus is the normalized form of a gateway status string.
type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentCompleted
	PaymentCancelled
)

// String returns the raw value stored for the status.
func (s PaymentStatus) String() string {
	switch s {
	case PaymentCompleted:
		return "succeeded"
	case PaymentCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// NormalizePaymentStatus maps a free-text gateway status to a PaymentStatus.
// Unknown and empty input is Pending; it never fails.
func NormalizePaymentStatus(raw string) PaymentStatus {
	switch strings.ToLower(raw) {
	case "succeeded", "completed":
		return PaymentCompleted
	case "cancelled", "canceled":
		return PaymentCancelled
	default:
		return PaymentPending
	}
}

// OrderStatusLabel is the order label a payment status moves the order to.
func (s PaymentStatus) OrderStatusLabel() string {
	switch s {
	case PaymentCompleted:
		return StatusCompleted
	case PaymentCancelled:
		return StatusCancelled
	default:
		return StatusPending
	}
}
