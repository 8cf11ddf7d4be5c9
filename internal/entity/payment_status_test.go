package entity

import "testing"

func TestNormalizePaymentStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want PaymentStatus
	}{
		{"succeeded", PaymentCompleted},
		{"completed", PaymentCompleted},
		{"Succeeded", PaymentCompleted},
		{"COMPLETED", PaymentCompleted},
		{"cancelled", PaymentCancelled},
		{"canceled", PaymentCancelled},
		{"CANCELED", PaymentCancelled},
		{"pending", PaymentPending},
		{"requires_action", PaymentPending},
		{"processing", PaymentPending},
		{" succeeded", PaymentPending},
		{"", PaymentPending},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got := NormalizePaymentStatus(tt.raw)
			if got != tt.want {
				t.Fatalf("NormalizePaymentStatus(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if again := NormalizePaymentStatus(got.String()); again != got {
				t.Fatalf("normalizing %q twice gave %v, want %v", tt.raw, again, got)
			}
		})
	}
}

func TestOrderStatusLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status PaymentStatus
		want   string
	}{
		{PaymentCompleted, "Completada"},
		{PaymentCancelled, "Cancelada"},
		{PaymentPending, "La Orden está Pendiente !"},
	}
	for _, tt := range tests {
		if got := tt.status.OrderStatusLabel(); got != tt.want {
			t.Errorf("%v.OrderStatusLabel() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
