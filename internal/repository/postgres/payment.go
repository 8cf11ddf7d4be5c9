package postgres

import (
	"context"
	"fmt"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

type paymentRepository struct {
	q querier
}

func (r *paymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO payments (payment_method, pg_name, pg_payment_id, pg_status, pg_response_message)
		 VALUES ($1, $2, $3, $4, $5) RETURNING payment_id`,
		p.Method, p.GatewayName, p.ExternalReferenceID, p.Status, p.ResponseMessage,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, paymentID int64, status, responseMessage string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE payments SET pg_status = $1, pg_response_message = $2 WHERE payment_id = $3",
		status, responseMessage, paymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.NewNotFound("Payment", "paymentId", paymentID)
	}
	return nil
}
