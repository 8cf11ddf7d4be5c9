package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

type productRepository struct {
	q querier
}

func (r *productRepository) DecrementQuantity(ctx context.Context, productID int64, qty int) (int, error) {
	var remaining int
	err := r.q.QueryRowContext(ctx,
		"UPDATE products SET quantity = quantity - $1 WHERE product_id = $2 RETURNING quantity",
		qty, productID,
	).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, entity.NewNotFound("Product", "productId", productID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update product quantity: %w", err)
	}
	return remaining, nil
}
