package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

type cartRepository struct {
	q querier
}

func (r *cartRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.Cart, error) {
	cart := &entity.Cart{}
	err := r.q.QueryRowContext(ctx,
		"SELECT cart_id, email FROM carts WHERE email = $1 FOR UPDATE",
		email,
	).Scan(&cart.ID, &cart.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("Cart", "email", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}

	rows, err := r.q.QueryContext(ctx,
		"SELECT cart_item_id, product_id, quantity, product_price, discount FROM cart_items WHERE cart_id = $1 ORDER BY cart_item_id",
		cart.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.CartItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Discount); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cart items: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID int64) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
