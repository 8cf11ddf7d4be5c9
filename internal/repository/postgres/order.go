package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

type orderRepository struct {
	q querier
}

const selectOrder = `
	SELECT o.order_id, o.email, o.order_date, o.total_amount, o.order_status, o.address_id,
	       p.payment_id, p.payment_method, p.pg_name, p.pg_payment_id, p.pg_status, p.pg_response_message
	FROM orders o
	JOIN payments p ON p.payment_id = o.payment_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o   entity.Order
		ref sql.NullString
	)
	err := row.Scan(
		&o.ID, &o.Email, &o.OrderDate, &o.TotalAmount, &o.Status, &o.AddressID,
		&o.Payment.ID, &o.Payment.Method, &o.Payment.GatewayName, &ref, &o.Payment.Status, &o.Payment.ResponseMessage,
	)
	if err != nil {
		return nil, err
	}
	if ref.Valid {
		o.Payment.ExternalReferenceID = &ref.String
	}
	return &o, nil
}

func (r *orderRepository) findOne(ctx context.Context, query string, notFound error, args ...any) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	return r.findOne(ctx, selectOrder+" WHERE o.order_id = $1",
		entity.NewNotFound("Order", "orderId", id), id)
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Order, error) {
	return r.findOne(ctx, selectOrder+" WHERE o.order_id = $1 FOR UPDATE",
		entity.NewNotFound("Order", "orderId", id), id)
}

func (r *orderRepository) FindByIDAndEmail(ctx context.Context, id int64, email string) (*entity.Order, error) {
	return r.findOne(ctx, selectOrder+" WHERE o.order_id = $1 AND o.email = $2",
		entity.NewNotFound("Order", "orderId", id), id, email)
}

func (r *orderRepository) FindByEmail(ctx context.Context, email string) ([]entity.Order, error) {
	return r.findMany(ctx, selectOrder+" WHERE o.email = $1 ORDER BY o.order_id", email)
}

func (r *orderRepository) FindAll(ctx context.Context) ([]entity.Order, error) {
	return r.findMany(ctx, selectOrder+" ORDER BY o.order_id")
}

func (r *orderRepository) findMany(ctx context.Context, query string, args ...any) ([]entity.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	rows.Close()

	// Fetch items for each order
	for i := range orders {
		if orders[i].Items, err = r.loadItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID int64) ([]entity.OrderItem, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT order_item_id, product_id, quantity, discount, ordered_product_price FROM order_items WHERE order_id = $1 ORDER BY order_item_id",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []entity.OrderItem{}
	for rows.Next() {
		var item entity.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Discount, &item.OrderedUnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}
	return items, nil
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO orders (email, order_date, total_amount, order_status, address_id, payment_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING order_id`,
		o.Email, o.OrderDate, o.TotalAmount, o.Status, o.AddressID, o.Payment.ID,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) CreateItems(ctx context.Context, orderID int64, items []entity.OrderItem) error {
	stmt, err := r.q.PrepareContext(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, discount, ordered_product_price)
		 VALUES ($1, $2, $3, $4, $5) RETURNING order_item_id`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare order item insert: %w", err)
	}
	defer stmt.Close()

	for i := range items {
		item := &items[i]
		if err := stmt.QueryRowContext(ctx,
			orderID, item.ProductID, item.Quantity, item.Discount, item.OrderedUnitPrice,
		).Scan(&item.ID); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE orders SET order_status = $1 WHERE order_id = $2",
		status, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.NewNotFound("Order", "orderId", orderID)
	}
	return nil
}
