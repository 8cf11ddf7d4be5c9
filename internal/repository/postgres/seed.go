package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
)

// Seed inserts data unless the products table already has rows.
func Seed(ctx context.Context, db *sql.DB, data repository.DemoData) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	productIDs := make([]int64, len(data.Products))
	for i, p := range data.Products {
		err := tx.QueryRowContext(ctx,
			"INSERT INTO products (product_name, quantity, price, discount, special_price) VALUES ($1, $2, $3, $4, $5) RETURNING product_id",
			p.Name, p.Quantity, p.Price, p.Discount, p.SpecialPrice,
		).Scan(&productIDs[i])
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
	}

	a := data.Address
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO addresses (street, building_name, city, state, country, pincode) VALUES ($1, $2, $3, $4, $5, $6)",
		a.Street, a.Building, a.City, a.State, a.Country, a.PostalCode,
	); err != nil {
		return fmt.Errorf("failed to seed address: %w", err)
	}

	var cartID int64
	if err := tx.QueryRowContext(ctx,
		"INSERT INTO carts (email) VALUES ($1) RETURNING cart_id", data.Email,
	).Scan(&cartID); err != nil {
		return fmt.Errorf("failed to seed cart: %w", err)
	}

	for _, item := range data.Items {
		idx := int(item.ProductID) - 1
		if idx < 0 || idx >= len(productIDs) {
			return fmt.Errorf("cart item references unknown product %d", item.ProductID)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cart_items (cart_id, product_id, quantity, product_price, discount) VALUES ($1, $2, $3, $4, $5)",
			cartID, productIDs[idx], item.Quantity, item.UnitPrice, item.Discount,
		); err != nil {
			return fmt.Errorf("failed to seed cart item: %w", err)
		}
	}

	return tx.Commit()
}
