package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Supported database/sql driver names.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// InitDB opens a pool with the given driver and pings it.
func InitDB(ctx context.Context, driver, dsn string, opts Options) (*sql.DB, error) {
	switch driver {
	case DriverPQ, DriverPGX:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "driver", driver)
	return db, nil
}

// Migrate creates the storefront tables if they don't exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("Database migrated")
	return nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS products (
		product_id BIGSERIAL PRIMARY KEY,
		product_name TEXT NOT NULL,
		quantity INT NOT NULL DEFAULT 0,
		price NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount NUMERIC(5,2) NOT NULL DEFAULT 0,
		special_price NUMERIC(12,2) NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS addresses (
		address_id BIGSERIAL PRIMARY KEY,
		street TEXT NOT NULL DEFAULT '',
		building_name TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		pincode TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS carts (
		cart_id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS cart_items (
		cart_item_id BIGSERIAL PRIMARY KEY,
		cart_id BIGINT NOT NULL REFERENCES carts(cart_id),
		product_id BIGINT NOT NULL REFERENCES products(product_id),
		quantity INT NOT NULL,
		product_price NUMERIC(12,2) NOT NULL,
		discount NUMERIC(5,2) NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS payments (
		payment_id BIGSERIAL PRIMARY KEY,
		payment_method TEXT NOT NULL,
		pg_name TEXT NOT NULL DEFAULT '',
		pg_payment_id TEXT,
		pg_status TEXT NOT NULL DEFAULT '',
		pg_response_message TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS orders (
		order_id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL,
		order_date DATE NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		order_status TEXT NOT NULL,
		address_id BIGINT NOT NULL REFERENCES addresses(address_id),
		payment_id BIGINT NOT NULL UNIQUE REFERENCES payments(payment_id)
	);

	CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(email);

	CREATE TABLE IF NOT EXISTS order_items (
		order_item_id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(order_id),
		product_id BIGINT NOT NULL REFERENCES products(product_id),
		quantity INT NOT NULL,
		discount NUMERIC(5,2) NOT NULL DEFAULT 0,
		ordered_product_price NUMERIC(12,2) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
`
