package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Store is a repository.Store backed by Postgres.
type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewStore wraps db. Each transaction waits at most lockTimeout for a row
// lock before failing with repository.ErrLockContention; zero keeps the
// server default.
func NewStore(db *sql.DB, lockTimeout time.Duration) *Store {
	return &Store{db: db, lockTimeout: lockTimeout}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	if err := fn(ctx, txRepos{q: tx}); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func (s *Store) Orders() repository.OrderReader {
	return &orderRepository{q: s.db}
}

type txRepos struct {
	q querier
}

func (t txRepos) Carts() repository.CartRepository       { return &cartRepository{q: t.q} }
func (t txRepos) Addresses() repository.AddressRepository { return &addressRepository{q: t.q} }
func (t txRepos) Products() repository.ProductRepository  { return &productRepository{q: t.q} }
func (t txRepos) Payments() repository.PaymentRepository  { return &paymentRepository{q: t.q} }
func (t txRepos) Orders() repository.OrderRepository      { return &orderRepository{q: t.q} }
