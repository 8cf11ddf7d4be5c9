package repository

import (
	"context"
	"errors"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

// ErrLockContention is returned when a transaction could not acquire a row
// lock in time (lock timeout, deadlock or serialization failure). Callers
// may retry the whole transaction.
var ErrLockContention = errors.New("lock contention")

// Store runs units of work against the datastore.
type Store interface {
	// WithinTx runs fn inside one transaction. It commits when fn returns
	// nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Orders returns a non-transactional reader for queries.
	Orders() OrderReader
}

// Tx exposes transaction-scoped repositories.
type Tx interface {
	Carts() CartRepository
	Addresses() AddressRepository
	Products() ProductRepository
	Payments() PaymentRepository
	Orders() OrderRepository
}

// CartRepository handles persistence for Carts.
type CartRepository interface {
	// FindByEmailForUpdate loads the cart and its items, locking the cart row.
	FindByEmailForUpdate(ctx context.Context, email string) (*entity.Cart, error)
	// Clear removes every item from the cart.
	Clear(ctx context.Context, cartID int64) error
}

// AddressRepository handles lookups of Addresses.
type AddressRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Address, error)
}

// ProductRepository handles the inventory ledger.
type ProductRepository interface {
	// DecrementQuantity subtracts qty from the product's available quantity
	// and returns the new value. It does not clamp at zero.
	DecrementQuantity(ctx context.Context, productID int64, qty int) (int, error)
}

// PaymentRepository handles persistence for Payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	UpdateStatus(ctx context.Context, paymentID int64, status, responseMessage string) error
}

// OrderReader is the read side of the order store.
type OrderReader interface {
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	FindByIDAndEmail(ctx context.Context, id int64, email string) (*entity.Order, error)
	FindByEmail(ctx context.Context, email string) ([]entity.Order, error)
	FindAll(ctx context.Context) ([]entity.Order, error)
}

// OrderRepository handles persistence for Orders and their items.
type OrderRepository interface {
	OrderReader
	// FindByIDForUpdate loads the order with its payment and items, locking
	// the order row.
	FindByIDForUpdate(ctx context.Context, id int64) (*entity.Order, error)
	// Create inserts the order header. The payment must already be saved.
	Create(ctx context.Context, o *entity.Order) error
	// CreateItems inserts the items in order and sets their ids.
	CreateItems(ctx context.Context, orderID int64, items []entity.OrderItem) error
	UpdateStatus(ctx context.Context, orderID int64, status string) error
}
