// Package memory is an in-process repository.Store. Transactions are
// serialized and work on a private copy of the data that replaces the
// committed copy only when the unit of work succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
)

type state struct {
	products  map[int64]entity.Product
	addresses map[int64]entity.Address
	carts     map[string]*entity.Cart
	payments  map[int64]entity.Payment
	orders    map[int64]*entity.Order
	lastID    int64
}

func newState() *state {
	return &state{
		products:  make(map[int64]entity.Product),
		addresses: make(map[int64]entity.Address),
		carts:     make(map[string]*entity.Cart),
		payments:  make(map[int64]entity.Payment),
		orders:    make(map[int64]*entity.Order),
	}
}

func (s *state) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *state) clone() *state {
	c := newState()
	c.lastID = s.lastID
	for id, p := range s.products {
		c.products[id] = p
	}
	for id, a := range s.addresses {
		c.addresses[id] = a
	}
	for email, cart := range s.carts {
		cp := *cart
		cp.Items = append([]entity.CartItem(nil), cart.Items...)
		c.carts[email] = &cp
	}
	for id, p := range s.payments {
		if p.ExternalReferenceID != nil {
			ref := *p.ExternalReferenceID
			p.ExternalReferenceID = &ref
		}
		c.payments[id] = p
	}
	for id, o := range s.orders {
		c.orders[id] = o.Clone()
	}
	return c
}

// Store is a repository.Store held in memory.
type Store struct {
	txMu sync.Mutex

	mu sync.RWMutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.snapshot().clone()
	if err := fn(ctx, txRepos{st: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

func (s *Store) Orders() repository.OrderReader {
	return &orderRepository{st: s.snapshot()}
}

type txRepos struct {
	st *state
}

func (t txRepos) Carts() repository.CartRepository       { return &cartRepository{st: t.st} }
func (t txRepos) Addresses() repository.AddressRepository { return &addressRepository{st: t.st} }
func (t txRepos) Products() repository.ProductRepository  { return &productRepository{st: t.st} }
func (t txRepos) Payments() repository.PaymentRepository  { return &paymentRepository{st: t.st} }
func (t txRepos) Orders() repository.OrderRepository      { return &orderRepository{st: t.st} }
