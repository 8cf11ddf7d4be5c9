package memory

import (
	"fmt"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
)

// AddProduct stores p and returns its id.
func (s *Store) AddProduct(p entity.Product) int64 {
	var id int64
	s.mutate(func(st *state) {
		id = st.nextID()
		p.ID = id
		st.products[id] = p
	})
	return id
}

// AddAddress stores a and returns its id.
func (s *Store) AddAddress(a entity.Address) int64 {
	var id int64
	s.mutate(func(st *state) {
		id = st.nextID()
		a.ID = id
		st.addresses[id] = a
	})
	return id
}

// AddCartItem appends item to the cart for email, creating the cart if
// needed, and returns the cart id.
func (s *Store) AddCartItem(email string, item entity.CartItem) int64 {
	var cartID int64
	s.mutate(func(st *state) {
		cart, ok := st.carts[email]
		if !ok {
			cart = &entity.Cart{ID: st.nextID(), Email: email}
			st.carts[email] = cart
		}
		item.ID = st.nextID()
		cart.Items = append(cart.Items, item)
		cartID = cart.ID
	})
	return cartID
}

// EnsureCart creates an empty cart for email if there is none.
func (s *Store) EnsureCart(email string) int64 {
	var cartID int64
	s.mutate(func(st *state) {
		cart, ok := st.carts[email]
		if !ok {
			cart = &entity.Cart{ID: st.nextID(), Email: email}
			st.carts[email] = cart
		}
		cartID = cart.ID
	})
	return cartID
}

// Product returns a copy of the committed product.
func (s *Store) Product(id int64) (entity.Product, bool) {
	p, ok := s.snapshot().products[id]
	return p, ok
}

// Cart returns a copy of the committed cart for email.
func (s *Store) Cart(email string) (entity.Cart, bool) {
	cart, ok := s.snapshot().carts[email]
	if !ok {
		return entity.Cart{}, false
	}
	cp := *cart
	cp.Items = append([]entity.CartItem(nil), cart.Items...)
	return cp, true
}

// PaymentCount returns how many payments have been committed.
func (s *Store) PaymentCount() int {
	return len(s.snapshot().payments)
}

// Seed loads data and returns the address id. Cart item product ids are
// 1-based indexes into data.Products.
func (s *Store) Seed(data repository.DemoData) (int64, error) {
	ids := make([]int64, len(data.Products))
	for i, p := range data.Products {
		ids[i] = s.AddProduct(p)
	}
	addressID := s.AddAddress(data.Address)
	for _, item := range data.Items {
		idx := int(item.ProductID) - 1
		if idx < 0 || idx >= len(ids) {
			return 0, fmt.Errorf("cart item references unknown product %d", item.ProductID)
		}
		item.ProductID = ids[idx]
		s.AddCartItem(data.Email, item)
	}
	return addressID, nil
}

// mutate applies fn to a copy of the committed state and commits it,
// serialized with transactions.
func (s *Store) mutate(fn func(st *state)) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	work := s.snapshot().clone()
	fn(work)

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
}
