package memory

import (
	"context"
	"sort"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
)

type cartRepository struct {
	st *state
}

func (r *cartRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.Cart, error) {
	cart, ok := r.st.carts[email]
	if !ok {
		return nil, entity.NewNotFound("Cart", "email", email)
	}
	cp := *cart
	cp.Items = append([]entity.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID int64) error {
	for _, cart := range r.st.carts {
		if cart.ID == cartID {
			cart.Items = nil
			return nil
		}
	}
	return entity.NewNotFound("Cart", "cartId", cartID)
}

type addressRepository struct {
	st *state
}

func (r *addressRepository) FindByID(ctx context.Context, id int64) (*entity.Address, error) {
	a, ok := r.st.addresses[id]
	if !ok {
		return nil, entity.NewNotFound("Address", "addressId", id)
	}
	return &a, nil
}

type productRepository struct {
	st *state
}

func (r *productRepository) DecrementQuantity(ctx context.Context, productID int64, qty int) (int, error) {
	p, ok := r.st.products[productID]
	if !ok {
		return 0, entity.NewNotFound("Product", "productId", productID)
	}
	p.Quantity -= qty
	r.st.products[productID] = p
	return p.Quantity, nil
}

type paymentRepository struct {
	st *state
}

func (r *paymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	p.ID = r.st.nextID()
	stored := *p
	if p.ExternalReferenceID != nil {
		ref := *p.ExternalReferenceID
		stored.ExternalReferenceID = &ref
	}
	r.st.payments[p.ID] = stored
	return nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, paymentID int64, status, responseMessage string) error {
	p, ok := r.st.payments[paymentID]
	if !ok {
		return entity.NewNotFound("Payment", "paymentId", paymentID)
	}
	p.Status = status
	p.ResponseMessage = responseMessage
	r.st.payments[paymentID] = p
	return nil
}

type orderRepository struct {
	st *state
}

// load joins the stored order with its current payment row.
func (r *orderRepository) load(o *entity.Order) *entity.Order {
	c := o.Clone()
	if p, ok := r.st.payments[o.Payment.ID]; ok {
		c.Payment = p
		if p.ExternalReferenceID != nil {
			ref := *p.ExternalReferenceID
			c.Payment.ExternalReferenceID = &ref
		}
	}
	return c
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, entity.NewNotFound("Order", "orderId", id)
	}
	return r.load(o), nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepository) FindByIDAndEmail(ctx context.Context, id int64, email string) (*entity.Order, error) {
	o, ok := r.st.orders[id]
	if !ok || o.Email != email {
		return nil, entity.NewNotFound("Order", "orderId", id)
	}
	return r.load(o), nil
}

func (r *orderRepository) FindByEmail(ctx context.Context, email string) ([]entity.Order, error) {
	return r.filter(func(o *entity.Order) bool { return o.Email == email }), nil
}

func (r *orderRepository) FindAll(ctx context.Context) ([]entity.Order, error) {
	return r.filter(func(*entity.Order) bool { return true }), nil
}

func (r *orderRepository) filter(keep func(*entity.Order) bool) []entity.Order {
	orders := []entity.Order{}
	for _, o := range r.st.orders {
		if keep(o) {
			orders = append(orders, *r.load(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	o.ID = r.st.nextID()
	stored := o.Clone()
	stored.Items = nil
	r.st.orders[o.ID] = stored
	return nil
}

func (r *orderRepository) CreateItems(ctx context.Context, orderID int64, items []entity.OrderItem) error {
	o, ok := r.st.orders[orderID]
	if !ok {
		return entity.NewNotFound("Order", "orderId", orderID)
	}
	for i := range items {
		items[i].ID = r.st.nextID()
		o.Items = append(o.Items, items[i])
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	o, ok := r.st.orders[orderID]
	if !ok {
		return entity.NewNotFound("Order", "orderId", orderID)
	}
	o.Status = status
	return nil
}
