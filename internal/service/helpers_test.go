package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/entity"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository/memory"
)

var fixedNow = time.Date(2026, 3, 14, 22, 30, 0, 0, time.FixedZone("CET", 3600))

// contendedStore fails the first failures transactions with lock contention
// after running their work, so the writes must be discarded.
type contendedStore struct {
	*memory.Store

	mu       sync.Mutex
	failures int
	calls    int
}

func (s *contendedStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.failures
	s.mu.Unlock()

	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if fail {
			return fmt.Errorf("failed to commit transaction: %w", repository.ErrLockContention)
		}
		return nil
	})
}

func (s *contendedStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return p.err
}

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fixture struct {
	store     *contendedStore
	publisher *recordingPublisher
	svc       *OrderService

	addressID int64
	productA  int64
	productB  int64
	productC  int64
}

const customer = "ana@example.com"

func newFixture(opts ...Option) *fixture {
	mem := memory.NewStore()
	f := &fixture{
		store:     &contendedStore{Store: mem},
		publisher: &recordingPublisher{},
	}
	f.addressID = mem.AddAddress(entity.Address{Street: "Calle Mayor 1", City: "Madrid", Country: "Spain", PostalCode: "28013"})
	f.productA = mem.AddProduct(entity.Product{Name: "A", Quantity: 10, Price: decimal.NewFromInt(10)})
	f.productB = mem.AddProduct(entity.Product{Name: "B", Quantity: 5, Price: decimal.NewFromInt(4)})
	f.productC = mem.AddProduct(entity.Product{Name: "C", Quantity: 7, Price: decimal.NewFromInt(3)})

	opts = append([]Option{
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	f.svc = NewOrderService(f.store, f.publisher, opts...)
	return f
}

func (f *fixture) addToCart(email string, productID int64, qty int, price string, discount string) {
	f.store.AddCartItem(email, entity.CartItem{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
		Discount:  decimal.RequireFromString(discount),
	})
}

func (f *fixture) quantity(productID int64) int {
	p, _ := f.store.Product(productID)
	return p.Quantity
}

func (f *fixture) cashInput(email string) PlaceOrderInput {
	return PlaceOrderInput{Email: email, AddressID: f.addressID, PaymentMethod: "CASH"}
}

func (f *fixture) placeCash(t *testing.T, email string) *entity.Order {
	t.Helper()
	o, err := f.svc.PlaceOrder(context.Background(), f.cashInput(email))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	return o
}

// memoryCache is a process-local cache.Cache. It ignores TTLs.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func encodeCacheValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = encodeCacheValue(value)
	return nil
}

func (c *memoryCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false, nil
	}
	c.entries[key] = encodeCacheValue(value)
	return true, nil
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) GenerateKey(operation, key string) string {
	return operation + ":" + key
}

// pausingStore runs afterRead once, right after the first single order
// read on the non-transactional reader returns.
type pausingStore struct {
	*memory.Store

	once      sync.Once
	afterRead func()
}

func (s *pausingStore) Orders() repository.OrderReader {
	return &pausingReader{OrderReader: s.Store.Orders(), store: s}
}

type pausingReader struct {
	repository.OrderReader
	store *pausingStore
}

func (r *pausingReader) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	o, err := r.OrderReader.FindByID(ctx, id)
	r.store.once.Do(r.store.afterRead)
	return o, err
}

func (r *pausingReader) FindByIDAndEmail(ctx context.Context, id int64, email string) (*entity.Order, error) {
	o, err := r.OrderReader.FindByIDAndEmail(ctx, id, email)
	r.store.once.Do(r.store.afterRead)
	return o, err
}
