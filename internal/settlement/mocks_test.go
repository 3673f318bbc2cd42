package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/order/repository"
)

type mockCart struct {
	m           sync.Mutex
	carts       map[string]*domain.Cart
	removeErr   error
	removeCalls int
}

func newMockCart(carts ...*domain.Cart) *mockCart {
	m := &mockCart{carts: make(map[string]*domain.Cart)}
	for _, c := range carts {
		m.carts[c.UserID] = c
	}
	return m
}

func (m *mockCart) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return domain.NewCart(userID), nil
	}
	cp := *c
	cp.Items = append([]domain.LineItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockCart) RemoveSettled(_ context.Context, userID string, skuIDs []int64, placedAt time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.removeCalls++
	if m.removeErr != nil {
		return m.removeErr
	}
	if c, ok := m.carts[userID]; ok {
		c.RemoveSettled(placedAt, skuIDs...)
	}
	return nil
}

func (m *mockCart) items(userID string) []domain.LineItem {
	m.m.Lock()
	defer m.m.Unlock()
	if c, ok := m.carts[userID]; ok {
		return append([]domain.LineItem(nil), c.Items...)
	}
	return nil
}

type mockCatalog struct {
	products []*domain.Product
}

func (m *mockCatalog) GetSku(_ context.Context, skuID int64) (*domain.Sku, *domain.Product, error) {
	for _, p := range m.products {
		if sku, ok := p.FindSku(skuID); ok {
			return &sku, p, nil
		}
	}
	return nil, nil, domain.SkuNotFound(skuID)
}

type mockAddressBook struct {
	entries []*domain.Address
	calls   int
}

func (m *mockAddressBook) Get(_ context.Context, userID string, id int64) (*domain.Address, error) {
	m.calls++
	for _, a := range m.entries {
		if a.ID == id && a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.AddressNotFound(id)
}

// mockStock runs the real in-memory store with injectable failures.
type mockStock struct {
	*inventory.MemoryStore
	confirmErr error
	released   []string
}

func (m *mockStock) Confirm(ctx context.Context, reservationID string) error {
	if m.confirmErr != nil {
		return m.confirmErr
	}
	return m.MemoryStore.Confirm(ctx, reservationID)
}

func (m *mockStock) Release(ctx context.Context, reservationID string) error {
	m.released = append(m.released, reservationID)
	return m.MemoryStore.Release(ctx, reservationID)
}

type mockOrders struct {
	m         sync.Mutex
	orders    map[string]*domain.Order
	createErr error
	markErr   error
}

func newMockOrders() *mockOrders {
	return &mockOrders{orders: make(map[string]*domain.Order)}
}

func (m *mockOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrders) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrders) MarkCartDrained(_ context.Context, id string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.markErr != nil {
		return false, m.markErr
	}
	o, ok := m.orders[id]
	if !ok || !o.CartDrainPending {
		return false, nil
	}
	o.CartDrainPending = false
	return true, nil
}

func (m *mockOrders) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Status != from {
		return repository.ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}

func (m *mockOrders) stored(id string) *domain.Order {
	m.m.Lock()
	defer m.m.Unlock()
	return m.orders[id]
}

func (m *mockOrders) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.orders)
}
