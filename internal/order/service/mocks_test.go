package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/order/repository"
)

// mockRepository implements repository.OrderRepository for testing
type mockRepository struct {
	m         sync.Mutex
	orders    map[string]*domain.Order
	updateErr error
	listArgs  repository.ListFilter
}

func newMockRepository(orders ...*domain.Order) *mockRepository {
	m := &mockRepository{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		cp := *o
		m.orders[o.ID] = &cp
	}
	return m
}

func (m *mockRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return repository.ErrDuplicateOrder
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockRepository) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockRepository) ListOrders(_ context.Context, f repository.ListFilter) ([]*domain.Order, int, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.listArgs = f
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == f.UserID && (f.Status == domain.StatusAll || o.Status == f.Status) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
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

func (m *mockRepository) MarkCartDrained(_ context.Context, id string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok || !o.CartDrainPending {
		return false, nil
	}
	o.CartDrainPending = false
	return true, nil
}

func (m *mockRepository) PendingDrains(context.Context, time.Time, int) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (m *mockRepository) MarkEventAsProcessed(context.Context, int64) error {
	return nil
}

func (m *mockRepository) Close() error {
	return nil
}

func (m *mockRepository) status(id string) domain.OrderStatus {
	m.m.Lock()
	defer m.m.Unlock()
	return m.orders[id].Status
}

type mockRestocker struct {
	items []inventory.Item
	err   error
}

func (m *mockRestocker) Restock(_ context.Context, items []inventory.Item) error {
	m.items = append(m.items, items...)
	return m.err
}
