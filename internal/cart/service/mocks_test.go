package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart/cache"
	"github.com/fjod/go_cart/storefront/internal/cart/repository"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.LineItem(nil), c.Items...)
	return &cp
}

type mockRepository struct {
	m           sync.RWMutex
	carts       map[string]*domain.Cart
	err         error
	upsertErr   error
	getCalls    int
	upsertCalls int
}

func newMockRepository(carts ...*domain.Cart) *mockRepository {
	m := &mockRepository{carts: make(map[string]*domain.Cart)}
	for _, c := range carts {
		m.carts[c.UserID] = copyCart(c)
	}
	return m
}

func (m *mockRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return copyCart(c), nil
}

func (m *mockRepository) UpsertCart(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.carts[c.UserID] = copyCart(c)
	return nil
}

func (m *mockRepository) RemoveItems(_ context.Context, userID string, skuIDs []int64, addedBy time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if c, ok := m.carts[userID]; ok {
		c.RemoveSettled(addedBy, skuIDs...)
	}
	return nil
}

func (m *mockRepository) DeleteCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[userID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockRepository) stored(userID string) *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.carts[userID]
}

func (m *mockRepository) gets() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.getCalls
}

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return nil
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return nil
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockCatalog struct {
	products map[int64]*domain.Product
	err      error
}

func newMockCatalog(products ...*domain.Product) *mockCatalog {
	m := &mockCatalog{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) GetSku(_ context.Context, skuID int64) (*domain.Sku, *domain.Product, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	for _, p := range m.products {
		if sku, ok := p.FindSku(skuID); ok {
			return &sku, p, nil
		}
	}
	return nil, nil, domain.SkuNotFound(skuID)
}
