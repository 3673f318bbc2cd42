package http

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/settlement"
)

type mockCatalog struct {
	products   map[int64]*domain.Product
	categories []*domain.Category
	err        error
	query      catalog.Query
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	cp := *p
	cp.Skus = append([]domain.Sku(nil), p.Skus...)
	return &cp, nil
}

func (m *mockCatalog) GetSku(_ context.Context, skuID int64) (*domain.Sku, *domain.Product, error) {
	for _, p := range m.products {
		if sku, ok := p.FindSku(skuID); ok {
			return &sku, p, nil
		}
	}
	return nil, nil, domain.SkuNotFound(skuID)
}

func (m *mockCatalog) ListProducts(_ context.Context, q catalog.Query) (domain.Page[domain.ProductSummary], error) {
	m.query = q
	if m.err != nil {
		return domain.Page[domain.ProductSummary]{}, m.err
	}
	page := domain.Page[domain.ProductSummary]{List: []domain.ProductSummary{}, Page: 1, PageSize: 10}
	for _, p := range m.products {
		low, _ := p.PriceRange()
		page.List = append(page.List, domain.ProductSummary{ID: p.ID, Name: p.Name, Price: low})
	}
	page.Total = len(page.List)
	return page, nil
}

func (m *mockCatalog) ListCategories(context.Context) ([]*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

type mockStock struct {
	available map[int64]int
	err       error
}

func (m *mockStock) GetStock(_ context.Context, skuIDs []int64) ([]inventory.StockInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []inventory.StockInfo
	for _, id := range skuIDs {
		if n, ok := m.available[id]; ok {
			out = append(out, inventory.StockInfo{SkuID: id, Total: n})
		}
	}
	return out, nil
}

// mockCartService keeps carts in memory and applies the domain operations.
type mockCartService struct {
	m       sync.Mutex
	carts   map[string]*domain.Cart
	catalog *mockCatalog
	err     error
}

func newMockCartService(c *mockCatalog) *mockCartService {
	return &mockCartService{carts: make(map[string]*domain.Cart), catalog: c}
}

func (m *mockCartService) cart(userID string) *domain.Cart {
	c, ok := m.carts[userID]
	if !ok {
		c = domain.NewCart(userID)
		m.carts[userID] = c
	}
	return c
}

func (m *mockCartService) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.cart(userID), nil
}

func (m *mockCartService) AddItem(ctx context.Context, userID string, skuID int64, quantity int) (*domain.Cart, error) {
	if !domain.ValidQuantity(quantity) {
		return nil, domain.InvalidQuantity(quantity)
	}
	_, product, err := m.catalog.GetSku(ctx, skuID)
	if err != nil {
		return nil, err
	}
	m.m.Lock()
	defer m.m.Unlock()
	c := m.cart(userID)
	return c, c.AddItem(product, skuID, quantity)
}

func (m *mockCartService) SetQuantity(_ context.Context, userID string, skuID int64, quantity int) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	c := m.cart(userID)
	if err := c.SetQuantity(skuID, quantity); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *mockCartService) SetSelected(_ context.Context, userID string, skuID int64, selected bool) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	c := m.cart(userID)
	c.SetSelected(skuID, selected)
	return c, nil
}

func (m *mockCartService) SetAllSelected(_ context.Context, userID string, selected bool) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	c := m.cart(userID)
	c.SetAllSelected(selected)
	return c, nil
}

func (m *mockCartService) RemoveItem(_ context.Context, userID string, skuID int64) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	c := m.cart(userID)
	c.RemoveItem(skuID)
	return c, nil
}

func (m *mockCartService) RemoveItems(_ context.Context, userID string, skuIDs []int64) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	c := m.cart(userID)
	c.RemoveItems(skuIDs...)
	return c, nil
}

func (m *mockCartService) ClearCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, userID)
	return m.err
}

type mockSettler struct {
	req   settlement.Request
	order *domain.Order
	err   error
}

func (m *mockSettler) Settle(_ context.Context, req settlement.Request) (*domain.Order, error) {
	m.req = req
	return m.order, m.err
}

type mockOrderService struct {
	orders   map[string]*domain.Order
	listArgs []int
	err      error
}

func (m *mockOrderService) Get(_ context.Context, userID, orderID string) (*domain.Order, error) {
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, domain.OrderNotFound(orderID)
	}
	return o, nil
}

func (m *mockOrderService) List(_ context.Context, userID string, status domain.OrderStatus, page, pageSize int) (domain.Page[*domain.Order], error) {
	m.listArgs = []int{int(status), page, pageSize}
	if m.err != nil {
		return domain.Page[*domain.Order]{}, m.err
	}
	res := domain.Page[*domain.Order]{Page: 1, PageSize: 10}
	for _, o := range m.orders {
		if o.UserID == userID && (status == domain.StatusAll || o.Status == status) {
			res.List = append(res.List, o)
		}
	}
	res.Total = len(res.List)
	return res, nil
}

func (m *mockOrderService) move(userID, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	o, err := m.Get(context.Background(), userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.Transition(to, o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

func (m *mockOrderService) MarkPaid(_ context.Context, userID, orderID string) (*domain.Order, error) {
	return m.move(userID, orderID, domain.StatusAwaitingShipment)
}

func (m *mockOrderService) MarkShipped(_ context.Context, userID, orderID string) (*domain.Order, error) {
	return m.move(userID, orderID, domain.StatusAwaitingReceipt)
}

func (m *mockOrderService) MarkReceived(_ context.Context, userID, orderID string) (*domain.Order, error) {
	return m.move(userID, orderID, domain.StatusCompleted)
}

func (m *mockOrderService) Cancel(_ context.Context, userID, orderID string) (*domain.Order, error) {
	return m.move(userID, orderID, domain.StatusCancelled)
}

type mockAddressService struct {
	nextID    int64
	addresses map[int64]*domain.Address
}

func newMockAddressService() *mockAddressService {
	return &mockAddressService{addresses: map[int64]*domain.Address{}}
}

func (m *mockAddressService) List(_ context.Context, userID string) ([]*domain.Address, error) {
	var out []*domain.Address
	for id := int64(1); id <= m.nextID; id++ {
		if a, ok := m.addresses[id]; ok && a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAddressService) Get(_ context.Context, userID string, id int64) (*domain.Address, error) {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, domain.AddressNotFound(id)
	}
	return a, nil
}

func (m *mockAddressService) Create(_ context.Context, userID string, snapshot domain.AddressSnapshot, isDefault bool) (*domain.Address, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	m.nextID++
	a := &domain.Address{ID: m.nextID, UserID: userID, AddressSnapshot: snapshot, IsDefault: isDefault || len(m.addresses) == 0}
	m.addresses[a.ID] = a
	return a, nil
}

func (m *mockAddressService) Update(ctx context.Context, userID string, id int64, snapshot domain.AddressSnapshot, isDefault bool) (*domain.Address, error) {
	a, err := m.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	a.AddressSnapshot = snapshot
	a.IsDefault = isDefault
	return a, nil
}

func (m *mockAddressService) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := m.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(m.addresses, id)
	return nil
}
