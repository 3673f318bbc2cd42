package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/address/repository"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// mockRepository implements repository.AddressRepository for testing
type mockRepository struct {
	m         sync.Mutex
	nextID    int64
	addresses map[int64]*domain.Address
	createErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{addresses: make(map[int64]*domain.Address)}
}

func (m *mockRepository) ListAddresses(_ context.Context, userID string) ([]*domain.Address, error) {
	m.m.Lock()
	defer m.m.Unlock()
	out := make([]*domain.Address, 0)
	for _, a := range m.addresses {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockRepository) GetAddress(_ context.Context, userID string, id int64) (*domain.Address, error) {
	m.m.Lock()
	defer m.m.Unlock()
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrAddressNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepository) CountAddresses(_ context.Context, userID string) (int, error) {
	m.m.Lock()
	defer m.m.Unlock()
	n := 0
	for _, a := range m.addresses {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) clearDefault(userID string, keep int64) bool {
	had := false
	for _, a := range m.addresses {
		if a.UserID == userID && a.IsDefault && a.ID != keep {
			had = true
			a.IsDefault = false
		}
	}
	return had
}

func (m *mockRepository) CreateAddress(_ context.Context, a *domain.Address) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	hasDefault := false
	for _, e := range m.addresses {
		if e.UserID == a.UserID && e.IsDefault {
			hasDefault = true
		}
	}
	if a.IsDefault {
		m.clearDefault(a.UserID, 0)
	} else {
		a.IsDefault = !hasDefault
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.addresses[a.ID] = &cp
	return nil
}

func (m *mockRepository) UpdateAddress(_ context.Context, a *domain.Address) error {
	m.m.Lock()
	defer m.m.Unlock()
	old, ok := m.addresses[a.ID]
	if !ok || old.UserID != a.UserID {
		return repository.ErrAddressNotFound
	}
	if a.IsDefault {
		m.clearDefault(a.UserID, a.ID)
	}
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = time.Now()
	cp := *a
	m.addresses[a.ID] = &cp
	return nil
}

func (m *mockRepository) DeleteAddress(_ context.Context, userID string, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return repository.ErrAddressNotFound
	}
	delete(m.addresses, id)
	return nil
}
