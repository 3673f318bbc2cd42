package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var ErrAddressNotFound = errors.New("address not found")

// AddressRepository stores address book entries. Every lookup is scoped by
// user so one user can never read or change another's entries.
type AddressRepository interface {
	ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error)
	GetAddress(ctx context.Context, userID string, id int64) (*domain.Address, error)
	CountAddresses(ctx context.Context, userID string) (int, error)
	// CreateAddress assigns ID and timestamps. A user's first address, or
	// one saved with IsDefault, becomes the only default.
	CreateAddress(ctx context.Context, a *domain.Address) error
	UpdateAddress(ctx context.Context, a *domain.Address) error
	// DeleteAddress promotes the oldest remaining entry when the default
	// is removed.
	DeleteAddress(ctx context.Context, userID string, id int64) error
}
