package repository

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CartRepository stores one cart document per user.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// UpsertCart replaces the stored cart; the last writer wins.
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	// RemoveItems pulls rows of the given SKUs added no later than addedBy,
	// without reading the cart first. A missing cart is not an error.
	RemoveItems(ctx context.Context, userID string, skuIDs []int64, addedBy time.Time) error
	DeleteCart(ctx context.Context, userID string) error
}
