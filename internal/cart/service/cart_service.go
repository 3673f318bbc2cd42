package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart/cache"
	"github.com/fjod/go_cart/storefront/internal/cart/repository"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SkuResolver looks up the catalog entry for a SKU.
type SkuResolver interface {
	GetSku(ctx context.Context, skuID int64) (*domain.Sku, *domain.Product, error)
}

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog SkuResolver
	logger  *zap.Logger
	sfg     singleflight.Group
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog SkuResolver, logger *zap.Logger) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		logger:  logger,
	}
}

// GetCart reads through the cache. Concurrent misses for one user share a
// single repository read. The result is shared between those callers and
// must not be mutated; use the mutation methods instead.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return domain.NewCart(userID), nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), userID, cart); err != nil {
				s.logger.Warn("cache set error", zap.String("user_id", userID), zap.Error(err))
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// load reads the stored cart for a mutation, bypassing the cache.
func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// mutate runs fn against a freshly loaded cart and stores the result. A
// domain error from fn leaves the stored cart untouched. fn reports whether
// anything changed; unchanged carts are not written.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed, err := fn(cart)
	if err != nil {
		return nil, err
	}
	if !changed {
		return cart, nil
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		s.logger.Error("repo upsert cart error", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

// AddItem resolves the SKU in the catalog and merges it into the cart.
// Stock is not checked here; settlement does that.
func (s *CartService) AddItem(ctx context.Context, userID string, skuID int64, quantity int) (*domain.Cart, error) {
	if !domain.ValidQuantity(quantity) {
		return nil, domain.InvalidQuantity(quantity)
	}

	_, product, err := s.catalog.GetSku(ctx, skuID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(cart *domain.Cart) (bool, error) {
		return true, cart.AddItem(product, skuID, quantity)
	})
}

func (s *CartService) SetQuantity(ctx context.Context, userID string, skuID int64, quantity int) (*domain.Cart, error) {
	if !domain.ValidQuantity(quantity) {
		return nil, domain.InvalidQuantity(quantity)
	}
	return s.mutate(ctx, userID, func(cart *domain.Cart) (bool, error) {
		if _, ok := cart.Item(skuID); !ok {
			return false, nil
		}
		return true, cart.SetQuantity(skuID, quantity)
	})
}

func (s *CartService) SetSelected(ctx context.Context, userID string, skuID int64, selected bool) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) (bool, error) {
		return cart.SetSelected(skuID, selected), nil
	})
}

func (s *CartService) SetAllSelected(ctx context.Context, userID string, selected bool) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) (bool, error) {
		if len(cart.Items) == 0 {
			return false, nil
		}
		cart.SetAllSelected(selected)
		return true, nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, skuID int64) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) (bool, error) {
		return cart.RemoveItem(skuID), nil
	})
}

func (s *CartService) RemoveItems(ctx context.Context, userID string, skuIDs []int64) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) (bool, error) {
		return cart.RemoveItems(skuIDs...) > 0, nil
	})
}

// RemoveSettled drops settled SKUs with a single atomic update. Rows the user
// added after placedAt are kept. It is safe to call more than once for the
// same order.
func (s *CartService) RemoveSettled(ctx context.Context, userID string, skuIDs []int64, placedAt time.Time) error {
	if err := s.repo.RemoveItems(ctx, userID, skuIDs, placedAt); err != nil {
		s.logger.Error("repo remove settled items error", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	s.invalidateCache(userID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.logger.Error("repo delete cart error", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}
