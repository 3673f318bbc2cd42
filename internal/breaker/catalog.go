package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type Settings struct {
	Name             string
	ConsecutiveFails uint32
	OpenTimeout      time.Duration
}

// Catalog guards a catalog.Catalog with a circuit breaker. Lookups of
// missing products or SKUs are answers, not failures, and never trip it.
type Catalog struct {
	next catalog.Catalog
	cb   *gobreaker.CircuitBreaker[any]
}

type skuResult struct {
	sku     *domain.Sku
	product *domain.Product
}

func NewCatalog(next catalog.Catalog, s Settings, logger *zap.Logger) *Catalog {
	if s.ConsecutiveFails == 0 {
		s.ConsecutiveFails = 5
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFails
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, catalog.ErrProductNotFound) ||
				errors.Is(err, catalog.ErrInvalidSort) ||
				errors.Is(err, domain.ErrSkuNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Catalog{next: next, cb: cb}
}

func (c *Catalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	res, err := c.cb.Execute(func() (any, error) {
		return c.next.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Product), nil
}

func (c *Catalog) GetSku(ctx context.Context, skuID int64) (*domain.Sku, *domain.Product, error) {
	res, err := c.cb.Execute(func() (any, error) {
		sku, product, err := c.next.GetSku(ctx, skuID)
		return skuResult{sku, product}, err
	})
	if err != nil {
		return nil, nil, err
	}
	r := res.(skuResult)
	return r.sku, r.product, nil
}

func (c *Catalog) ListProducts(ctx context.Context, q catalog.Query) (domain.Page[domain.ProductSummary], error) {
	res, err := c.cb.Execute(func() (any, error) {
		return c.next.ListProducts(ctx, q)
	})
	if err != nil {
		return domain.Page[domain.ProductSummary]{}, err
	}
	return res.(domain.Page[domain.ProductSummary]), nil
}

func (c *Catalog) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	res, err := c.cb.Execute(func() (any, error) {
		return c.next.ListCategories(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*domain.Category), nil
}

func (c *Catalog) State() gobreaker.State {
	return c.cb.State()
}
