package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidSort     = errors.New("invalid sort")
)

type Sort string

const (
	SortDefault   Sort = ""
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNewest    Sort = "newest"
)

func ParseSort(s string) (Sort, error) {
	switch sort := Sort(s); sort {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortNewest:
		return sort, nil
	}
	return SortDefault, fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// Query filters the product list. Keyword matches name, description or tags.
// CategoryID matches the category and everything below it.
type Query struct {
	Keyword    string
	CategoryID int64
	Sort       Sort
	Page       int
	PageSize   int
}

// Catalog is the read side of the product catalog. GetSku returns a
// domain SkuNotFound error for unknown ids.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetSku(ctx context.Context, skuID int64) (*domain.Sku, *domain.Product, error)
	ListProducts(ctx context.Context, q Query) (domain.Page[domain.ProductSummary], error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}
