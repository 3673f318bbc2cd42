package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StockReader reports live stock, which overrides the catalog's seed value.
type StockReader interface {
	GetStock(ctx context.Context, skuIDs []int64) ([]inventory.StockInfo, error)
}

type ProductHandler struct {
	catalog catalog.Catalog
	stock   StockReader
	timeout time.Duration
	logger  *zap.Logger
}

func NewProductHandler(c catalog.Catalog, stock StockReader, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		stock:   stock,
		timeout: timeout,
		logger:  logger,
	}
}

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err1 := queryInt(r, "page")
	size, err2 := queryInt(r, "page_size")
	categoryID, err3 := queryInt(r, "category_id")
	if err1 != nil || err2 != nil || err3 != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "page, page_size and category_id must be integers")
		return
	}
	sort, err := catalog.ParseSort(r.URL.Query().Get("sort"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_sort", "sort must be one of price_asc, price_desc, newest")
		return
	}

	res, err := h.catalog.ListProducts(ctx, catalog.Query{
		Keyword:    r.URL.Query().Get("keyword"),
		CategoryID: int64(categoryID),
		Sort:       sort,
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// GET /api/v1/products/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tree, err := h.catalog.ListCategories(ctx)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, tree)
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	skuIDs := make([]int64, len(product.Skus))
	for i, sku := range product.Skus {
		skuIDs[i] = sku.ID
	}
	stocks, err := h.stock.GetStock(ctx, skuIDs)
	if err != nil {
		h.logger.Warn("live stock unavailable", zap.Int64("product_id", productID), zap.Error(err))
	} else {
		available := make(map[int64]int, len(stocks))
		for _, s := range stocks {
			available[s.SkuID] = s.Available()
		}
		for i := range product.Skus {
			if n, ok := available[product.Skus[i].ID]; ok {
				product.Skus[i].Stock = n
			}
		}
	}

	respondJSON(w, http.StatusOK, product)
}
