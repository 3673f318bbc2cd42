package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, skuID int64, quantity int) (*domain.Cart, error)
	SetQuantity(ctx context.Context, userID string, skuID int64, quantity int) (*domain.Cart, error)
	SetSelected(ctx context.Context, userID string, skuID int64, selected bool) (*domain.Cart, error)
	SetAllSelected(ctx context.Context, userID string, selected bool) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, skuID int64) (*domain.Cart, error)
	RemoveItems(ctx context.Context, userID string, skuIDs []int64) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(cart CartService, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	SkuID    int64 `json:"sku_id"`
	Quantity int   `json:"quantity"`
}

// UpdateItemRequestDTO changes quantity, selection or both; absent fields
// are left alone.
type UpdateItemRequestDTO struct {
	Quantity *int  `json:"quantity"`
	Selected *bool `json:"selected"`
}

type RemoveItemsRequestDTO struct {
	SkuIDs []int64 `json:"sku_ids"`
}

type SelectAllRequestDTO struct {
	Selected bool `json:"selected"`
}

type CartResponseDTO struct {
	Items   []domain.LineItem `json:"items"`
	Summary domain.Summary    `json:"summary"`
}

type CartCountDTO struct {
	Count int `json:"count"`
}

func toCartResponse(cart *domain.Cart) CartResponseDTO {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponseDTO{Items: items, Summary: cart.Summary()}
}

// requireUser writes 401 and returns "" when the request carries no user.
func requireUser(w http.ResponseWriter, r *http.Request) string {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	}
	return userID
}

func skuIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	skuID, err := strconv.ParseInt(chi.URLParam(r, "sku_id"), 10, 64)
	if err != nil || skuID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_sku_id", "sku_id must be a positive integer")
		return 0, false
	}
	return skuID, true
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	cart, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// GET /api/v1/cart/count
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	cart, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, CartCountDTO{Count: cart.TotalCount()})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SkuID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_sku_id", "sku_id must be positive")
		return
	}

	cart, err := h.cart.AddItem(ctx, userID, req.SkuID, req.Quantity)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCartResponse(cart))
}

// PUT /api/v1/cart/items/{sku_id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	skuID, ok := skuIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity == nil && req.Selected == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "quantity or selected is required")
		return
	}

	var cart *domain.Cart
	var err error
	if req.Quantity != nil {
		if cart, err = h.cart.SetQuantity(ctx, userID, skuID, *req.Quantity); err != nil {
			handleError(w, r, h.logger, err)
			return
		}
	}
	if req.Selected != nil {
		if cart, err = h.cart.SetSelected(ctx, userID, skuID, *req.Selected); err != nil {
			handleError(w, r, h.logger, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// DELETE /api/v1/cart/items/{sku_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	skuID, ok := skuIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.RemoveItem(ctx, userID, skuID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// POST /api/v1/cart/items/delete
func (h *CartHandler) RemoveItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var req RemoveItemsRequestDTO
	if err := decodeJSON(r, &req); err != nil || len(req.SkuIDs) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "sku_ids must be a non-empty list")
		return
	}

	cart, err := h.cart.RemoveItems(ctx, userID, req.SkuIDs)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// POST /api/v1/cart/select-all
func (h *CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var req SelectAllRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.cart.SetAllSelected(ctx, userID, req.Selected)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	if err := h.cart.ClearCart(ctx, userID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(domain.NewCart(userID)))
}
