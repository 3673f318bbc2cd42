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

type AddressService interface {
	List(ctx context.Context, userID string) ([]*domain.Address, error)
	Get(ctx context.Context, userID string, id int64) (*domain.Address, error)
	Create(ctx context.Context, userID string, snapshot domain.AddressSnapshot, isDefault bool) (*domain.Address, error)
	Update(ctx context.Context, userID string, id int64, snapshot domain.AddressSnapshot, isDefault bool) (*domain.Address, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type AddressHandler struct {
	addresses AddressService
	timeout   time.Duration
	logger    *zap.Logger
}

func NewAddressHandler(addresses AddressService, timeout time.Duration, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{
		addresses: addresses,
		timeout:   timeout,
		logger:    logger,
	}
}

type SaveAddressRequestDTO struct {
	domain.AddressSnapshot
	IsDefault bool `json:"is_default"`
}

func addressIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "address_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a positive integer")
		return 0, false
	}
	return id, true
}

// GET /api/v1/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	addresses, err := h.addresses.List(ctx, userID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if addresses == nil {
		addresses = []*domain.Address{}
	}

	respondJSON(w, http.StatusOK, addresses)
}

// POST /api/v1/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var req SaveAddressRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	address, err := h.addresses.Create(ctx, userID, req.AddressSnapshot, req.IsDefault)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, address)
}

// GET /api/v1/addresses/{address_id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	id, ok := addressIDParam(w, r)
	if !ok {
		return
	}

	address, err := h.addresses.Get(ctx, userID, id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, address)
}

// PUT /api/v1/addresses/{address_id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	id, ok := addressIDParam(w, r)
	if !ok {
		return
	}

	var req SaveAddressRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	address, err := h.addresses.Update(ctx, userID, id, req.AddressSnapshot, req.IsDefault)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, address)
}

// DELETE /api/v1/addresses/{address_id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}
	id, ok := addressIDParam(w, r)
	if !ok {
		return
	}

	if err := h.addresses.Delete(ctx, userID, id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
