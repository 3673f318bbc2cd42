package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/settlement"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Settler interface {
	Settle(ctx context.Context, req settlement.Request) (*domain.Order, error)
}

type OrderService interface {
	Get(ctx context.Context, userID, orderID string) (*domain.Order, error)
	List(ctx context.Context, userID string, status domain.OrderStatus, page, pageSize int) (domain.Page[*domain.Order], error)
	MarkPaid(ctx context.Context, userID, orderID string) (*domain.Order, error)
	MarkShipped(ctx context.Context, userID, orderID string) (*domain.Order, error)
	MarkReceived(ctx context.Context, userID, orderID string) (*domain.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

type OrdersHandler struct {
	settler Settler
	orders  OrderService
	timeout time.Duration
	logger  *zap.Logger
}

func NewOrdersHandler(settler Settler, orders OrderService, timeout time.Duration, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		settler: settler,
		orders:  orders,
		timeout: timeout,
		logger:  logger,
	}
}

// CreateOrderRequestDTO settles the selected cart items when Items is
// empty, otherwise exactly Items. AddressID picks an address book entry and
// takes precedence over Address.
type CreateOrderRequestDTO struct {
	AddressID int64                   `json:"address_id"`
	Address   domain.AddressSnapshot  `json:"address"`
	CouponID  string                  `json:"coupon_id"`
	Remark    string                  `json:"remark"`
	Items     []settlement.DirectItem `json:"items"`
	DrainCart bool                    `json:"drain_cart"`
}

type OrderResponseDTO struct {
	*domain.Order
	StatusText      string `json:"status_text"`
	ReceiverAddress string `json:"receiver_address"`
}

func toOrderResponse(o *domain.Order) OrderResponseDTO {
	if o.Items == nil {
		o.Items = []domain.OrderLineItem{}
	}
	return OrderResponseDTO{
		Order:           o,
		StatusText:      o.Status.String(),
		ReceiverAddress: o.Address.FullAddress(),
	}
}

// POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var req CreateOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.settler.Settle(ctx, settlement.Request{
		UserID:    userID,
		Items:     req.Items,
		AddressID: req.AddressID,
		Address:   req.Address,
		CouponID:  req.CouponID,
		Remark:    req.Remark,
		DrainCart: req.DrainCart,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	status, err1 := queryInt(r, "status")
	page, err2 := queryInt(r, "page")
	size, err3 := queryInt(r, "page_size")
	if err1 != nil || err2 != nil || err3 != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "status, page and page_size must be integers")
		return
	}
	if st := domain.OrderStatus(status); st != domain.StatusAll && !st.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	res, err := h.orders.List(ctx, userID, domain.OrderStatus(status), page, size)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	list := make([]OrderResponseDTO, 0, len(res.List))
	for _, o := range res.List {
		list = append(list, toOrderResponse(o))
	}
	respondJSON(w, http.StatusOK, domain.Page[OrderResponseDTO]{
		List:     list,
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	})
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.Get)
}

// POST /api/v1/orders/{order_id}/pay
func (h *OrdersHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.MarkPaid)
}

// POST /api/v1/orders/{order_id}/ship
func (h *OrdersHandler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.MarkShipped)
}

// POST /api/v1/orders/{order_id}/receive
func (h *OrdersHandler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.MarkReceived)
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.Cancel)
}

func (h *OrdersHandler) orderAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, orderID string) (*domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	order, err := action(ctx, userID, orderID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}
