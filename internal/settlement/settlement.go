package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/fjod/go_cart/storefront/internal/order/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartStore interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// RemoveSettled must be a no-op for SKUs that are already gone and must
	// keep rows added after placedAt.
	RemoveSettled(ctx context.Context, userID string, skuIDs []int64, placedAt time.Time) error
}

type SkuResolver interface {
	GetSku(ctx context.Context, skuID int64) (*domain.Sku, *domain.Product, error)
}

type Stock interface {
	Reserve(ctx context.Context, reference string, items []inventory.Item) (*inventory.Reservation, error)
	Confirm(ctx context.Context, reservationID string) error
	Release(ctx context.Context, reservationID string) error
}

// AddressBook resolves a saved address of the user.
type AddressBook interface {
	Get(ctx context.Context, userID string, id int64) (*domain.Address, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	MarkCartDrained(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error
}

// Pricing holds the shipping rule. A zero FreeShippingOver disables the
// waiver.
type Pricing struct {
	ShippingFee      money.Cents
	FreeShippingOver money.Cents
}

func (p Pricing) Shipping(subtotal money.Cents) money.Cents {
	if p.FreeShippingOver > 0 && subtotal >= p.FreeShippingOver {
		return 0
	}
	return p.ShippingFee
}

type DirectItem struct {
	SkuID    int64 `json:"sku_id"`
	Quantity int   `json:"count"`
}

// Request settles the selected cart lines when Items is empty, otherwise
// exactly Items. A positive AddressID ships to that address book entry and
// Address is ignored. DrainCart makes a direct purchase also remove its SKUs
// from the cart.
type Request struct {
	UserID    string
	Items     []DirectItem
	AddressID int64
	Address   domain.AddressSnapshot
	CouponID  string
	Remark    string
	DrainCart bool
}

func (r Request) Mode() domain.SettlementMode {
	if len(r.Items) == 0 {
		return domain.ModeCart
	}
	return domain.ModeDirect
}

type Service struct {
	cart      CartStore
	catalog   SkuResolver
	stock     Stock
	orders    OrderStore
	addresses AddressBook
	pricing   Pricing
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(cart CartStore, catalog SkuResolver, stock Stock, orders OrderStore, addresses AddressBook, pricing Pricing, logger *zap.Logger) *Service {
	return &Service{
		cart:      cart,
		catalog:   catalog,
		stock:     stock,
		orders:    orders,
		addresses: addresses,
		pricing:   pricing,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// shipTo copies the receiver out of the address book, or takes the inline
// one when no entry is named.
func (s *Service) shipTo(ctx context.Context, req Request) (domain.AddressSnapshot, error) {
	address := req.Address
	if req.AddressID > 0 {
		saved, err := s.addresses.Get(ctx, req.UserID, req.AddressID)
		if err != nil {
			return domain.AddressSnapshot{}, err
		}
		address = saved.Snapshot()
	}
	if err := address.Validate(); err != nil {
		return domain.AddressSnapshot{}, err
	}
	return address, nil
}

// Settle turns a cart selection or a direct purchase into a pending-payment
// order. Stock is reserved for every line or for none. Once the order is
// stored and the stock confirmed, the settled SKUs leave the cart; a failed
// removal is finished later by DrainCart and does not fail the settlement.
func (s *Service) Settle(ctx context.Context, req Request) (*domain.Order, error) {
	address, err := s.shipTo(ctx, req)
	if err != nil {
		return nil, err
	}

	mode := req.Mode()
	wanted, err := s.collect(ctx, req)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.OrderLineItem, 0, len(wanted))
	for _, w := range wanted {
		sku, product, err := s.catalog.GetSku(ctx, w.SkuID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.OrderLineItem{
			SkuID:       sku.ID,
			ProductID:   product.ID,
			Name:        product.Name,
			SpecSummary: sku.SpecSummary(),
			UnitPrice:   sku.UnitPrice,
			Quantity:    w.Quantity,
			ImageURL:    product.CoverImage(),
		})
	}

	now := s.now()
	order := &domain.Order{
		ID:               s.newID(),
		UserID:           req.UserID,
		Status:           domain.StatusPendingPayment,
		Mode:             mode,
		CreatedAt:        now,
		UpdatedAt:        now,
		Address:          address,
		CouponID:         req.CouponID,
		Remark:           req.Remark,
		Items:            lines,
		CartDrainPending: mode == domain.ModeCart || req.DrainCart,
	}
	subtotal := order.ItemsSubtotal()
	order.ShippingFee = s.pricing.Shipping(subtotal)
	order.TotalPrice = subtotal + order.ShippingFee
	order.PayPrice = order.TotalPrice

	items := make([]inventory.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, inventory.Item{SkuID: line.SkuID, Quantity: line.Quantity})
	}
	reservation, err := s.stock.Reserve(ctx, order.ID, items)
	if err != nil {
		return nil, err
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.logger.Error("persist order failed",
			zap.String("order_id", order.ID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
		if relErr := s.stock.Release(ctx, reservation.ID); relErr != nil {
			s.logger.Error("release reservation failed",
				zap.String("reservation_id", reservation.ID),
				zap.Error(relErr))
		}
		return nil, domain.SettlementPersistence(order.ID, err)
	}

	if err := s.stock.Confirm(ctx, reservation.ID); err != nil {
		s.logger.Error("confirm reservation failed",
			zap.String("order_id", order.ID),
			zap.String("reservation_id", reservation.ID),
			zap.Error(err))
		s.abandon(ctx, order, reservation.ID)
		return nil, domain.SettlementPersistence(order.ID, err)
	}

	s.logger.Info("order settled",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("mode", string(mode)),
		zap.Stringer("pay_price", order.PayPrice))

	if order.CartDrainPending {
		if err := s.drain(ctx, order); err != nil {
			s.logger.Warn("cart drain deferred",
				zap.String("order_id", order.ID),
				zap.Error(err))
		} else {
			order.CartDrainPending = false
		}
	}

	return order, nil
}

// abandon takes a stored order whose stock could not be confirmed out of
// circulation: no cart drain, cancelled status, reservation released.
func (s *Service) abandon(ctx context.Context, order *domain.Order, reservationID string) {
	if order.CartDrainPending {
		if _, err := s.orders.MarkCartDrained(ctx, order.ID); err != nil {
			s.logger.Error("clear drain of abandoned order failed",
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, domain.StatusCancelled, s.now()); err != nil {
		s.logger.Error("cancel abandoned order failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
	// the expiry loop may already have released or purged the reservation
	err := s.stock.Release(ctx, reservationID)
	if err != nil && !errors.Is(err, inventory.ErrInvalidStatus) && !errors.Is(err, inventory.ErrReservationNotFound) {
		s.logger.Error("release reservation failed",
			zap.String("reservation_id", reservationID),
			zap.Error(err))
	}
}

// collect returns the SKUs and quantities to settle, merging repeated SKUs
// of a direct purchase.
func (s *Service) collect(ctx context.Context, req Request) ([]DirectItem, error) {
	if req.Mode() == domain.ModeCart {
		cart, err := s.cart.GetCart(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		selected := cart.SelectedItems()
		if len(selected) == 0 {
			return nil, domain.EmptySettlement("no selected items in cart")
		}
		wanted := make([]DirectItem, 0, len(selected))
		for _, item := range selected {
			wanted = append(wanted, DirectItem{SkuID: item.SkuID, Quantity: item.Quantity})
		}
		return wanted, nil
	}

	wanted := make([]DirectItem, 0, len(req.Items))
	index := make(map[int64]int, len(req.Items))
	for _, item := range req.Items {
		if !domain.ValidQuantity(item.Quantity) {
			return nil, domain.InvalidQuantity(item.Quantity)
		}
		if i, ok := index[item.SkuID]; ok {
			wanted[i].Quantity += item.Quantity
			if !domain.ValidQuantity(wanted[i].Quantity) {
				return nil, domain.InvalidQuantity(wanted[i].Quantity)
			}
			continue
		}
		index[item.SkuID] = len(wanted)
		wanted = append(wanted, item)
	}
	return wanted, nil
}

// DrainCart removes a settled order's SKUs from its owner's cart if that has
// not happened yet. Repeated calls are no-ops.
func (s *Service) DrainCart(ctx context.Context, orderID string) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return domain.OrderNotFound(orderID)
	}
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if !order.CartDrainPending {
		return nil
	}
	return s.drain(ctx, order)
}

func (s *Service) drain(ctx context.Context, order *domain.Order) error {
	if err := s.cart.RemoveSettled(ctx, order.UserID, order.SkuIDs(), order.CreatedAt); err != nil {
		return fmt.Errorf("remove settled items: %w", err)
	}

	cleared, err := s.orders.MarkCartDrained(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("mark cart drained: %w", err)
	}
	if cleared {
		s.logger.Info("cart drained",
			zap.String("order_id", order.ID),
			zap.String("user_id", order.UserID))
	}
	return nil
}
