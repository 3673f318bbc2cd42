package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/inventory"
	"github.com/fjod/go_cart/storefront/internal/order/repository"
	"go.uber.org/zap"
)

// Restocker returns confirmed stock to the pool.
type Restocker interface {
	Restock(ctx context.Context, items []inventory.Item) error
}

type OrderService struct {
	repo   repository.OrderRepository
	stock  Restocker
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderService(repo repository.OrderRepository, stock Restocker, logger *zap.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		stock:  stock,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns one of the user's orders. Orders of other users are reported
// as not found.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domain.OrderNotFound(orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, domain.OrderNotFound(orderID)
	}
	return order, nil
}

// List pages through the user's orders, newest first. domain.StatusAll
// disables the status filter.
func (s *OrderService) List(ctx context.Context, userID string, status domain.OrderStatus, page, pageSize int) (domain.Page[*domain.Order], error) {
	if status != domain.StatusAll && !status.Valid() {
		return domain.Page[*domain.Order]{}, fmt.Errorf("unknown order status %d", status)
	}
	page, pageSize = domain.NormalizePaging(page, pageSize)

	orders, total, err := s.repo.ListOrders(ctx, repository.ListFilter{
		UserID:   userID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return domain.Page[*domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}

	return domain.Page[*domain.Order]{
		List:     orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *OrderService) MarkPaid(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.transition(ctx, userID, orderID, domain.StatusAwaitingShipment)
}

func (s *OrderService) MarkShipped(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.transition(ctx, userID, orderID, domain.StatusAwaitingReceipt)
}

func (s *OrderService) MarkReceived(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.transition(ctx, userID, orderID, domain.StatusCompleted)
}

// Cancel moves a pending or paid order to cancelled and puts its items
// back in stock.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.transition(ctx, userID, orderID, domain.StatusCancelled)
	if err != nil {
		return nil, err
	}

	items := make([]inventory.Item, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, inventory.Item{SkuID: item.SkuID, Quantity: item.Quantity})
	}
	if err := s.stock.Restock(ctx, items); err != nil {
		// the order stays cancelled; stock needs a manual fix
		s.logger.Error("restock cancelled order",
			zap.String("order_id", orderID),
			zap.Error(err))
	}
	return order, nil
}

func (s *OrderService) transition(ctx context.Context, userID, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := order.Transition(to, s.now()); err != nil {
		return nil, err
	}

	err = s.repo.UpdateStatus(ctx, orderID, from, to, order.UpdatedAt)
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		// another request moved the order first
		return nil, domain.InvalidStatusTransition(from, to)
	case errors.Is(err, repository.ErrOrderNotFound):
		return nil, domain.OrderNotFound(orderID)
	case err != nil:
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.Info("order status changed",
		zap.String("order_id", orderID),
		zap.Stringer("from", from),
		zap.Stringer("to", to))
	return order, nil
}
