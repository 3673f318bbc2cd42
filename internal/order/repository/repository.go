package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already exists")
	// ErrStatusConflict means the order was not in the expected status when
	// the update ran.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// ListFilter selects a page of one user's orders. Status domain.StatusAll
// matches every status.
type ListFilter struct {
	UserID   string
	Status   domain.OrderStatus
	Page     int
	PageSize int
}

type OrderRepository interface {
	// CreateOrder stores the order together with its OrderCreated outbox
	// event in one transaction.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]*domain.Order, int, error)
	// UpdateStatus moves id from status from to status to, or fails with
	// ErrStatusConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error
	// MarkCartDrained clears the drain flag and reports whether this call
	// was the one that cleared it.
	MarkCartDrained(ctx context.Context, id string) (bool, error)
	PendingDrains(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Order, error)

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error

	Close() error
}
