package inventory

import (
	"context"
	"errors"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationExpired  = errors.New("reservation has expired")
	ErrInvalidStatus       = errors.New("invalid reservation status for this operation")
)

// Store is the stock collaborator of settlement. Unknown SKUs fail with a
// domain SkuNotFound error and short stock with InsufficientStock.
type Store interface {
	GetStock(ctx context.Context, skuIDs []int64) ([]StockInfo, error)

	// Reserve holds every item or none of them.
	Reserve(ctx context.Context, reference string, items []Item) (*Reservation, error)

	// Confirm permanently deducts a reserved quantity.
	Confirm(ctx context.Context, reservationID string) error

	// Release returns a reserved quantity to the available pool.
	Release(ctx context.Context, reservationID string) error

	// Restock puts confirmed stock back, e.g. for a cancelled order.
	Restock(ctx context.Context, items []Item) error

	SetStock(ctx context.Context, skuID int64, quantity int) error
	Close() error
}
