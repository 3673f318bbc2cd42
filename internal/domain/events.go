package domain

import (
	"time"

	"github.com/fjod/go_cart/storefront/internal/money"
)

// EventOrderCreated is the outbox event type written with every new order.
const EventOrderCreated = "OrderCreated"

// OrderCreatedEvent is the outbox payload for EventOrderCreated. DrainCart
// tells the cart-drain consumer whether SkuIDs must leave the user's cart.
type OrderCreatedEvent struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	SkuIDs     []int64     `json:"sku_ids"`
	DrainCart  bool        `json:"drain_cart"`
	TotalPrice money.Cents `json:"total_price"`
	PayPrice   money.Cents `json:"pay_price"`
	CreatedAt  time.Time   `json:"created_at"`
}

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		SkuIDs:     o.SkuIDs(),
		DrainCart:  o.CartDrainPending,
		TotalPrice: o.TotalPrice,
		PayPrice:   o.PayPrice,
		CreatedAt:  o.CreatedAt,
	}
}
