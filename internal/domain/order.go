package domain

import (
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/money"
)

// OrderStatus codes are ordered; a live order only ever moves to a higher code.
type OrderStatus int

const (
	// StatusAll is the list filter for "any status"; it is never stored.
	StatusAll              OrderStatus = 0
	StatusPendingPayment   OrderStatus = 10
	StatusAwaitingShipment OrderStatus = 20
	StatusAwaitingReceipt  OrderStatus = 30
	StatusCompleted        OrderStatus = 40
	StatusCancelled        OrderStatus = 50
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment:   {StatusAwaitingShipment, StatusCancelled},
	StatusAwaitingShipment: {StatusAwaitingReceipt, StatusCancelled},
	StatusAwaitingReceipt:  {StatusCompleted},
}

// CanTransitionTo reports whether an order in status from may move to status to.
func CanTransitionTo(from, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s can be stored on an order.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusAwaitingShipment, StatusAwaitingReceipt, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	switch s {
	case StatusAll:
		return "ALL"
	case StatusPendingPayment:
		return "PENDING_PAYMENT"
	case StatusAwaitingShipment:
		return "AWAITING_SHIPMENT"
	case StatusAwaitingReceipt:
		return "AWAITING_RECEIPT"
	case StatusCompleted:
		return "COMPLETED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// SettlementMode records how an order was created.
type SettlementMode string

const (
	ModeCart   SettlementMode = "cart"
	ModeDirect SettlementMode = "direct"
)

// AddressSnapshot is copied into the order by value at creation time.
type AddressSnapshot struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Province   string `json:"province"`
	City       string `json:"city"`
	District   string `json:"district"`
	Detail     string `json:"detail"`
	PostalCode string `json:"postal_code,omitempty"`
}

func (a AddressSnapshot) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Province, a.City, a.District, a.Detail} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (a AddressSnapshot) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return InvalidAddress("receiver name is required")
	case strings.TrimSpace(a.Phone) == "":
		return InvalidAddress("receiver phone is required")
	case strings.TrimSpace(a.Detail) == "":
		return InvalidAddress("address detail is required")
	}
	return nil
}

// OrderLineItem is a point-in-time copy of what was bought.
type OrderLineItem struct {
	SkuID       int64       `json:"sku_id"`
	ProductID   int64       `json:"product_id"`
	Name        string      `json:"name"`
	SpecSummary string      `json:"sku_spec_str"`
	UnitPrice   money.Cents `json:"price"`
	Quantity    int         `json:"count"`
	ImageURL    string      `json:"img_url"`
}

func (i OrderLineItem) Subtotal() money.Cents {
	return i.UnitPrice.Mul(i.Quantity)
}

// Order is immutable after creation except for Status, UpdatedAt and the
// cart-drain bookkeeping flag.
type Order struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Status           OrderStatus     `json:"status"`
	Mode             SettlementMode  `json:"mode"`
	CreatedAt        time.Time       `json:"create_time"`
	UpdatedAt        time.Time       `json:"update_time"`
	TotalPrice       money.Cents     `json:"total_price"`
	ShippingFee      money.Cents     `json:"shipping_fee"`
	PayPrice         money.Cents     `json:"pay_price"`
	Address          AddressSnapshot `json:"address"`
	CouponID         string          `json:"coupon_id,omitempty"`
	Remark           string          `json:"remark,omitempty"`
	Items            []OrderLineItem `json:"items"`
	CartDrainPending bool            `json:"-"`
}

// ItemsSubtotal sums unit price times quantity over all lines, in cents.
func (o *Order) ItemsSubtotal() money.Cents {
	var total money.Cents
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

func (o *Order) SkuIDs() []int64 {
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.SkuID)
	}
	return ids
}

// Transition moves the order to status to, or fails without touching it.
func (o *Order) Transition(to OrderStatus, at time.Time) error {
	if !CanTransitionTo(o.Status, to) {
		return InvalidStatusTransition(o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}
