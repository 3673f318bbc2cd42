package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable part of a domain error. Transports map
// kinds to their own status codes.
type ErrorKind string

const (
	KindSkuNotFound             ErrorKind = "sku_not_found"
	KindInsufficientStock       ErrorKind = "insufficient_stock"
	KindInvalidQuantity         ErrorKind = "invalid_quantity"
	KindOrderNotFound           ErrorKind = "order_not_found"
	KindInvalidStatusTransition ErrorKind = "invalid_status_transition"
	KindSettlementPersistence   ErrorKind = "settlement_persistence"
	KindEmptySettlement         ErrorKind = "empty_settlement"
	KindInvalidAddress          ErrorKind = "invalid_address"
	KindAddressNotFound         ErrorKind = "address_not_found"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any domain error of the same kind, so callers can write
// errors.Is(err, domain.ErrSkuNotFound) regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrSkuNotFound             = &Error{Kind: KindSkuNotFound, Message: "sku not found"}
	ErrInsufficientStock       = &Error{Kind: KindInsufficientStock, Message: "insufficient stock"}
	ErrInvalidQuantity         = &Error{Kind: KindInvalidQuantity, Message: "invalid quantity"}
	ErrOrderNotFound           = &Error{Kind: KindOrderNotFound, Message: "order not found"}
	ErrInvalidStatusTransition = &Error{Kind: KindInvalidStatusTransition, Message: "invalid status transition"}
	ErrSettlementPersistence   = &Error{Kind: KindSettlementPersistence, Message: "settlement persistence failed"}
	ErrEmptySettlement         = &Error{Kind: KindEmptySettlement, Message: "nothing to settle"}
	ErrInvalidAddress          = &Error{Kind: KindInvalidAddress, Message: "invalid address"}
	ErrAddressNotFound         = &Error{Kind: KindAddressNotFound, Message: "address not found"}
)

func SkuNotFound(skuID int64) *Error {
	return &Error{Kind: KindSkuNotFound, Message: fmt.Sprintf("sku %d not found", skuID)}
}

func InsufficientStock(skuID int64, requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for sku %d: requested %d, available %d", skuID, requested, available),
	}
}

// MaxQuantity bounds a single line so that line and cart totals stay far
// from int64 overflow.
const MaxQuantity = 99_999

func ValidQuantity(quantity int) bool {
	return quantity >= 1 && quantity <= MaxQuantity
}

func InvalidQuantity(quantity int) *Error {
	return &Error{
		Kind:    KindInvalidQuantity,
		Message: fmt.Sprintf("quantity must be between 1 and %d, got %d", MaxQuantity, quantity),
	}
}

func OrderNotFound(orderID string) *Error {
	return &Error{Kind: KindOrderNotFound, Message: fmt.Sprintf("order %s not found", orderID)}
}

func InvalidStatusTransition(from, to OrderStatus) *Error {
	return &Error{
		Kind:    KindInvalidStatusTransition,
		Message: fmt.Sprintf("cannot move order from %s to %s", from, to),
	}
}

// SettlementPersistence reports a settlement that failed after stock was
// touched. It must reach the caller; retrying blindly could double-decrement.
func SettlementPersistence(orderID string, err error) *Error {
	return &Error{
		Kind:    KindSettlementPersistence,
		Message: fmt.Sprintf("settlement of order %s failed to persist", orderID),
		Err:     err,
	}
}

func EmptySettlement(message string) *Error {
	return &Error{Kind: KindEmptySettlement, Message: message}
}

func InvalidAddress(message string) *Error {
	return &Error{Kind: KindInvalidAddress, Message: message}
}

func AddressNotFound(addressID int64) *Error {
	return &Error{Kind: KindAddressNotFound, Message: fmt.Sprintf("address %d not found", addressID)}
}

// KindOf returns the kind of the first domain error in err's chain, or ""
// when there is none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
