package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []OrderStatus{
	StatusPendingPayment,
	StatusAwaitingShipment,
	StatusAwaitingReceipt,
	StatusCompleted,
	StatusCancelled,
}

func TestCanTransitionTo(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{StatusPendingPayment, StatusAwaitingShipment}:  true,
		{StatusAwaitingShipment, StatusAwaitingReceipt}: true,
		{StatusAwaitingReceipt, StatusCompleted}:        true,
		{StatusPendingPayment, StatusCancelled}:         true,
		{StatusAwaitingShipment, StatusCancelled}:       true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				assert.Equal(t, allowed[[2]OrderStatus{from, to}], CanTransitionTo(from, to))
			})
		}
	}
}

func TestCanTransitionTo_NeverBackward(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if CanTransitionTo(from, to) {
				assert.Greater(t, to, from)
			}
		}
	}
}

func TestOrder_Transition(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	order := &Order{ID: "o-1", Status: StatusPendingPayment, CreatedAt: created, UpdatedAt: created}

	later := created.Add(time.Hour)
	require.NoError(t, order.Transition(StatusAwaitingShipment, later))
	assert.Equal(t, StatusAwaitingShipment, order.Status)
	assert.Equal(t, later, order.UpdatedAt)

	err := order.Transition(StatusPendingPayment, later.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, StatusAwaitingShipment, order.Status)
	assert.Equal(t, later, order.UpdatedAt)
}

func TestOrder_TerminalStatesRejectEverything(t *testing.T) {
	for _, terminal := range []OrderStatus{StatusCompleted, StatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		for _, to := range allStatuses {
			order := &Order{Status: terminal}
			err := order.Transition(to, time.Now())
			var de *Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, KindInvalidStatusTransition, de.Kind)
		}
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, StatusAll.Valid())
	assert.False(t, OrderStatus(15).Valid())
	assert.Equal(t, "UNKNOWN", OrderStatus(15).String())
}

func TestOrder_ItemsSubtotalAndSkuIDs(t *testing.T) {
	order := &Order{Items: []OrderLineItem{
		{SkuID: 201, UnitPrice: money.MustParse("59.99"), Quantity: 2},
		{SkuID: 305, UnitPrice: money.MustParse("0.05"), Quantity: 7},
	}}

	assert.Equal(t, money.Cents(12033), order.ItemsSubtotal())
	assert.Equal(t, []int64{201, 305}, order.SkuIDs())
}

func TestAddressSnapshot_Validate(t *testing.T) {
	addr := AddressSnapshot{
		Name:     "Li Lei",
		Phone:    "13800000000",
		Province: "Guangdong",
		City:     "Shenzhen",
		District: "Nanshan",
		Detail:   "Keji Road 1",
	}
	require.NoError(t, addr.Validate())
	assert.Equal(t, "Guangdong Shenzhen Nanshan Keji Road 1", addr.FullAddress())

	missingPhone := addr
	missingPhone.Phone = "  "
	assert.ErrorIs(t, missingPhone.Validate(), ErrInvalidAddress)

	missingDetail := addr
	missingDetail.Detail = ""
	assert.ErrorIs(t, missingDetail.Validate(), ErrInvalidAddress)
}

func TestSku_SpecSummary(t *testing.T) {
	sku := Sku{Specs: map[string]string{"SSD": "1T", "GPU": "RTX 5060"}}
	assert.Equal(t, "GPU: RTX 5060; SSD: 1T", sku.SpecSummary())
	assert.Equal(t, "", Sku{}.SpecSummary())
}

func TestProduct_PriceRange(t *testing.T) {
	product := newTestProduct()
	low, high := product.PriceRange()
	assert.Equal(t, money.Cents(5999), low)
	assert.Equal(t, money.Cents(7999), high)
}

func TestNormalizePaging(t *testing.T) {
	page, size := NormalizePaging(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	page, size = NormalizePaging(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)
}
