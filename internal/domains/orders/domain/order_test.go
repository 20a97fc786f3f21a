package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func validOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder("ord-1",
		Customer{Name: "Ada Lovelace", Email: "ada@example.com"},
		LineItem{ProductRef: "SKU-X", Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
		"1 Main St, Rogers, AR", "")
	require.NoError(t, err)
	return order
}

func TestNewOrder_DefaultsToPending(t *testing.T) {
	order := validOrder(t)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, DefaultPaymentMethod, order.PaymentMethod)
	require.True(t, order.Total().Equal(decimal.RequireFromString("59.97")))
}

func TestNewOrder_Validation(t *testing.T) {
	customer := Customer{Name: "Ada", Email: "ada@example.com"}
	item := LineItem{ProductRef: "SKU-X", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}

	_, err := NewOrder("", Customer{Email: "ada@example.com"}, item, "addr", "")
	require.ErrorIs(t, err, ErrInvalidCustomerName)

	_, err = NewOrder("", Customer{Name: "Ada", Email: "nope"}, item, "addr", "")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewOrder("", customer, LineItem{Quantity: 1}, "addr", "")
	require.ErrorIs(t, err, ErrInvalidProductRef)

	_, err = NewOrder("", customer, LineItem{ProductRef: "SKU-X"}, "addr", "")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrder("", customer, LineItem{ProductRef: "SKU-X", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}, "addr", "")
	require.ErrorIs(t, err, ErrInvalidUnitPrice)

	_, err = NewOrder("", customer, item, "   ", "")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestTransitionTo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	order := validOrder(t)
	changed, err := order.TransitionTo(StatusShipped, now)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, now, order.UpdatedAt)

	changed, err = order.TransitionTo(StatusShipped, now.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, now, order.UpdatedAt)

	_, err = order.TransitionTo(StatusPending, now)
	require.ErrorIs(t, err, ErrInvalidTransition)

	changed, err = order.TransitionTo(StatusDelivered, now)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = order.TransitionTo(StatusCancelled, now)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = order.TransitionTo(Status("lost"), now)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusCancelled))
	require.True(t, CanTransition(StatusShipped, StatusCancelled))
	require.True(t, CanTransition(StatusPending, StatusDelivered))
	require.False(t, CanTransition(StatusDelivered, StatusCancelled))
	require.False(t, CanTransition(StatusCancelled, StatusShipped))
	require.False(t, CanTransition(StatusCancelled, StatusPending))
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" Shipped ")
	require.NoError(t, err)
	require.Equal(t, StatusShipped, status)

	_, err = ParseStatus("returned")
	require.ErrorIs(t, err, ErrInvalidStatus)
}
