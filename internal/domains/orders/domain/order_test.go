package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft() Draft {
	return Draft{
		CustomerName:   "Asha",
		Address:        "12 Elm St",
		OrderDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Quantity:       10,
		FlavorSize:     "Vanilla/Large",
		CostPerPiece:   decimal.RequireFromString("25.00"),
		AdvancePayment: decimal.RequireFromString("100.00"),
	}
}

func TestNewOrder_DerivesTotals(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	order, err := NewOrder("ord-1", sampleDraft(), createdAt, Policy{})
	require.NoError(t, err)

	assert.True(t, order.TotalPayment.Equal(decimal.RequireFromString("250.00")))
	assert.True(t, order.PendingAmount.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, createdAt, order.CreatedAt)
	assert.False(t, order.IsDelivered)
	assert.True(t, order.IsPending())
}

func TestNewOrder_RoundsToCurrencyPrecision(t *testing.T) {
	draft := sampleDraft()
	draft.Quantity = 3
	draft.CostPerPiece = decimal.RequireFromString("0.335")
	draft.AdvancePayment = decimal.Zero

	order, err := NewOrder("ord-2", draft, time.Now(), Policy{})
	require.NoError(t, err)
	assert.Equal(t, "1.01", order.TotalPayment.StringFixed(CurrencyPlaces))
	assert.True(t, order.PendingAmount.Equal(order.TotalPayment.Sub(order.AdvancePayment)))
}

func TestNewOrder_AdvanceOverTotalAllowedByDefault(t *testing.T) {
	draft := sampleDraft()
	draft.AdvancePayment = decimal.RequireFromString("300")

	order, err := NewOrder("ord-3", draft, time.Now(), Policy{})
	require.NoError(t, err)
	assert.Equal(t, "-50.00", order.PendingAmount.StringFixed(CurrencyPlaces))
}

func TestNewOrder_AdvanceOverTotalRejectedByPolicy(t *testing.T) {
	draft := sampleDraft()
	draft.AdvancePayment = decimal.RequireFromString("300")

	_, err := NewOrder("ord-3", draft, time.Now(), Policy{RejectAdvanceOverTotal: true})
	require.ErrorIs(t, err, ErrInvalidOrder)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "advancePayment")
}

func TestDraftValidate_ReportsEveryField(t *testing.T) {
	err := Draft{Quantity: 0, CostPerPiece: decimal.NewFromInt(-1), AdvancePayment: decimal.NewFromInt(-1)}.Validate(Policy{})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	for _, field := range []string{"customerName", "address", "flavorSize", "orderDate", "quantity", "costPerPiece", "advancePayment"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestMarkDelivered_Idempotent(t *testing.T) {
	order, err := NewOrder("ord-4", sampleDraft(), time.Now(), Policy{})
	require.NoError(t, err)

	order.MarkDelivered()
	order.MarkDelivered()
	assert.True(t, order.IsDelivered)
}

func TestSetPendingAmount(t *testing.T) {
	order, err := NewOrder("ord-5", sampleDraft(), time.Now(), Policy{})
	require.NoError(t, err)

	require.NoError(t, order.SetPendingAmount(decimal.RequireFromString("400")))
	assert.Equal(t, "400.00", order.PendingAmount.StringFixed(CurrencyPlaces))
	assert.Equal(t, "250.00", order.TotalPayment.StringFixed(CurrencyPlaces))

	require.NoError(t, order.SetPendingAmount(decimal.Zero))
	assert.False(t, order.IsPending())

	assert.ErrorIs(t, order.SetPendingAmount(decimal.NewFromInt(-5)), ErrNegativePendingAmount)
	assert.ErrorIs(t, order.SetPendingAmount(decimal.RequireFromString("1e-2000000000")), ErrAmountOutOfRange)
	assert.True(t, order.PendingAmount.IsZero())
}

func TestInAmountRange(t *testing.T) {
	cases := map[string]bool{
		"0":                    true,
		"9999999999.99":        true,
		"9999999999.994":       true,
		"0.000000000000000001": true,
		"9999999999.995":       false,
		"10000000000":          false,
		"1e10":                 false,
		"1e2000000000":         false,
		"1e-2000000000":        false,
		"0e-2000000000":        false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, InAmountRange(decimal.RequireFromString(raw)), raw)
	}
}

func TestDraftValidate_RejectsAmountsOutOfRange(t *testing.T) {
	draft := sampleDraft()
	draft.CostPerPiece = decimal.RequireFromString("1e2000000000")
	draft.AdvancePayment = decimal.RequireFromString("1e-2000000000")
	var verr *ValidationError
	require.True(t, errors.As(draft.Validate(Policy{}), &verr))
	assert.Equal(t, "is out of range", verr.Fields["costPerPiece"])
	assert.Equal(t, "is out of range", verr.Fields["advancePayment"])

	draft = sampleDraft()
	draft.Quantity = 1_000_000_000
	draft.CostPerPiece = decimal.RequireFromString("9999999999")
	require.True(t, errors.As(draft.Validate(Policy{}), &verr))
	assert.Equal(t, "is out of range", verr.Fields["totalPayment"])

	draft = sampleDraft()
	draft.Quantity = 1 << 40
	require.True(t, errors.As(draft.Validate(Policy{}), &verr))
	assert.Equal(t, "is out of range", verr.Fields["quantity"])
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []*Order{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "c", CreatedAt: base.Add(time.Minute)},
	}
	SortNewestFirst(orders)
	assert.Equal(t, []string{"b", "c", "a"}, []string{orders[0].ID, orders[1].ID, orders[2].ID})
}
