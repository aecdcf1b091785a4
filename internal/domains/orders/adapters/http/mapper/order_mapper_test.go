package mapper

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
)

func decodeCreateOrder(t *testing.T, body string) CreateOrder {
	t.Helper()
	var in CreateOrder
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func requireValidationMessage(t *testing.T, err error, message string) *ordersdomain.ValidationError {
	t.Helper()
	var verr *ordersdomain.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, message, verr.Message)
	return verr
}

func TestToDraft_AcceptsNumbersAndNumericStrings(t *testing.T) {
	in := decodeCreateOrder(t, `{
		"customerName":"Asha","address":"12 Elm St","orderDate":"2024-05-01",
		"quantity":"10","flavorSize":"Vanilla/Large","costPerPiece":25,"advancePayment":"100.00"}`)

	draft, err := ToDraft(in)
	require.NoError(t, err)
	assert.Equal(t, 10, draft.Quantity)
	assert.True(t, draft.CostPerPiece.Equal(decimal.NewFromInt(25)))
	assert.True(t, draft.AdvancePayment.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), draft.OrderDate)
}

func TestToDraft_MissingFields(t *testing.T) {
	in := decodeCreateOrder(t, `{"customerName":"Asha","quantity":3}`)

	_, err := ToDraft(in)
	verr := requireValidationMessage(t, err, MessageFieldsRequired)
	assert.Contains(t, verr.Fields, "address")
	assert.Contains(t, verr.Fields, "advancePayment")
	assert.NotContains(t, verr.Fields, "quantity")
	assert.ErrorIs(t, err, ordersdomain.ErrInvalidOrder)
}

func TestToDraft_InvalidNumbers(t *testing.T) {
	in := decodeCreateOrder(t, `{
		"customerName":"Asha","address":"12 Elm St","orderDate":"2024-05-01",
		"quantity":"2.5","flavorSize":"Mango","costPerPiece":"abc","advancePayment":0}`)

	_, err := ToDraft(in)
	verr := requireValidationMessage(t, err, MessageInvalidNumbers)
	assert.Contains(t, verr.Fields, "quantity")
	assert.Contains(t, verr.Fields, "costPerPiece")
}

func TestToDraft_RejectsNumbersOutOfRange(t *testing.T) {
	base := func(quantity, cost, advance string) CreateOrder {
		return CreateOrder{
			CustomerName:   "Asha",
			Address:        "12 Elm St",
			OrderDate:      "2024-05-01",
			Quantity:       NewNumeric(quantity),
			FlavorSize:     "Mango",
			CostPerPiece:   NewNumeric(cost),
			AdvancePayment: NewNumeric(advance),
		}
	}
	cases := []struct {
		name  string
		in    CreateOrder
		field string
	}{
		{"huge cost exponent", base("1", "1e2000000000", "0"), "costPerPiece"},
		{"tiny advance exponent", base("1", "10", "1e-2000000000"), "advancePayment"},
		{"cost above column range", base("1", "10000000000", "0"), "costPerPiece"},
		{"quantity beyond int64", base("1e30", "10", "0"), "quantity"},
		{"quantity beyond int32", base("2147483648", "1", "0"), "quantity"},
		{"quantity with huge negative exponent", base("0e-2000000000", "1", "0"), "quantity"},
		{"total above column range", base("2000000000", "9999", "0"), "costPerPiece"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			_, err := ToDraft(tc.in)
			verr := requireValidationMessage(t, err, MessageInvalidNumbers)
			assert.Contains(t, verr.Fields, tc.field)
			assert.Less(t, time.Since(start), time.Second)
		})
	}

	draft, err := ToDraft(base("2147483647", "1", "0"))
	require.NoError(t, err)
	assert.Equal(t, 2147483647, draft.Quantity)
}

func TestToDraft_InvalidDate(t *testing.T) {
	in := decodeCreateOrder(t, `{
		"customerName":"Asha","address":"12 Elm St","orderDate":"yesterday",
		"quantity":1,"flavorSize":"Mango","costPerPiece":10,"advancePayment":0}`)

	_, err := ToDraft(in)
	requireValidationMessage(t, err, MessageInvalidDate)
}

func TestParseOrderDate_Layouts(t *testing.T) {
	for _, value := range []string{"2024-05-01", "2024-05-01T10:30", "2024-05-01T10:30:00Z", "2024-05-01T10:30:00.123+02:00"} {
		_, ok := ParseOrderDate(value)
		assert.True(t, ok, value)
	}
	_, ok := ParseOrderDate("01/05/2024")
	assert.False(t, ok)
}

func TestFromDomain_FormatsMoneyAndTimestamps(t *testing.T) {
	order, err := ordersdomain.NewOrder("ord-1", ordersdomain.Draft{
		CustomerName:   "Asha",
		Address:        "12 Elm St",
		OrderDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Quantity:       3,
		FlavorSize:     "Mango",
		CostPerPiece:   decimal.RequireFromString("0.335"),
		AdvancePayment: decimal.Zero,
	}, time.Date(2024, 5, 2, 9, 15, 30, 123456789, time.FixedZone("IST", 19800)), ordersdomain.Policy{})
	require.NoError(t, err)

	view := FromDomain(order)
	assert.Equal(t, 1.01, view.TotalPayment)
	assert.Equal(t, "2024-05-01T00:00:00.000Z", view.OrderDate)
	assert.Equal(t, "2024-05-02T03:45:30.123Z", view.CreatedAt)

	back, err := ToDomain(view)
	require.NoError(t, err)
	assert.True(t, back.PendingAmount.Equal(decimal.RequireFromString("1.01")))
	assert.True(t, back.CreatedAt.Equal(time.Date(2024, 5, 2, 3, 45, 30, 123000000, time.UTC)))
}

func TestFromDomainList_EmptyIsNotNil(t *testing.T) {
	assert.NotNil(t, FromDomainList(nil))
}
