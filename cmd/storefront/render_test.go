package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	"github.com/Apurer/ruchi-orders/internal/storefront/backend"
	"github.com/Apurer/ruchi-orders/internal/storefront/pending"
)

func sampleOrder() *ordersdomain.Order {
	return &ordersdomain.Order{
		ID:             "ord-1",
		CustomerName:   "Asha",
		Address:        "12 Elm St",
		OrderDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Quantity:       10,
		FlavorSize:     "Vanilla/Large",
		CostPerPiece:   decimal.NewFromInt(25),
		AdvancePayment: decimal.NewFromInt(100),
		TotalPayment:   decimal.NewFromInt(250),
		PendingAmount:  decimal.NewFromInt(150),
		CreatedAt:      time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestRenderPending_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderPending(&buf, pending.View{Orders: []*ordersdomain.Order{sampleOrder()}}))

	out := buf.String()
	assert.Contains(t, out, "Asha")
	assert.Contains(t, out, "01/05/2024")
	assert.Contains(t, out, "₹150.00")
	assert.NotContains(t, out, messageOfflineNotice)
}

func TestRenderPending_OfflineNotice(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderPending(&buf, pending.View{Orders: []*ordersdomain.Order{sampleOrder()}, Offline: true}))
	assert.Contains(t, buf.String(), messageOfflineNotice)
}

func TestRenderPending_EmptyMessages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderPending(&buf, pending.View{}))
	assert.Equal(t, messageNoPending+"\n", buf.String())

	buf.Reset()
	require.NoError(t, renderPending(&buf, pending.View{Offline: true}))
	assert.Equal(t, messageNothingOffline+"\n", buf.String())
}

func TestRenderUpdate_FullyPaid(t *testing.T) {
	order := sampleOrder()
	order.PendingAmount = decimal.Zero

	var buf bytes.Buffer
	require.NoError(t, renderUpdate(&buf, pending.Update{Order: order, Removed: true}))
	assert.Contains(t, buf.String(), "₹0.00")
	assert.Contains(t, buf.String(), "no longer pending")
}

func TestRenderHistory(t *testing.T) {
	delivered := sampleOrder()
	delivered.ID = "ord-2"
	delivered.IsDelivered = true

	var buf bytes.Buffer
	require.NoError(t, renderHistory(&buf, backend.OrderList{Orders: []*ordersdomain.Order{delivered, sampleOrder()}}))
	assert.Contains(t, buf.String(), "Delivered")
	assert.Contains(t, buf.String(), "Pending delivery")

	buf.Reset()
	require.NoError(t, renderHistory(&buf, backend.OrderList{Message: "No orders found!"}))
	assert.Equal(t, "No orders found!\n", buf.String())
}

func TestDisplayDate_Zero(t *testing.T) {
	assert.Equal(t, "N/A", displayDate(time.Time{}))
}
