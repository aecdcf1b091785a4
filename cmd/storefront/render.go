package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	"github.com/Apurer/ruchi-orders/internal/storefront/backend"
	"github.com/Apurer/ruchi-orders/internal/storefront/pending"
)

const (
	messageNoPending      = "No pending orders available."
	messageNothingOffline = "No orders available offline."
	messageOfflineNotice  = "Offline: showing the last synced pending orders."
	messageHistoryOffline = "Offline mode: No data available"
)

func renderPending(w io.Writer, view pending.View) error {
	if len(view.Orders) == 0 {
		if view.Offline {
			_, err := fmt.Fprintln(w, messageNothingOffline)
			return err
		}
		_, err := fmt.Fprintln(w, messageNoPending)
		return err
	}
	if view.Offline {
		if _, err := fmt.Fprintln(w, messageOfflineNotice); err != nil {
			return err
		}
	}
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Customer", "Address", "Order Date", "Qty", "Flavor & Size", "Cost/Piece", "Total", "Advance", "Pending")
	for _, o := range view.Orders {
		if err := table.Append([]string{
			o.ID,
			o.CustomerName,
			o.Address,
			displayDate(o.OrderDate),
			strconv.Itoa(o.Quantity),
			o.FlavorSize,
			rupeesDecimal(o.CostPerPiece),
			rupeesDecimal(o.TotalPayment),
			rupeesDecimal(o.AdvancePayment),
			rupeesDecimal(o.PendingAmount),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderUpdate(w io.Writer, update pending.Update) error {
	if _, err := fmt.Fprintf(w, "Updated pending amount for %s: %s\n",
		update.Order.ID, rupeesDecimal(update.Order.PendingAmount)); err != nil {
		return err
	}
	if update.Removed {
		_, err := fmt.Fprintf(w, "Order %s is fully paid and no longer pending.\n", update.Order.ID)
		return err
	}
	return nil
}

func renderHistory(w io.Writer, list backend.OrderList) error {
	if len(list.Orders) == 0 {
		message := list.Message
		if message == "" {
			message = "No orders found!"
		}
		_, err := fmt.Fprintln(w, message)
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Customer", "Order Date", "Qty", "Flavor & Size", "Total", "Pending", "Status", "Placed")
	for _, o := range list.Orders {
		if err := table.Append([]string{
			o.ID,
			o.CustomerName,
			displayDate(o.OrderDate),
			strconv.Itoa(o.Quantity),
			o.FlavorSize,
			rupeesDecimal(o.TotalPayment),
			rupeesDecimal(o.PendingAmount),
			deliveryStatus(o),
			o.CreatedAt.Local().Format("02/01/2006 15:04"),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func deliveryStatus(o *ordersdomain.Order) string {
	if o.IsDelivered {
		return "Delivered"
	}
	return "Pending delivery"
}

func displayDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("02/01/2006")
}

func rupeesDecimal(d decimal.Decimal) string {
	return "₹" + d.StringFixed(ordersdomain.CurrencyPlaces)
}
