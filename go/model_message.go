package orderserver

import (
	ordermapper "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/http/mapper"
)

// Message is a plain acknowledgement body.
type Message struct {
	Message string `json:"message"`
}

// DeliveredAck is returned by POST /mark-order-done/:id.
type DeliveredAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EmptyOrderList is returned by GET /get-orders when the store holds no orders.
type EmptyOrderList struct {
	Message string              `json:"message"`
	Orders  []ordermapper.Order `json:"orders"`
}
