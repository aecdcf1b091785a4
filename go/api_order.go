package orderserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ordermapper "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/http/mapper"
	ordersports "github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
	apierrors "github.com/Apurer/ruchi-orders/internal/shared/errors"
)

const (
	messageHealthy        = "Backend is running successfully!"
	messageOrderAdded     = "Order added successfully!"
	messageNoOrders       = "No orders found!"
	messageOrderDelivered = "Order marked as delivered!"
	messageOrderDeleted   = "Order deleted successfully!"
	messageOrderNotFound  = "Order not found!"
)

// OrderAPI wires HTTP transport with the orders bounded context service.
type OrderAPI struct {
	service ordersports.Service
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service ordersports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// Get /
// Liveness probe
func (api *OrderAPI) Health(c *gin.Context) {
	c.String(http.StatusOK, messageHealthy)
}

// Post /add-order
// Add a new order
func (api *OrderAPI) AddOrder(c *gin.Context) {
	var payload ordermapper.CreateOrder
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	draft, err := ordermapper.ToDraft(payload)
	if err != nil {
		respondOrderServiceError(c, err, "Failed to add order.")
		return
	}
	order, err := api.service.CreateOrder(c.Request.Context(), draft)
	if err != nil {
		respondOrderServiceError(c, err, "Failed to add order.")
		return
	}
	c.JSON(http.StatusCreated, ordermapper.FromCreated(order, messageOrderAdded))
}

// Get /get-orders
// Lists every order, newest first
func (api *OrderAPI) GetOrders(c *gin.Context) {
	orders, err := api.service.ListOrders(c.Request.Context())
	if err != nil {
		respondOrderServiceError(c, err, "Failed to fetch orders.")
		return
	}
	if len(orders) == 0 {
		c.JSON(http.StatusOK, EmptyOrderList{Message: messageNoOrders, Orders: []ordermapper.Order{}})
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDomainList(orders))
}

// Post /mark-order-done/:id
// Marks an order as delivered
func (api *OrderAPI) MarkOrderDone(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := api.service.MarkDelivered(c.Request.Context(), id); err != nil {
		respondOrderServiceError(c, err, "Failed to mark order as delivered.")
		return
	}
	c.JSON(http.StatusOK, DeliveredAck{Success: true, Message: messageOrderDelivered})
}

// Delete /delete-order/:id
// Deletes an order
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), id); err != nil {
		respondOrderServiceError(c, err, "Failed to delete order.")
		return
	}
	c.JSON(http.StatusOK, Message{Message: messageOrderDeleted})
}

func parseIDParam(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(name+" is required"))
		return "", false
	}
	return id, true
}
