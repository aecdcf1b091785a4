package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderserver "github.com/Apurer/ruchi-orders/go"
	ordermapper "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/http/mapper"
	ordersmemory "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/ruchi-orders/internal/domains/orders/application"
	apierrors "github.com/Apurer/ruchi-orders/internal/shared/errors"
	"github.com/Apurer/ruchi-orders/internal/storefront/interceptor"
)

func newOrderServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	calls := 0
	service := ordersapp.NewService(ordersmemory.NewRepository(), ordersapp.WithClock(func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}))
	router := orderserver.NewRouterWithGinEngine(gin.New(), orderserver.ApiHandleFunctions{
		OrderAPI: orderserver.NewOrderAPI(service),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, baseURL string, transport http.RoundTripper) *Client {
	t.Helper()
	client, err := NewClient(baseURL, &http.Client{Transport: transport, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func orderForm(customer string) ordermapper.CreateOrder {
	return ordermapper.CreateOrder{
		CustomerName:   customer,
		Address:        "12 Elm St",
		OrderDate:      "2024-05-01",
		Quantity:       ordermapper.NewNumeric("10"),
		FlavorSize:     "Vanilla/Large",
		CostPerPiece:   ordermapper.NewNumeric("25"),
		AdvancePayment: ordermapper.NewNumeric("100"),
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ", nil)
	require.Error(t, err)
}

func TestClient_OrderLifecycle(t *testing.T) {
	server := newOrderServer(t)
	// No worker registered yet, so the registration passes straight through.
	client := newClient(t, server.URL, interceptor.NewRegistration(http.DefaultTransport, nil))
	ctx := context.Background()

	msg, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Backend is running successfully!", msg)

	empty, err := client.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Orders)
	assert.Equal(t, "No orders found!", empty.Message)

	created, err := client.CreateOrder(ctx, orderForm("Asha"))
	require.NoError(t, err)
	assert.Equal(t, 250.0, created.TotalPayment)
	assert.Equal(t, 150.0, created.PendingAmount)
	_, err = client.CreateOrder(ctx, orderForm("Ravi"))
	require.NoError(t, err)

	list, err := client.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, "Ravi", list.Orders[0].CustomerName)
	assert.Equal(t, created.ID, list.Orders[1].ID)
	assert.Equal(t, "150", list.Orders[1].PendingAmount.String())

	msg, err = client.MarkDelivered(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order marked as delivered!", msg)

	msg, err = client.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order deleted successfully!", msg)

	list, err = client.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Orders, 1)
}

func TestClient_ProblemResponses(t *testing.T) {
	server := newOrderServer(t)
	client := newClient(t, server.URL, http.DefaultTransport)
	ctx := context.Background()

	_, err := client.MarkDelivered(ctx, "missing")
	var problem apierrors.ProblemDetail
	require.True(t, errors.As(err, &problem))
	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Equal(t, "Order not found!", problem.Detail)

	form := orderForm("Asha")
	form.Address = ""
	_, err = client.CreateOrder(ctx, form)
	require.True(t, errors.As(err, &problem))
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "All fields are required!", problem.Detail)
}

func TestClient_OfflinePlaceholders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get-orders", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(interceptor.OfflineOrderListBody))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(interceptor.OfflineText))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := newClient(t, server.URL, http.DefaultTransport)

	_, err := client.ListOrders(context.Background())
	require.ErrorIs(t, err, ErrOffline)
	assert.Contains(t, err.Error(), "Offline mode: No data available")

	_, err = client.Health(context.Background())
	require.ErrorIs(t, err, ErrOffline)
}

func TestClient_UnreachableIsOffline(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newClient(t, url, http.DefaultTransport)
	_, err := client.ListOrders(context.Background())
	require.ErrorIs(t, err, ErrOffline)
}
