package storefront

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/ruchi-orders/internal/app/orderstore"
	"github.com/Apurer/ruchi-orders/internal/storefront/backend"
	"github.com/Apurer/ruchi-orders/internal/storefront/interceptor"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OFFLINE_DATA_DIR", "/var/lib/ruchi")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, interceptor.DefaultOrderListPattern, cfg.OrderListPattern)
	assert.Equal(t, interceptor.DefaultCacheName, cfg.CacheName)
	assert.True(t, cfg.ShortCircuitOrderList)
	assert.True(t, cfg.SkipWaiting)
	assert.Equal(t, filepath.Join("/var/lib/ruchi", "RuchiIcecreamDB.db"), cfg.DatabasePath())
	assert.Equal(t, "pendingOrders", cfg.PendingTable)
	assert.Empty(t, cfg.InterceptorConfig().Manifest)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BACKEND_URL", "https://orders.example.com/")
	t.Setenv("ASSET_ORIGIN", "https://shop.example.com")
	t.Setenv("SHORT_CIRCUIT_ORDER_LIST", "false")
	t.Setenv("ASSET_CACHE_NAME", "ruchi-icecream-cache-v5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://orders.example.com", cfg.BackendURL)
	assert.Equal(t, "orders.example.com/get-orders", cfg.OrderListPattern)
	assert.False(t, cfg.ShortCircuitOrderList)

	icfg := cfg.InterceptorConfig()
	assert.Equal(t, "ruchi-icecream-cache-v5", icfg.CacheName)
	assert.Equal(t, "shop.example.com", icfg.Origin.Host)
	assert.Equal(t, interceptor.DefaultManifest, icfg.Manifest)
}

func TestLoadConfig_Rejects(t *testing.T) {
	t.Chdir(t.TempDir())
	cases := map[string]string{
		"BACKEND_URL":             "localhost:5000",
		"ASSET_ORIGIN":            "/frontend",
		"REQUEST_TIMEOUT_SECONDS": "soon",
		"ORDERS_STORE":            "firestore",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func testConfig(t *testing.T, backendURL string, shortCircuit bool) Config {
	t.Helper()
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	u, err := url.Parse(backendURL)
	require.NoError(t, err)
	cfg := Config{
		BackendURL:            backendURL,
		RequestTimeout:        5 * time.Second,
		DataDir:               t.TempDir(),
		DatabaseName:          "RuchiIcecreamDB",
		PendingTable:          "pendingOrders",
		CacheName:             interceptor.DefaultCacheName,
		RealtimeHost:          interceptor.DefaultRealtimeHost,
		OrderListPattern:      u.Host + "/get-orders",
		ShortCircuitOrderList: shortCircuit,
		SkipWaiting:           true,
	}
	cfg.Store.Kind = orderstore.KindMemory
	cfg.Store.Collection = "orders"
	return cfg
}

func openApp(t *testing.T, cfg Config) *App {
	t.Helper()
	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func openTestApp(t *testing.T, backendURL string, shortCircuit bool) *App {
	t.Helper()
	return openApp(t, testConfig(t, backendURL, shortCircuit))
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"No orders found!","orders":[]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpen_OrderListIsShortCircuited(t *testing.T) {
	server := fakeBackend(t)
	app := openTestApp(t, server.URL, true)

	require.NotNil(t, app.Registration.Active())
	_, err := app.Backend.ListOrders(context.Background())
	require.ErrorIs(t, err, backend.ErrOffline)
}

func TestOpen_OrderListReachesBackendWhenShortCircuitOff(t *testing.T) {
	server := fakeBackend(t)
	app := openTestApp(t, server.URL, false)

	list, err := app.Backend.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No orders found!", list.Message)

	view, err := app.Pending.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, view.Offline)
	assert.Empty(t, view.Orders)
}
