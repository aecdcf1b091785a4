package interceptor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/ruchi-orders/internal/storefront/cachestorage"
)

var testManifest = []string{"/frontend/", "/frontend/styles.css", "/frontend/images/logo.png"}

// switchableNetwork fails every request while offline.
type switchableNetwork struct {
	offline atomic.Bool
	calls   atomic.Int32
	next    http.RoundTripper
}

func (n *switchableNetwork) RoundTrip(req *http.Request) (*http.Response, error) {
	n.calls.Add(1)
	if n.offline.Load() {
		return nil, errors.New("dial tcp: network is unreachable")
	}
	return n.next.RoundTrip(req)
}

type fixture struct {
	origin  *url.URL
	server  *httptest.Server
	network *switchableNetwork
	caches  *cachestorage.Memory
	metrics *Metrics
	reg     *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mux := http.NewServeMux()
	for _, path := range testManifest {
		body := "asset:" + path
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != path {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, body)
		})
	}
	mux.HandleFunc("/get-orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/frontend/live.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "live")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	origin, err := url.Parse(server.URL)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	return &fixture{
		origin:  origin,
		server:  server,
		network: &switchableNetwork{next: server.Client().Transport},
		caches:  cachestorage.NewMemory(),
		metrics: NewMetrics(reg),
		reg:     reg,
	}
}

func (f *fixture) config(cacheName string) Config {
	cfg := DefaultConfig(f.origin)
	cfg.CacheName = cacheName
	cfg.Manifest = append([]string(nil), testManifest...)
	return cfg
}

func (f *fixture) worker(t *testing.T, cfg Config) *Worker {
	t.Helper()
	w, err := NewWorker(cfg, f.caches, f.network, WithMetrics(f.metrics))
	require.NoError(t, err)
	return w
}

func (f *fixture) activeWorker(t *testing.T) *Worker {
	t.Helper()
	w := f.worker(t, f.config(DefaultCacheName))
	require.NoError(t, w.Install(context.Background()))
	require.NoError(t, w.Activate(context.Background()))
	return w
}

func get(t *testing.T, rt http.RoundTripper, target string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestWorker_InstallPrecachesManifest(t *testing.T) {
	f := newFixture(t)
	w := f.worker(t, f.config(DefaultCacheName))
	assert.Equal(t, StateInstalling, w.State())

	require.NoError(t, w.Install(context.Background()))
	assert.Equal(t, StateWaiting, w.State())

	names, err := f.caches.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultCacheName}, names)

	entry, ok, err := f.caches.Match(context.Background(), f.server.URL+"/frontend/styles.css")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "asset:/frontend/styles.css", string(entry.Body))
	assert.Equal(t, float64(len(testManifest)), testutil.ToFloat64(f.metrics.Precached))
}

func TestWorker_InstallFailsOnMissingAsset(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(DefaultCacheName)
	cfg.Manifest = append(cfg.Manifest, "/frontend/images/missing.webp")
	w := f.worker(t, cfg)

	err := w.Install(context.Background())
	require.ErrorIs(t, err, ErrInstallFailed)
	assert.ErrorContains(t, err, "unexpected status 404")
	assert.Equal(t, StateRedundant, w.State())

	_, ok, err := f.caches.Match(context.Background(), f.server.URL+"/frontend/styles.css")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, w.Activate(context.Background()), ErrInvalidState)
}

func TestWorker_InstallFailsWhenOffline(t *testing.T) {
	f := newFixture(t)
	f.network.offline.Store(true)
	w := f.worker(t, f.config(DefaultCacheName))

	require.ErrorIs(t, w.Install(context.Background()), ErrInstallFailed)
	assert.Equal(t, StateRedundant, w.State())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Lifecycle.WithLabelValues("install_failed")))
}

func TestWorker_ActivateDeletesStaleCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.caches.Put(ctx, "ruchi-icecream-cache-v3", cachestorage.Entry{Key: "old", Status: 200}))
	require.NoError(t, f.caches.Open(ctx, "unrelated"))

	w := f.worker(t, f.config(DefaultCacheName))
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))
	assert.Equal(t, StateActive, w.State())

	names, err := f.caches.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultCacheName}, names)
	assert.ErrorIs(t, w.Install(ctx), ErrInvalidState)
}

func TestWorker_OfflineRouting(t *testing.T) {
	f := newFixture(t)
	w := f.activeWorker(t)
	f.network.offline.Store(true)

	resp, body := get(t, w, "http://localhost:5000/get-orders")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, OfflineOrderListBody, body)

	resp, body = get(t, w, f.server.URL+"/frontend/images/logo.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "asset:/frontend/images/logo.png", body)

	resp, body = get(t, w, f.server.URL+"/frontend/live.html")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, OfflineText, body)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Fetches.WithLabelValues(ruleOrderList, sourceCanned)))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Fetches.WithLabelValues(ruleDefault, sourceCache)))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Fetches.WithLabelValues(ruleDefault, sourceOffline)))
}

func TestWorker_OrderListShortCircuitsWhileOnline(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(DefaultCacheName)
	cfg.OrderListPattern = f.origin.Host + "/get-orders"
	w := f.worker(t, cfg)
	require.NoError(t, w.Install(context.Background()))
	require.NoError(t, w.Activate(context.Background()))
	before := f.network.calls.Load()

	_, body := get(t, w, f.server.URL+"/get-orders")
	assert.JSONEq(t, OfflineOrderListBody, body)
	assert.Equal(t, before, f.network.calls.Load())
}

func TestWorker_OrderListReachesNetworkWhenShortCircuitDisabled(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(DefaultCacheName)
	cfg.OrderListPattern = f.origin.Host + "/get-orders"
	cfg.ShortCircuitOrderList = false
	w := f.worker(t, cfg)
	require.NoError(t, w.Install(context.Background()))
	require.NoError(t, w.Activate(context.Background()))

	_, body := get(t, w, f.server.URL+"/get-orders")
	assert.Equal(t, "[]", body)
}

func TestWorker_RealtimeHostIsCacheFirst(t *testing.T) {
	f := newFixture(t)
	w := f.activeWorker(t)
	ctx := context.Background()
	realtime := "https://firestore.googleapis.com/v1/projects/ruchi/databases/(default)/documents/orders"
	require.NoError(t, f.caches.Put(ctx, DefaultCacheName, cachestorage.Entry{
		Key:    realtime,
		Status: http.StatusOK,
		Body:   []byte(`{"documents":[]}`),
	}))
	f.network.offline.Store(true)

	_, body := get(t, w, realtime)
	assert.Equal(t, `{"documents":[]}`, body)

	req, err := http.NewRequest(http.MethodGet, "https://firestore.googleapis.com/v1/other", nil)
	require.NoError(t, err)
	_, err = w.RoundTrip(req)
	assert.Error(t, err)
}

func TestWorker_InactivePassesThrough(t *testing.T) {
	f := newFixture(t)
	w := f.worker(t, f.config(DefaultCacheName))

	_, body := get(t, w, f.server.URL+"/frontend/live.html")
	assert.Equal(t, "live", body)
}

func TestNewWorker_RequiresOrigin(t *testing.T) {
	cfg := DefaultConfig(nil)
	_, err := NewWorker(cfg, cachestorage.NewMemory(), nil)
	assert.Error(t, err)
}
