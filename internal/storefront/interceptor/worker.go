// Package interceptor sits between the storefront and the network and
// answers requests from versioned caches when the network is unavailable.
package interceptor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Apurer/ruchi-orders/internal/storefront/cachestorage"
)

// Offline bodies returned by the worker.
const (
	OfflineOrderListBody = `{"error":"Offline mode: No data available"}`
	OfflineText          = "You are offline. This resource is not available."
)

var (
	// ErrInstallFailed wraps every precache failure.
	ErrInstallFailed = errors.New("worker install failed")
	// ErrInvalidState is returned when a lifecycle step runs out of order.
	ErrInvalidState = errors.New("invalid worker state")
)

// Worker is one version of the interception layer.
type Worker struct {
	cfg     Config
	caches  cachestorage.Storage
	network http.RoundTripper
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	lifecycle sync.Mutex
	state     atomic.Int32
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

// NewWorker creates a worker in the installing state. network is used for
// precaching and for every request the caches cannot answer.
func NewWorker(cfg Config, caches cachestorage.Storage, network http.RoundTripper, opts ...Option) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if caches == nil {
		return nil, errors.New("cache storage is required")
	}
	if network == nil {
		network = http.DefaultTransport
	}
	if cfg.InstallConcurrency <= 0 {
		cfg.InstallConcurrency = 4
	}
	w := &Worker{
		cfg:     cfg,
		caches:  caches,
		network: network,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.state.Store(int32(StateInstalling))
	return w, nil
}

// State reports the current lifecycle phase.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// CacheName is the versioned cache this worker owns.
func (w *Worker) CacheName() string {
	return w.cfg.CacheName
}

// SkipWaiting reports whether the worker activates straight after install.
func (w *Worker) SkipWaiting() bool {
	return w.cfg.SkipWaiting
}

// Install precaches the manifest. Nothing is stored unless every asset
// answers 2xx; on failure the worker becomes redundant.
func (w *Worker) Install(ctx context.Context) error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	if w.State() != StateInstalling {
		return fmt.Errorf("%w: install from %s", ErrInvalidState, w.State())
	}

	entries, err := w.fetchManifest(ctx)
	if err == nil {
		err = w.storeEntries(ctx, entries)
	}
	if err != nil {
		w.state.Store(int32(StateRedundant))
		w.metrics.event("install_failed")
		w.logger.Error("worker install failed", slog.String("cache", w.cfg.CacheName), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	w.state.Store(int32(StateWaiting))
	w.metrics.event("installed")
	w.metrics.recordPrecached(len(entries))
	w.logger.Info("worker installed", slog.String("cache", w.cfg.CacheName), slog.Int("assets", len(entries)))
	return nil
}

func (w *Worker) fetchManifest(ctx context.Context) ([]cachestorage.Entry, error) {
	entries := make([]cachestorage.Entry, len(w.cfg.Manifest))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.InstallConcurrency)
	for i, path := range w.cfg.Manifest {
		g.Go(func() error {
			target, err := w.cfg.manifestURL(path)
			if err != nil {
				return err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return err
			}
			resp, err := w.network.RoundTrip(req)
			if err != nil {
				return fmt.Errorf("precache %s: %w", target, err)
			}
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return fmt.Errorf("precache %s: unexpected status %d", target, resp.StatusCode)
			}
			key, _ := cachestorage.KeyFor(req)
			entry, err := cachestorage.EntryFromResponse(key, resp, w.now())
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (w *Worker) storeEntries(ctx context.Context, entries []cachestorage.Entry) error {
	if err := w.caches.Open(ctx, w.cfg.CacheName); err != nil {
		return fmt.Errorf("open cache %s: %w", w.cfg.CacheName, err)
	}
	for _, entry := range entries {
		if err := w.caches.Put(ctx, w.cfg.CacheName, entry); err != nil {
			return fmt.Errorf("store %s: %w", entry.Key, err)
		}
	}
	return nil
}

// Activate deletes every cache except the worker's own and starts handling fetches.
func (w *Worker) Activate(ctx context.Context) error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	if w.State() != StateWaiting {
		return fmt.Errorf("%w: activate from %s", ErrInvalidState, w.State())
	}

	names, err := w.caches.Names(ctx)
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}
	for _, name := range names {
		if name == w.cfg.CacheName {
			continue
		}
		if _, err := w.caches.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete stale cache %s: %w", name, err)
		}
		w.logger.Info("deleted stale cache", slog.String("cache", name))
	}

	w.state.Store(int32(StateActive))
	w.metrics.event("activated")
	w.logger.Info("worker activated", slog.String("cache", w.cfg.CacheName))
	return nil
}

func (w *Worker) retire() {
	if w.State() != StateRedundant {
		w.state.Store(int32(StateRedundant))
		w.metrics.event("redundant")
	}
}

// RoundTrip routes req. Workers that are not active pass requests straight to the network.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if w.State() != StateActive {
		return w.network.RoundTrip(req)
	}
	target := req.URL.String()
	switch {
	case w.cfg.RealtimeHost != "" && strings.Contains(target, w.cfg.RealtimeHost):
		return w.cacheThenNetwork(req)
	case w.cfg.ShortCircuitOrderList && w.cfg.OrderListPattern != "" && strings.Contains(target, w.cfg.OrderListPattern):
		w.metrics.fetch(ruleOrderList, sourceCanned)
		return cannedResponse(req, http.StatusOK, "application/json", OfflineOrderListBody), nil
	default:
		return w.cacheNetworkOrOffline(req)
	}
}

func (w *Worker) cacheThenNetwork(req *http.Request) (*http.Response, error) {
	if resp, ok := w.fromCache(req); ok {
		w.metrics.fetch(ruleRealtime, sourceCache)
		return resp, nil
	}
	resp, err := w.network.RoundTrip(req)
	if err != nil {
		w.metrics.fetch(ruleRealtime, sourceError)
		return nil, err
	}
	w.metrics.fetch(ruleRealtime, sourceNetwork)
	return resp, nil
}

func (w *Worker) cacheNetworkOrOffline(req *http.Request) (*http.Response, error) {
	if resp, ok := w.fromCache(req); ok {
		w.metrics.fetch(ruleDefault, sourceCache)
		return resp, nil
	}
	resp, err := w.network.RoundTrip(req)
	if err != nil {
		w.logger.Warn("network unavailable, answering offline",
			slog.String("url", req.URL.String()), slog.String("error", err.Error()))
		w.metrics.fetch(ruleDefault, sourceOffline)
		return cannedResponse(req, http.StatusServiceUnavailable, "text/plain; charset=utf-8", OfflineText), nil
	}
	w.metrics.fetch(ruleDefault, sourceNetwork)
	return resp, nil
}

func (w *Worker) fromCache(req *http.Request) (*http.Response, bool) {
	key, ok := cachestorage.KeyFor(req)
	if !ok {
		return nil, false
	}
	entry, found, err := w.caches.Match(req.Context(), key)
	if err != nil {
		w.logger.Warn("cache lookup failed", slog.String("url", key), slog.String("error", err.Error()))
		return nil, false
	}
	if !found {
		return nil, false
	}
	return entry.Response(req), true
}

func cannedResponse(req *http.Request, status int, contentType, body string) *http.Response {
	return cachestorage.Entry{
		Status: status,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   []byte(body),
	}.Response(req)
}
