// Package storefront wires the vendor-facing client: offline cache, pending
// payment sync, the interception layer and the backend client.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/Apurer/ruchi-orders/internal/app/orderstore"
	ordersobs "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/ruchi-orders/internal/domains/orders/application"
	ordersports "github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/ruchi-orders/internal/platform/observability"
	"github.com/Apurer/ruchi-orders/internal/storefront/backend"
	"github.com/Apurer/ruchi-orders/internal/storefront/cachestorage"
	"github.com/Apurer/ruchi-orders/internal/storefront/interceptor"
	"github.com/Apurer/ruchi-orders/internal/storefront/localdb"
	"github.com/Apurer/ruchi-orders/internal/storefront/offlinecache"
	"github.com/Apurer/ruchi-orders/internal/storefront/pending"
)

const serviceName = "ruchi-storefront"

// App holds the storefront dependencies for one process.
type App struct {
	Config       Config
	Logger       *slog.Logger
	Orders       ordersports.Service
	Pending      *pending.Syncer
	Registration *interceptor.Registration
	Backend      *backend.Client
	Registry     *prometheus.Registry

	closers []func(context.Context) error
}

// Open initialises observability, opens the local database and the order
// store, and registers the interception worker. A worker that fails to
// install is logged and requests go straight to the network.
func Open(ctx context.Context, cfg Config) (*App, error) {
	obsCfg := platformobservability.ConfigFromEnv(serviceName)
	obsCfg.LogOutput = os.Stderr
	instruments, shutdown, err := platformobservability.Init(ctx, obsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	a := &App{Config: cfg, Logger: instruments.Logger}
	a.closers = append(a.closers, shutdown)

	db, err := localdb.Open(cfg.DatabasePath())
	if err != nil {
		return nil, a.abort(err)
	}
	a.closers = append(a.closers, func(context.Context) error { return localdb.Close(db) })

	cache, err := offlinecache.New(ctx, db, cfg.PendingTable)
	if err != nil {
		return nil, a.abort(err)
	}

	repo, cleanupRepo := orderstore.Dial(ctx, cfg.Store, a.Logger)
	a.closers = append(a.closers, func(context.Context) error { cleanupRepo(); return nil })

	a.Orders = ordersobs.New(ordersapp.NewService(repo),
		ordersobs.WithLogger(a.Logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	a.Pending = pending.NewSyncer(a.Orders, cache,
		pending.WithLogger(a.Logger),
		pending.WithTracer(instruments.Tracer("internal.storefront.pending")),
	)

	if err := a.registerWorker(ctx, db); err != nil {
		return nil, a.abort(err)
	}

	a.Backend, err = backend.NewClient(cfg.BackendURL, &http.Client{
		Transport: a.Registration,
		Timeout:   cfg.RequestTimeout,
	})
	if err != nil {
		return nil, a.abort(err)
	}
	return a, nil
}

func (a *App) registerWorker(ctx context.Context, db *gorm.DB) error {
	caches, err := cachestorage.NewSQL(ctx, db)
	if err != nil {
		return err
	}
	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector())
	metrics := interceptor.NewMetrics(a.Registry)

	network := otelhttp.NewTransport(http.DefaultTransport)
	a.Registration = interceptor.NewRegistration(network, a.Logger)

	worker, err := interceptor.NewWorker(a.Config.InterceptorConfig(), caches, network,
		interceptor.WithLogger(a.Logger),
		interceptor.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	if err := a.Registration.Register(ctx, worker); err != nil {
		a.Logger.Warn("interception worker not registered, using the network directly",
			slog.String("cache", worker.CacheName()), slog.String("error", err.Error()))
	}
	return nil
}

// Close releases everything Open acquired, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = errors.Join(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errs
}

func (a *App) abort(err error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(err, a.Close(ctx))
}
