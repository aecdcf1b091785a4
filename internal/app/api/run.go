package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	orderserver "github.com/Apurer/ruchi-orders/go"
	"github.com/Apurer/ruchi-orders/internal/app/orderstore"
	ordersobs "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/ruchi-orders/internal/domains/orders/application"
	ordersports "github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/ruchi-orders/internal/platform/observability"
)

const serviceName = "ruchi-orders-api"

// Run boots the order HTTP API with observability and the configured store wired.
// It blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.ConfigFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repo, cleanupRepo, err := orderstore.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer cleanupRepo()

	orderService := NewOrderService(repo, cfg, instruments)
	router := NewRouter(orderService, cfg)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("order API listening", slog.String("addr", server.Addr), slog.String("store", cfg.Store.Resolved()))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("order API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down order API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// NewOrderService builds the decorated orders service.
func NewOrderService(repo ordersports.Repository, cfg Config, instruments *platformobservability.Instruments) ordersports.Service {
	core := ordersapp.NewService(repo, ordersapp.WithPolicy(cfg.Policy))
	opts := []ordersobs.Option{}
	if instruments != nil {
		opts = append(opts,
			ordersobs.WithLogger(instruments.Logger),
			ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
			ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
		)
	}
	return ordersobs.New(core, opts...)
}

// NewRouter mounts the order routes behind recovery, tracing and CORS middleware.
func NewRouter(service ordersports.Service, cfg Config) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(serviceName))
	engine.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	return orderserver.NewRouterWithGinEngine(engine, orderserver.ApiHandleFunctions{
		OrderAPI: orderserver.NewOrderAPI(service),
	})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
