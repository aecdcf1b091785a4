// Package orderstore selects and opens the order repository for a process.
package orderstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	ordersmemory "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/memory"
	ordersmongo "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/persistence/mongo"
	orderspostgres "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/persistence/postgres"
	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	ordersports "github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
	"github.com/Apurer/ruchi-orders/internal/platform/migrations"
	platformmongo "github.com/Apurer/ruchi-orders/internal/platform/mongo"
	platformpostgres "github.com/Apurer/ruchi-orders/internal/platform/postgres"
)

// Kinds of order store.
const (
	KindMemory   = "memory"
	KindPostgres = "postgres"
	KindMongo    = "mongo"
)

// Config describes which document store holds the orders.
type Config struct {
	// Kind is empty when the store should be picked from the connection settings.
	Kind          string
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string
	Collection    string
}

// FromEnv reads ORDERS_STORE, POSTGRES_DSN, MONGO_URI, MONGO_DATABASE and ORDERS_COLLECTION.
func FromEnv() (Config, error) {
	cfg := Config{
		Kind:          strings.ToLower(strings.TrimSpace(os.Getenv("ORDERS_STORE"))),
		PostgresDSN:   strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		MongoURI:      strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase: envDefault("MONGO_DATABASE", "ruchi"),
		Collection:    envDefault("ORDERS_COLLECTION", "orders"),
	}
	switch cfg.Kind {
	case "", KindMemory, KindPostgres, KindMongo:
	default:
		return Config{}, fmt.Errorf("ORDERS_STORE must be one of memory, postgres, mongo; got %q", cfg.Kind)
	}
	if cfg.Kind == KindPostgres && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("ORDERS_STORE=postgres requires POSTGRES_DSN")
	}
	if cfg.Kind == KindMongo && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("ORDERS_STORE=mongo requires MONGO_URI")
	}
	return cfg, nil
}

// Resolved returns the store kind that Open will try first.
func (c Config) Resolved() string {
	if c.Kind != "" {
		return c.Kind
	}
	switch {
	case c.PostgresDSN != "":
		return KindPostgres
	case c.MongoURI != "":
		return KindMongo
	default:
		return KindMemory
	}
}

// Open connects the configured store. An explicitly selected store that
// cannot be reached is an error; an auto-detected one falls back to memory.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (ordersports.Repository, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	kind := cfg.Resolved()
	repo, cleanup, err := open(ctx, kind, cfg, logger)
	if err == nil {
		logger.Info("order repository configured", slog.String("store", kind), slog.String("collection", cfg.Collection))
		return repo, cleanup, nil
	}
	if cfg.Kind != "" {
		return nil, func() {}, fmt.Errorf("open %s order store: %w", kind, err)
	}
	logger.Warn("order store unavailable, falling back to in-memory repository",
		slog.String("store", kind), slog.String("error", err.Error()))
	return ordersmemory.NewRepository(), func() {}, nil
}

// ErrUnavailable wraps every call made on the repository returned by Dial
// when the configured store could not be reached.
var ErrUnavailable = errors.New("order store unavailable")

// Dial connects the configured store without the in-memory fallback. When the
// store cannot be reached the returned repository fails every call with
// ErrUnavailable, so callers holding a local copy can serve it instead.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (ordersports.Repository, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	kind := cfg.Resolved()
	repo, cleanup, err := open(ctx, kind, cfg, logger)
	if err != nil {
		logger.Warn("order store unavailable", slog.String("store", kind), slog.String("error", err.Error()))
		return Unavailable(fmt.Errorf("open %s order store: %w", kind, err)), func() {}
	}
	logger.Info("order repository configured", slog.String("store", kind), slog.String("collection", cfg.Collection))
	return repo, cleanup
}

// Unavailable returns a repository whose every call fails with cause wrapped in ErrUnavailable.
func Unavailable(cause error) ordersports.Repository {
	return unavailable{err: fmt.Errorf("%w: %w", ErrUnavailable, cause)}
}

type unavailable struct{ err error }

func (u unavailable) Create(context.Context, *ordersdomain.Order) error { return u.err }

func (u unavailable) GetByID(context.Context, string) (*ordersdomain.Order, error) {
	return nil, u.err
}

func (u unavailable) List(context.Context) ([]*ordersdomain.Order, error) { return nil, u.err }

func (u unavailable) ListPending(context.Context) ([]*ordersdomain.Order, error) {
	return nil, u.err
}

func (u unavailable) SetDelivered(context.Context, string) error { return u.err }

func (u unavailable) SetPendingAmount(context.Context, string, decimal.Decimal) error {
	return u.err
}

func (u unavailable) Delete(context.Context, string) error { return u.err }

func open(ctx context.Context, kind string, cfg Config, logger *slog.Logger) (ordersports.Repository, func(), error) {
	switch kind {
	case KindPostgres:
		db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.Run(db, cfg.Collection); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate orders table: %w", err)
		}
		return orderspostgres.NewRepository(db, cfg.Collection), func() { _ = sqlDB.Close() }, nil
	case KindMongo:
		client, err := platformmongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := ordersmongo.NewRepository(client.Database(cfg.MongoDatabase), cfg.Collection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn("failed to ensure order indexes", slog.String("error", err.Error()))
		}
		return repo, func() { _ = platformmongo.Disconnect(client) }, nil
	default:
		logger.Warn("no order store configured, using in-memory repository")
		return ordersmemory.NewRepository(), func() {}, nil
	}
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
