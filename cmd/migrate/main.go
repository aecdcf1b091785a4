package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Apurer/ruchi-orders/internal/app/orderstore"
	ordersmongo "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/persistence/mongo"
	"github.com/Apurer/ruchi-orders/internal/platform/migrations"
	platformmongo "github.com/Apurer/ruchi-orders/internal/platform/mongo"
	platformpostgres "github.com/Apurer/ruchi-orders/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = godotenv.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := orderstore.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	switch cfg.Resolved() {
	case orderstore.KindPostgres:
		db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
		defer cleanup()
		if db == nil {
			log.Fatal("POSTGRES_DSN not set or connection failed; cannot migrate orders table")
		}
		if err := migrations.Run(db, cfg.Collection); err != nil {
			log.Fatalf("failed to migrate orders table: %v", err)
		}
	case orderstore.KindMongo:
		client, err := platformmongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer platformmongo.Disconnect(client)
		repo := ordersmongo.NewRepository(client.Database(cfg.MongoDatabase), cfg.Collection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("failed to create order indexes: %v", err)
		}
	default:
		log.Fatal("no persistent order store configured; set POSTGRES_DSN or MONGO_URI")
	}
	logger.Info("order store schema is up to date", slog.String("store", cfg.Resolved()), slog.String("collection", cfg.Collection))
}
