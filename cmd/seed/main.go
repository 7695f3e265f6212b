package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/basketwise/basketwise-backend/internal/prices"
	"github.com/basketwise/basketwise-backend/internal/products"
	"github.com/basketwise/basketwise-backend/internal/seed"
	"github.com/basketwise/basketwise-backend/internal/stores"
	"github.com/basketwise/basketwise-backend/pkg/config"
	"github.com/basketwise/basketwise-backend/pkg/db"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/basketwise/basketwise-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env})

	if cfg.App.IsProd() {
		logg.Warn(ctx, "refusing to seed demo catalog in prod")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	storeRepo := stores.NewRepository(conn)
	storeSvc, err := stores.NewService(storeRepo)
	if err != nil {
		logg.Error(ctx, "failed to create store service", err)
		os.Exit(1)
	}
	productSvc, err := products.NewService(products.NewRepository(conn))
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}
	priceSvc, err := prices.NewService(prices.NewRepository(conn), storeRepo, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create price service", err)
		os.Exit(1)
	}

	report, err := seed.Run(ctx, seed.Params{Stores: storeSvc, Products: productSvc, Prices: priceSvc})
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	if report.Skipped {
		logg.Info(ctx, "stores already present; seed skipped")
		return
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"stores":   report.Stores,
		"products": report.Products,
		"prices":   report.Prices,
	}), "demo catalog seeded")
}
