package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/basketwise/basketwise-backend/api/routes"
	"github.com/basketwise/basketwise-backend/internal/alerts"
	"github.com/basketwise/basketwise-backend/internal/comparison"
	"github.com/basketwise/basketwise-backend/internal/cron"
	"github.com/basketwise/basketwise-backend/internal/lists"
	"github.com/basketwise/basketwise-backend/internal/prices"
	"github.com/basketwise/basketwise-backend/internal/products"
	"github.com/basketwise/basketwise-backend/internal/refresh"
	"github.com/basketwise/basketwise-backend/internal/seed"
	"github.com/basketwise/basketwise-backend/internal/stores"
	"github.com/basketwise/basketwise-backend/pkg/config"
	"github.com/basketwise/basketwise-backend/pkg/db"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/basketwise/basketwise-backend/pkg/metrics"
	"github.com/basketwise/basketwise-backend/pkg/migrate"
	"github.com/basketwise/basketwise-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	storeRepo := stores.NewRepository(conn)
	priceRepo := prices.NewRepository(conn)

	storeSvc, err := stores.NewService(storeRepo)
	exitOnError(logg, "failed to create store service", err)
	productSvc, err := products.NewService(products.NewRepository(conn))
	exitOnError(logg, "failed to create product service", err)
	priceSvc, err := prices.NewService(priceRepo, storeRepo, dbClient)
	exitOnError(logg, "failed to create price service", err)
	listSvc, err := lists.NewService(lists.NewRepository(conn), dbClient)
	exitOnError(logg, "failed to create shopping list service", err)
	alertSvc, err := alerts.NewService(alerts.NewRepository(conn), storeRepo)
	exitOnError(logg, "failed to create price alert service", err)

	if cfg.FeatureFlags.SeedOnBoot && cfg.App.IsDev() {
		report, err := seed.Run(context.Background(), seed.Params{Stores: storeSvc, Products: productSvc, Prices: priceSvc})
		exitOnError(logg, "failed to seed catalog", err)
		logg.Info(logg.WithFields(context.Background(), map[string]any{
			"stores":   report.Stores,
			"products": report.Products,
			"prices":   report.Prices,
		}), "seeded demo catalog")
	}

	compareMetrics := metrics.NewComparisonMetrics(prometheus.DefaultRegisterer)
	engine, err := comparison.NewEngine(comparison.EngineParams{
		Stores:  storeRepo,
		Prices:  priceRepo,
		Logger:  logg,
		Metrics: compareMetrics,
		Options: comparison.OptionsFromConfig(cfg.Comparison),
	})
	exitOnError(logg, "failed to create comparison engine", err)

	var comparer comparison.Comparer = engine
	if cfg.Comparison.CacheTTL > 0 {
		comparer, err = comparison.NewCachedComparer(comparison.CacheParams{
			Next:    engine,
			Cache:   redisClient,
			TTL:     cfg.Comparison.CacheTTL,
			Policy:  engine.Policy(),
			Logger:  logg,
			Metrics: compareMetrics,
		})
		exitOnError(logg, "failed to create comparison cache", err)
	}

	services := routes.Services{
		Stores:   storeSvc,
		Products: productSvc,
		Prices:   priceSvc,
		Lists:    listSvc,
		Alerts:   alertSvc,
		Comparer: comparer,
	}
	if cfg.Refresh.FeedURL != "" {
		runner, err := newRefreshRunner(cfg, logg, redisClient, priceSvc)
		exitOnError(logg, "failed to create price refresh runner", err)
		services.Refresh = runner
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func newRefreshRunner(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, writer prices.Service) (*refresh.Runner, error) {
	provider, err := refresh.NewFeedProvider(cfg.Refresh.FeedURL, cfg.Refresh.Timeout)
	if err != nil {
		return nil, err
	}
	ingestor, err := refresh.NewIngestor(provider, writer, logg)
	if err != nil {
		return nil, err
	}
	lock, err := cron.NewJobLock(redisClient, "price-refresh", 0)
	if err != nil {
		return nil, err
	}
	return refresh.NewRunner(refresh.RunnerParams{
		Ingestor: ingestor,
		Lock:     lock,
		Store:    redisClient,
		Logger:   logg,
		Timeout:  cfg.Refresh.Timeout,
	})
}

func exitOnError(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
