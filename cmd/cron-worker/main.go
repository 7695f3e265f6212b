package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/basketwise/basketwise-backend/internal/alerts"
	"github.com/basketwise/basketwise-backend/internal/cron"
	"github.com/basketwise/basketwise-backend/internal/prices"
	"github.com/basketwise/basketwise-backend/internal/refresh"
	"github.com/basketwise/basketwise-backend/internal/stores"
	"github.com/basketwise/basketwise-backend/pkg/config"
	"github.com/basketwise/basketwise-backend/pkg/db"
	"github.com/basketwise/basketwise-backend/pkg/logger"
	"github.com/basketwise/basketwise-backend/pkg/metrics"
	"github.com/basketwise/basketwise-backend/pkg/migrate"
	"github.com/basketwise/basketwise-backend/pkg/pubsub"
	"github.com/basketwise/basketwise-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	conn := dbClient.DB()
	storeRepo := stores.NewRepository(conn)
	priceRepo := prices.NewRepository(conn)
	priceSvc, err := prices.NewService(priceRepo, storeRepo, dbClient)
	exitOnError(ctx, logg, "failed to create price service", err)

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	var schedulers []*cron.Service

	if cfg.Refresh.Enabled && cfg.Refresh.FeedURL != "" {
		runner, err := newRefreshRunner(cfg, logg, redisClient, priceSvc)
		exitOnError(ctx, logg, "failed to create price refresh runner", err)
		job, err := cron.NewPriceRefreshJob(cron.PriceRefreshJobParams{Logger: logg, Runner: runner})
		exitOnError(ctx, logg, "failed to create price refresh job", err)
		svc, err := newScheduler(logg, redisClient, cronMetrics, "price-refresh", cfg.Refresh.Interval, job)
		exitOnError(ctx, logg, "failed to create price refresh scheduler", err)
		schedulers = append(schedulers, svc)
	} else {
		logg.Info(ctx, "price refresh disabled; no feed configured")
	}

	publisher, closePublisher, err := newAlertPublisher(ctx, cfg, logg)
	exitOnError(ctx, logg, "failed to create alert publisher", err)
	defer closePublisher()

	scanner, err := alerts.NewScanner(alerts.ScannerParams{
		Alerts:    alerts.NewRepository(conn),
		Prices:    priceRepo,
		Publisher: publisher,
		Logger:    logg,
		Cooldown:  cfg.Alerts.Cooldown,
	})
	exitOnError(ctx, logg, "failed to create alert scanner", err)
	alertJob, err := cron.NewPriceAlertJob(cron.PriceAlertJobParams{Logger: logg, Scanner: scanner})
	exitOnError(ctx, logg, "failed to create price alert job", err)
	alertSvc, err := newScheduler(logg, redisClient, cronMetrics, "price-alert-scan", cfg.Alerts.ScanInterval, alertJob)
	exitOnError(ctx, logg, "failed to create price alert scheduler", err)
	schedulers = append(schedulers, alertSvc)

	logg.Info(ctx, "starting cron worker")

	group, groupCtx := errgroup.WithContext(ctx)
	for _, svc := range schedulers {
		group.Go(func() error {
			return svc.Run(groupCtx)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// newScheduler wraps a single job in a scheduler with its own replica lock.
func newScheduler(logg *logger.Logger, redisClient *redis.Client, m *metrics.CronJobMetrics, name string, interval time.Duration, job cron.Job) (*cron.Service, error) {
	lock, err := cron.NewJobLock(redisClient, "cron:"+name, 0)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Name:     name,
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  m,
		Interval: interval,
	})
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

// newAlertPublisher publishes to Pub/Sub when a GCP project is configured and
// falls back to logging otherwise.
func newAlertPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger) (alerts.Publisher, func(), error) {
	if cfg.GCP.ProjectID == "" {
		logg.Info(ctx, "no gcp project configured; triggered alerts will be logged")
		return alerts.LogPublisher{Logger: logg}, func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := alerts.NewPubSubPublisher(client.AlertsPublisher())
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return publisher, func() {
		if err := client.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}, nil
}

func exitOnError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
