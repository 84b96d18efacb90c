package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/estateerp-backend/internal/cron"
	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/internal/items"
	"github.com/angelmondragon/estateerp-backend/internal/ledger"
	"github.com/angelmondragon/estateerp-backend/internal/warehouses"
	"github.com/angelmondragon/estateerp-backend/pkg/config"
	"github.com/angelmondragon/estateerp-backend/pkg/db"
	"github.com/angelmondragon/estateerp-backend/pkg/lock"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
	"github.com/angelmondragon/estateerp-backend/pkg/metrics"
	"github.com/angelmondragon/estateerp-backend/pkg/migrate"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox"
	"github.com/angelmondragon/estateerp-backend/pkg/redis"
)

const lockNamespaceFormat = "erp:cron-worker:%s"

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

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
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

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.FeatureFlags.UseRedisLocks {
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
		locker, err = lock.NewRedisLocker(redisClient.Raw(), lockNamespace(cfg.App.Env), cron.DefaultLockWait)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
	}

	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	outboxService := outbox.NewService(outboxRepo, logg)

	stock, err := inventory.NewService(inventory.ServiceParams{
		Repo:       inventory.NewRepository(conn),
		Ledger:     ledger.NewRepository(conn),
		Warehouses: warehouses.NewRepository(conn),
		Items:      items.NewLookup(conn),
		DB:         dbClient,
		Outbox:     outboxService,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewStockReconciliationJob(cron.StockReconciliationJobParams{
		Logger:   logg,
		DB:       dbClient,
		Stock:    stock,
		Outbox:   outboxService,
		PageSize: cfg.Cron.ReconcilePageSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outboxRepo,
		RetentionDays: cfg.Cron.OutboxRetentionDays,
		MinAttempts:   cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     []cron.Job{reconcileJob, retentionJob},
		Locker:   locker,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockNamespace(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockNamespaceFormat, env)
}
