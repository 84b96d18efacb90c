package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/api/routes"
	"github.com/angelmondragon/estateerp-backend/internal/grn"
	"github.com/angelmondragon/estateerp-backend/internal/integration"
	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/internal/invoices"
	"github.com/angelmondragon/estateerp-backend/internal/items"
	"github.com/angelmondragon/estateerp-backend/internal/ledger"
	"github.com/angelmondragon/estateerp-backend/internal/numbering"
	"github.com/angelmondragon/estateerp-backend/internal/payments"
	"github.com/angelmondragon/estateerp-backend/internal/purchaseorders"
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
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency keys and rate limits are disabled")
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.FeatureFlags.UseRedisLocks && redisClient != nil {
		locker, err = lock.NewRedisLocker(redisClient.Raw(), redisClient.LockKey("api:"+cfg.App.Env), cfg.Inventory.LockWait)
		if err != nil {
			return fmt.Errorf("create redis locker: %w", err)
		}
	}

	threshold, err := decimal.NewFromString(cfg.Inventory.LowStockThreshold)
	if err != nil {
		return fmt.Errorf("parse low stock threshold %q: %w", cfg.Inventory.LowStockThreshold, err)
	}

	deps, err := buildDependencies(cfg, logg, dbClient, locker, threshold)
	if err != nil {
		return err
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	if !cfg.FeatureFlags.RequireAuth {
		logg.Warn(ctx, "bearer auth disabled; actors are taken from the X-Actor header")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logCtx := logg.WithFields(sigCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logg.Info(logCtx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, locker lock.Locker, threshold decimal.Decimal) (routes.Dependencies, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	inventoryMetrics := metrics.NewInventoryMetrics(prometheus.DefaultRegisterer)
	procurementMetrics := metrics.NewProcurementMetrics(prometheus.DefaultRegisterer)
	numbers := numbering.NewGenerator(locker, cfg.Inventory.LockTTL)
	lookup := items.NewLookup(conn)
	warehouseRepo := warehouses.NewRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)

	warehouseSvc, err := warehouses.NewService(warehouseRepo, logg)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("create warehouse service: %w", err)
	}
	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:              inventory.NewRepository(conn),
		Ledger:            ledgerRepo,
		Warehouses:        warehouseRepo,
		Items:             lookup,
		DB:                dbClient,
		Outbox:            emitter,
		Metrics:           inventoryMetrics,
		LowStockThreshold: threshold,
		Logger:            logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("create inventory service: %w", err)
	}
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("create ledger service: %w", err)
	}
	adapter, err := integration.NewAdapter(integration.AdapterParams{
		Inventory: inventorySvc,
		Ledger:    ledgerRepo,
		Expenses:  integration.NewExpenseRepository(conn),
		DB:        dbClient,
		Locker:    locker,
		LockTTL:   cfg.Inventory.LockTTL,
		Logger:    logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("create integration adapter: %w", err)
	}

	poRepo := purchaseorders.NewRepository(conn)
	grnRepo := grn.NewRepository(conn)
	invoiceRepo := invoices.NewRepository(conn)

	poSvc, err := purchaseorders.NewService(purchaseorders.ServiceParams{
		Repo:      poRepo,
		Items:     lookup,
		Numbering: numbers,
		DB:        dbClient,
		Outbox:    emitter,
		Metrics:   procurementMetrics,
		Logger:    logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("create purchase order service: %w", err)
	}
	grnSvc, err := grn.NewService(grn.ServiceParams{
		Repo:           grnRepo,
		PurchaseOrders: poRepo,
		Stock:          adapter,
		Numbering:      numbers,
		DB:             dbClient,
		Outbox:         emitter,
		Metrics:        procurementMetrics,
		Logger:         logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("create grn service: %w", err)
	}
	invoiceSvc, err := invoices.NewService(invoices.ServiceParams{
		Repo:           invoiceRepo,
		Grns:           grnRepo,
		PurchaseOrders: poRepo,
		Numbering:      numbers,
		DB:             dbClient,
		Outbox:         emitter,
		Metrics:        procurementMetrics,
		Logger:         logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("create vendor invoice service: %w", err)
	}
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Repo:     payments.NewRepository(conn),
		Invoices: invoiceRepo,
		DB:       dbClient,
		Outbox:   emitter,
		Metrics:  procurementMetrics,
		Logger:   logg,
	})
	if err != nil {
		return routes.Dependencies{}, fmt.Errorf("create vendor payment service: %w", err)
	}

	return routes.Dependencies{
		DB:             dbClient,
		Warehouses:     warehouseSvc,
		Inventory:      inventorySvc,
		Ledger:         ledgerSvc,
		Integration:    adapter,
		PurchaseOrders: poSvc,
		Grns:           grnSvc,
		Invoices:       invoiceSvc,
		Payments:       paymentSvc,
	}, nil
}
