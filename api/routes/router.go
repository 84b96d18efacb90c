package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/estateerp-backend/api/controllers"
	"github.com/angelmondragon/estateerp-backend/api/middleware"
	"github.com/angelmondragon/estateerp-backend/internal/grn"
	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/internal/invoices"
	"github.com/angelmondragon/estateerp-backend/internal/ledger"
	"github.com/angelmondragon/estateerp-backend/internal/payments"
	"github.com/angelmondragon/estateerp-backend/internal/purchaseorders"
	"github.com/angelmondragon/estateerp-backend/internal/warehouses"
	"github.com/angelmondragon/estateerp-backend/pkg/config"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
	"github.com/angelmondragon/estateerp-backend/pkg/redis"
)

// Integration is the adapter surface the API needs for site consumption and expenses.
type Integration interface {
	controllers.MaterialIssuer
	controllers.ExpenseProcessor
}

// Dependencies carries everything the router wires into handlers. Redis may be nil, in which case
// idempotency and rate limiting are skipped.
type Dependencies struct {
	DB             controllers.Pinger
	Redis          *redis.Client
	Metrics        http.Handler
	Warehouses     warehouses.Service
	Inventory      inventory.Service
	Ledger         ledger.Service
	Integration    Integration
	PurchaseOrders purchaseorders.Service
	Grns           grn.Service
	Invoices       invoices.Service
	Payments       payments.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	pingers := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.FeatureFlags.RequireAuth {
			r.Use(middleware.Auth(cfg.JWT, logg))
		} else {
			r.Use(middleware.DevActor(logg))
		}

		// idempotency runs per endpoint so the full route pattern is known when rules are matched
		write := r
		if deps.Redis != nil {
			r.Use(middleware.RateLimit(middleware.NewRateLimitPolicy(
				"api",
				cfg.RateLimit.Window,
				cfg.RateLimit.PerIP,
				cfg.RateLimit.WritesPerActor,
			), deps.Redis, logg))
			write = r.With(middleware.Idempotency(deps.Redis, logg))
		}

		write.Post("/warehouses", controllers.WarehouseCreate(deps.Warehouses, logg))
		r.Get("/warehouses", controllers.WarehouseList(deps.Warehouses, logg))
		r.Get("/warehouses/{warehouseId}", controllers.WarehouseGet(deps.Warehouses, logg))
		write.Post("/warehouses/{warehouseId}/deactivate", controllers.WarehouseDeactivate(deps.Warehouses, logg))

		write.Post("/inventory/stock/add", controllers.StockAdd(deps.Inventory, logg))
		write.Post("/inventory/stock/deduct", controllers.StockDeduct(deps.Inventory, logg))
		write.Post("/inventory/stock/transfer", controllers.StockTransfer(deps.Inventory, logg))
		write.Post("/inventory/stock/adjust", controllers.StockAdjust(deps.Inventory, logg))
		write.Post("/inventory/stock/reserve", controllers.StockReserve(deps.Inventory, logg))
		write.Post("/inventory/stock/release", controllers.StockRelease(deps.Inventory, logg))
		write.Post("/inventory/material-issues", controllers.MaterialIssueCreate(deps.Integration, logg))
		r.Get("/inventory/stock", controllers.StockQuery(deps.Inventory, logg))
		r.Get("/inventory/stock/available", controllers.StockAvailable(deps.Inventory, logg))
		r.Get("/inventory/low-stock", controllers.StockLow(deps.Inventory, logg))
		r.Get("/inventory/items/{itemId}/total", controllers.StockItemTotal(deps.Inventory, logg))
		r.Get("/inventory/warehouses/{warehouseId}/summary", controllers.StockWarehouseSummary(deps.Inventory, logg))
		r.Get("/inventory/ledger", controllers.LedgerHistory(deps.Ledger, logg))
		r.Get("/inventory/ledger/by-reference", controllers.LedgerByReference(deps.Ledger, logg))

		write.Put("/expenses/{expenseId}/items", controllers.ExpenseItemsReplace(deps.Integration, logg))
		r.Get("/expenses/{expenseId}/items", controllers.ExpenseItemsList(deps.Integration, logg))

		write.Post("/purchase-orders", controllers.PurchaseOrderCreate(deps.PurchaseOrders, logg))
		r.Get("/purchase-orders", controllers.PurchaseOrderList(deps.PurchaseOrders, logg))
		r.Get("/purchase-orders/{poId}", controllers.PurchaseOrderGet(deps.PurchaseOrders, logg))
		write.Post("/purchase-orders/{poId}/cancel", controllers.PurchaseOrderCancel(deps.PurchaseOrders, logg))
		r.Delete("/purchase-orders/{poId}", controllers.PurchaseOrderDelete(deps.PurchaseOrders, logg))
		r.Get("/purchase-orders/{poId}/grns", controllers.PurchaseOrderGrns(deps.Grns, logg))

		write.Post("/grns", controllers.GrnCreate(deps.Grns, logg))
		r.Get("/grns", controllers.GrnList(deps.Grns, logg))
		r.Get("/grns/{grnId}", controllers.GrnGet(deps.Grns, logg))
		r.Get("/grns/{grnId}/invoices", controllers.GrnInvoices(deps.Invoices, logg))

		write.Post("/vendor-invoices", controllers.VendorInvoiceCreate(deps.Invoices, logg))
		r.Get("/vendor-invoices", controllers.VendorInvoiceList(deps.Invoices, logg))
		r.Get("/vendor-invoices/{invoiceId}", controllers.VendorInvoiceGet(deps.Invoices, logg))
		r.Get("/vendor-invoices/{invoiceId}/payments", controllers.VendorInvoicePayments(deps.Payments, logg))

		write.Post("/vendor-payments", controllers.VendorPaymentCreate(deps.Payments, logg))
		r.Get("/vendor-payments/{paymentId}", controllers.VendorPaymentGet(deps.Payments, logg))
		r.Get("/vendors/{vendorId}/pending-amount", controllers.VendorPendingAmount(deps.Payments, logg))
	})

	return r
}
