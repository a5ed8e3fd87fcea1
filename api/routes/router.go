package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/fleetmaint-backend/api/controllers"
	"github.com/angelmondragon/fleetmaint-backend/api/middleware"
	"github.com/angelmondragon/fleetmaint-backend/internal/inventory"
	"github.com/angelmondragon/fleetmaint-backend/internal/workorders"
	"github.com/angelmondragon/fleetmaint-backend/pkg/config"
	"github.com/angelmondragon/fleetmaint-backend/pkg/logger"
	"github.com/angelmondragon/fleetmaint-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	inventoryService inventory.Service,
	workOrderService workorders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	// a nil *redis.Client must not become a non-nil interface
	var cachePinger controllers.Pinger
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		cachePinger = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cachePinger, logg))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		// applied per route so the full route pattern is resolved when it runs
		idem := middleware.Idempotency(idempotencyStore, cfg.Idempotency, logg)

		r.Route("/inventory", func(r chi.Router) {
			r.With(idem).Post("/items", controllers.RegisterInventoryItem(inventoryService, logg))
			r.Get("/items/{itemId}/stock", controllers.GetInventoryStock(inventoryService, logg))
			r.With(idem).Put("/items/{itemId}/stock", controllers.UpdateInventoryStock(inventoryService, logg))
			r.Put("/items/{itemId}/stock-levels", controllers.SetInventoryStockLevels(inventoryService, logg))
			r.Get("/items/{itemId}/transactions", controllers.ListInventoryTransactions(inventoryService, logg))
			r.Get("/reorder", controllers.ListReorderCandidates(inventoryService, logg))
		})

		r.With(idem).Post("/work-orders", controllers.OpenWorkOrder(workOrderService, logg))
		r.Route("/work-orders/{workOrderId}", func(r chi.Router) {
			r.Get("/line-items", controllers.ListLineItems(workOrderService, logg))
			r.With(idem).Post("/line-items", controllers.AddLineItem(workOrderService, logg))
			r.Put("/line-items/{lineItemId}", controllers.UpdateLineItem(workOrderService, logg))
			r.Delete("/line-items/{lineItemId}", controllers.DeleteLineItem(workOrderService, logg))
			r.Get("/costs", controllers.WorkOrderCosts(workOrderService, logg))
			r.Put("/status", controllers.SetWorkOrderStatus(workOrderService, logg))
		})

		r.Post("/line-items/cost-preview", controllers.PreviewLineItemCost(workOrderService, logg))
	})

	return r
}
