package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KMK-tech-v0/fuel/internal/application"
	"github.com/KMK-tech-v0/fuel/internal/config"
	"github.com/KMK-tech-v0/fuel/pkg/idempotency"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
	"github.com/KMK-tech-v0/fuel/pkg/middleware"
)

const banner = "Fuel Inventory API is running!"

type services struct {
	movements  *application.MovementCoordinator
	prices     *application.PriceTracker
	stock      *application.StockService
	queries    *application.QueryService
	reconciler *application.Reconciler
	ready      func(ctx context.Context) error
}

type routerConfig struct {
	logger         *logging.Logger
	metrics        *metrics.Metrics
	requestTimeout time.Duration

	// idempotency is applied to the POST routes when set
	idempotency *idempotency.Options
	tracing     bool
}

func newRouter(cfg routerConfig, svc *services) *gin.Engine {
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(config.ServiceName, cfg.logger.Logger)
	middlewareConfig.RequestTimeout = cfg.requestTimeout
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(cfg.metrics))
	if cfg.tracing {
		router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(config.ServiceName)))
	}

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())
	router.HandleMethodNotAllowed = true

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, banner)
	})
	router.GET("/health", middleware.HealthCheck(config.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(config.ServiceName, svc.ready))
	router.GET("/metrics", middleware.MetricsEndpoint(cfg.metrics))

	api := router.Group("/api")
	writes := api.Group("")
	if cfg.idempotency != nil {
		writes.Use(idempotency.Middleware(cfg.idempotency))
	}
	{
		writes.POST("/fueltransactions", recordMovementHandler(svc.movements, cfg.logger))
		writes.POST("/fuelprices", recordPriceHandler(svc.prices, cfg.logger))

		api.GET("/fueltransactions", listHandler(svc.queries.Movements, cfg.logger))
		api.GET("/fuelinventory", listHandler(svc.queries.InventorySnapshot, cfg.logger))
		api.GET("/fuelinventory/stock", getStockHandler(svc.stock, cfg.logger))
		api.GET("/fuelinventory/reconciliation", reconcileHandler(svc.reconciler, cfg.logger))
		api.GET("/pricefluctuations", listHandler(svc.queries.PriceFluctuations, cfg.logger))

		api.GET("/fueltypes", listHandler(svc.queries.FuelTypes, cfg.logger))
		api.GET("/suppliers", listHandler(svc.queries.Suppliers, cfg.logger))
		api.GET("/townships", listHandler(svc.queries.Townships, cfg.logger))
		api.GET("/sites", listHandler(svc.queries.Sites, cfg.logger))
		api.GET("/warehouses", listHandler(svc.queries.Warehouses, cfg.logger))
	}

	return router
}
