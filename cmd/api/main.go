package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KMK-tech-v0/fuel/internal/application"
	"github.com/KMK-tech-v0/fuel/internal/config"
	"github.com/KMK-tech-v0/fuel/internal/infrastructure/postgres"
	"github.com/KMK-tech-v0/fuel/internal/scheduler"
	"github.com/KMK-tech-v0/fuel/pkg/database"
	"github.com/KMK-tech-v0/fuel/pkg/idempotency"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
	"github.com/KMK-tech-v0/fuel/pkg/tracing"
)

func main() {
	envFile := flag.String("env", "", "path to an env file (defaults to .env when present)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logging.New(logging.DefaultConfig(config.ServiceName)).WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig(config.ServiceName)
	logConfig.Level = cfg.LogLevel
	logConfig.Environment = cfg.Environment
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting fuel inventory API")
	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		Service:     config.ServiceName,
		Version:     config.Version,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: 1,
		Enabled:     cfg.TracingEnabled,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "enabled", cfg.TracingEnabled, "endpoint", cfg.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(config.ServiceName))

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to PostgreSQL")
		os.Exit(1)
	}
	client, err := database.NewClient(db, database.DefaultOptions("postgres"), m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to instrument PostgreSQL client")
		os.Exit(1)
	}
	defer client.Close()
	logger.Info("Connected to PostgreSQL", "database", cfg.Database.Name)

	idempotencyStore := idempotency.NewGormStore(client.DB())
	if err := idempotencyStore.Migrate(ctx); err != nil {
		logger.WithError(err).Warn("Failed to initialize idempotency table")
	}

	uow := postgres.NewUnitOfWork(client)
	reads := postgres.NewReadRepository(client)
	reconciler := application.NewReconciler(reads, m, logger)

	svc := &services{
		movements:  application.NewMovementCoordinator(uow, m, logger),
		prices:     application.NewPriceTracker(uow, m, logger),
		stock:      application.NewStockService(uow, logger),
		queries:    application.NewQueryService(reads, logger),
		reconciler: reconciler,
		ready:      client.HealthCheck,
	}

	idempotencyOpts := idempotency.DefaultOptions(config.ServiceName, idempotencyStore)
	idempotencyOpts.Retention = cfg.IdempotencyRetention
	idempotencyOpts.Metrics = idempotency.NewMetrics(m.Registry())
	idempotencyOpts.Logger = logger.Logger

	router := newRouter(routerConfig{
		logger:         logger,
		metrics:        m,
		requestTimeout: cfg.RequestTimeout,
		idempotency:    idempotencyOpts,
		tracing:        true,
	}, svc)

	jobs := scheduler.New(time.Minute, logger)
	if cfg.ReconcileSchedule != "" {
		if err := jobs.Add("reconcile", cfg.ReconcileSchedule, func(ctx context.Context) error {
			_, err := reconciler.Reconcile(ctx)
			return err
		}); err != nil {
			logger.WithError(err).Error("Failed to schedule reconciliation")
			os.Exit(1)
		}
	}
	if err := jobs.Add("idempotency-clean", "@hourly", func(ctx context.Context) error {
		deleted, err := idempotencyStore.Purge(ctx, time.Now().UTC())
		if err == nil && deleted > 0 {
			logger.Info("Removed expired idempotency keys", "count", deleted)
		}
		return err
	}); err != nil {
		logger.WithError(err).Error("Failed to schedule idempotency cleanup")
		os.Exit(1)
	}
	jobs.Start()

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	jobs.Stop(shutdownCtx)

	logger.Info("Server stopped")
}
