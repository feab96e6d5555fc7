package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/adapter"
	"github.com/vendio/dropship-core/internal/api"
	"github.com/vendio/dropship-core/internal/config"
	"github.com/vendio/dropship-core/internal/domain/credentials"
	"github.com/vendio/dropship-core/internal/repository/postgres"
	"github.com/vendio/dropship-core/internal/service"
	"github.com/vendio/dropship-core/pkg/locks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	cipher, err := credentials.NewCipher([]byte(cfg.Security.CredentialKey))
	if err != nil {
		logger.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	broker := service.NewCredentialBroker(repos, cipher, logger)
	adapters := adapter.NewRegistry(
		adapter.NewAliExpressAdapter("", cfg.Dropship.AdapterTimeout, broker, logger),
		adapter.NewCJDropshippingAdapter("", cfg.Dropship.AdapterTimeout, broker, logger),
	)

	arena := locks.NewArena()
	services := &service.Services{
		Supplier:       service.NewSupplierService(repos, cipher, logger),
		Relation:       service.NewRelationService(repos, logger),
		Recommendation: service.NewRecommendationService(repos, arena, logger),
		Order:          service.NewOrderService(repos, adapters, arena, cfg.Dropship, logger),
	}

	router := api.NewRouter(cfg, repos, services, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go retryLoop(workerCtx, services.Order, logger)
	go trackingLoop(workerCtx, services.Order, cfg.Dropship.TrackingInterval, logger)

	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}

// retryLoop re-submits pending orders whose backoff has elapsed
func retryLoop(ctx context.Context, orders *service.OrderService, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := orders.RetryPending(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Retry sweep failed", zap.Error(err))
			}
		}
	}
}

// trackingLoop polls supplier status for every order still in flight
func trackingLoop(ctx context.Context, orders *service.OrderService, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := orders.ActiveOrders(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("Failed to list active orders", zap.Error(err))
				}
				continue
			}
			if len(ids) == 0 {
				continue
			}

			results := orders.TrackOrders(ctx, ids)
			logger.Info("Tracking sweep finished", zap.Int("orders", len(results)))
		}
	}
}
