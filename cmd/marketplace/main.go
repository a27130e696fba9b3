package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()
	logging.SetLevel(cfg.LogLevel)

	logger := logging.NewLoggerV2("marketplace-service")
	logging.Infof("Starting marketplace-service on port %d", cfg.Server.Port)

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureSchema(schemaCtx, db); err != nil {
		cancelSchema()
		logger.Fatal("Failed to apply schema", logging.Fields{"error": err.Error()})
	}
	cancelSchema()

	store := repository.NewPostgresStore(db, logging.NewLoggerV2("postgres-store"))
	m := metrics.New()

	var (
		orderCache  repository.OrderCache
		idempotency repository.IdempotencyStore
		redisClient *redis.Client
	)
	if cfg.Features.EnableOrderCaching || cfg.Features.EnableIdempotencyKey {
		redisClient = repository.NewRedisClient(cfg.Redis)
		defer redisClient.Close()

		if cfg.Features.EnableOrderCaching {
			orderCache = repository.NewRedisOrderCache(redisClient, cfg.Redis.TTL)
		}
		if cfg.Features.EnableIdempotencyKey {
			idempotency = repository.NewRedisIdempotencyStore(redisClient, cfg.Checkout.IdempotencyTTL)
		}
	}

	var eventPublisher service.OrderEventPublisher = events.NoopPublisher{}
	if cfg.Features.EnableOrderEvents {
		publisher := events.NewKafkaPublisher(cfg.Kafka, logging.NewLoggerV2("event-publisher"))
		defer publisher.Close()
		eventPublisher = publisher
	}

	checkoutService := service.NewCheckoutService(store, orderCache, idempotency, eventPublisher, m, cfg)
	orderService := service.NewOrderService(store, orderCache, eventPublisher, m, cfg)

	h := handlers.NewHandlers(handlers.Services{
		Checkout: checkoutService,
		Orders:   orderService,
		Cart:     service.NewCartService(store),
		Address:  service.NewAddressService(store),
		Revenue:  service.NewRevenueService(store),
	}, store, cfg)

	srv := server.New(h, cfg, m)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                  cfg.Server.Port,
			"enable_order_caching":  cfg.Features.EnableOrderCaching,
			"enable_order_events":   cfg.Features.EnableOrderEvents,
			"enable_payment_events": cfg.Features.EnablePaymentEvents,
		})
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var consumer *events.KafkaConsumer
	if cfg.Features.EnablePaymentEvents {
		consumer = events.NewKafkaConsumer(cfg.Kafka, orderService, m, logging.NewLoggerV2("payment-consumer"))
		go func() {
			if err := consumer.Start(context.Background()); err != nil {
				logger.Error("Payment consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if consumer != nil {
		consumer.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}
