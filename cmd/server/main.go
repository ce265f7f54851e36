package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/broker"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// backend is everything the services persist through
type backend interface {
	service.UserRepository
	service.CatalogRepository
	service.CartRepository
	service.WishlistRepository
	service.OrderRepository
	service.PaymentRepository
	api.Pinger
}

// ephemeralStore holds revoked tokens and checkout locks
type ephemeralStore interface {
	service.TokenDenylist
	service.Locker
}

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront")

	tp, err := util.InitTracer(util.TracerOptions{
		ServiceName: "storefront",
		Environment: cfg.Server.Env,
		Endpoint:    cfg.Observ.JaegerEndpoint,
		SampleRatio: cfg.Observ.SampleRatio,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	readiness := map[string]api.Pinger{}

	var db backend
	switch cfg.Store.Driver {
	case "memory":
		db = memstore.New()
		logger.Warn("Using in-memory store, data is lost on restart")
	case "postgres":
		pg, err := store.NewStore(cfg.Store.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pg.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = pg.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database connected")
		db = pg
		readiness["postgres"] = pg
	default:
		logger.Fatal("Unknown STORE_DRIVER", zap.String("driver", cfg.Store.Driver))
	}

	var ephemeral ephemeralStore = memstore.NewEphemeral()
	var sharedLimiter api.WindowLimiter
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected")

		ephemeral = redisClient
		sharedLimiter = redisClient
		readiness["redis"] = redisClient
	} else {
		logger.Warn("REDIS_ADDR not set, token revocation and rate limits are per process")
	}

	var (
		sink     broker.Sink
		loopback *broker.LoopbackSink
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		sink = producer
		readiness["kafka"] = producer
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		loopback = broker.NewLoopbackSink()
		sink = loopback
		logger.Warn("KAFKA_BROKERS not set, events are handled in process")
	}

	eventPublisher := broker.NewEventPublisher(sink)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(db, tokens, ephemeral, cfg.Auth.AdminEmails)
	catalogService := service.NewCatalogService(db, cfg.Business.ProductsPageSize)
	cartService := service.NewCartService(db, db, eventPublisher, cfg.Business.MaxQuantityDelta)
	wishlistService := service.NewWishlistService(db, db, cartService, eventPublisher)
	orderService := service.NewOrderService(db, db, db, cartService, ephemeral, eventPublisher, cfg.Business.ClearCartOnCheckout)
	paymentService := service.NewPaymentService(db, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var paymentWorker *worker.PaymentWorker
	if loopback != nil {
		loopback.Attach(worker.NewPaymentHandler(paymentService).HandleMessage)
	} else {
		paymentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup)
		paymentWorker = worker.NewPaymentWorker(paymentConsumer, paymentService)
		go func() {
			if err := paymentWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Payment worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Options{
		Auth:           authService,
		Catalog:        catalogService,
		Cart:           cartService,
		Wishlist:       wishlistService,
		Orders:         orderService,
		Limiter:        api.NewRateLimiter(sharedLimiter, cfg.Auth.RateLimitPerMinute, time.Minute),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Readiness:      readiness,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if paymentWorker != nil {
		if err := paymentWorker.Stop(); err != nil {
			logger.Warn("Error stopping payment worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
