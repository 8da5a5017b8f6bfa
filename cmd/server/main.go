package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/pmbank/settlement/internal/adapter/http"
	"github.com/pmbank/settlement/internal/adapter/http/handler"
	apimiddleware "github.com/pmbank/settlement/internal/adapter/http/middleware"
	kafkaAdapter "github.com/pmbank/settlement/internal/adapter/kafka"
	"github.com/pmbank/settlement/internal/adapter/ledger"
	postgresRepo "github.com/pmbank/settlement/internal/adapter/repository/postgres"
	redisRepo "github.com/pmbank/settlement/internal/adapter/repository/redis"
	"github.com/pmbank/settlement/internal/domain"
	"github.com/pmbank/settlement/internal/infrastructure/config"
	"github.com/pmbank/settlement/internal/infrastructure/logger"
	"github.com/pmbank/settlement/internal/infrastructure/metrics"
	"github.com/pmbank/settlement/internal/infrastructure/postgres"
	"github.com/pmbank/settlement/internal/infrastructure/redis"
	"github.com/pmbank/settlement/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup loggers. zerolog carries the process and request logs,
	// slog goes to the components that take a *slog.Logger.
	zlog := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = zlog
	slogger := logger.NewSlog(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		zlog.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	zlog.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	zlog.Info().Msg("connected to redis")

	// Initialize repositories and infrastructure
	appMetrics := metrics.New()
	txManager := postgresRepo.NewTxManager(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	notificationRepo := postgresRepo.NewNotificationRepository(pool)
	analyticsRepo := postgresRepo.NewAnalyticsRepository(pool)
	retrier := postgresRepo.NewRetrier(slogger)
	idGen := postgresRepo.NewULIDGenerator()
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)

	ledgerClient := ledger.NewClient(cfg.LedgerBaseURL, cfg.LedgerTimeout)

	publisher := kafkaAdapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, slogger)
	defer publisher.Close()

	// Initialize use cases
	settlementUC := usecase.NewSettlementUseCase(ledgerClient, paymentRepo, publisher, idGen, appMetrics, slogger)
	notificationUC := usecase.NewNotificationUseCase(txManager, notificationRepo, retrier, slogger)
	analyticsUC := usecase.NewAnalyticsUseCase(txManager, analyticsRepo, retrier, cache, slogger)

	// Start the two consumer groups. Each group keeps its own offsets,
	// so the projectors advance through the topic independently.
	consumerCtx, stopConsumers := context.WithCancel(ctx)
	defer stopConsumers()

	notificationConsumer := kafkaAdapter.NewConsumer(
		cfg.KafkaBrokers, cfg.KafkaTopic, domain.ConsumerGroupNotification,
		countingHandler(appMetrics, domain.ConsumerGroupNotification, notificationUC.HandlePaymentEvent),
		slogger,
	)
	defer notificationConsumer.Close()

	analyticsConsumer := kafkaAdapter.NewConsumer(
		cfg.KafkaBrokers, cfg.KafkaTopic, domain.ConsumerGroupAnalytics,
		countingHandler(appMetrics, domain.ConsumerGroupAnalytics, analyticsUC.RecordEvent),
		slogger,
	)
	defer analyticsConsumer.Close()

	go runConsumer(consumerCtx, notificationConsumer, domain.ConsumerGroupNotification)
	go runConsumer(consumerCtx, analyticsConsumer, domain.ConsumerGroupAnalytics)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		PaymentHandler:      handler.NewPaymentHandler(settlementUC),
		NotificationHandler: handler.NewNotificationHandler(notificationUC),
		AnalyticsHandler:    handler.NewAnalyticsHandler(analyticsUC),
		HealthHandler:       handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:    idempotencyStore,
		IdempotencyTTL:      cfg.IdempotencyTTL,
		RateLimiter:         apimiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:              &zlog,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		zlog.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info().Msg("shutting down...")

	stopConsumers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("server forced to shutdown")
	}

	zlog.Info().Msg("server stopped")
}

// countingHandler wraps a projector handler so each applied event is
// counted per consumer group.
func countingHandler(m *metrics.Metrics, group string, h kafkaAdapter.EventHandler) kafkaAdapter.EventHandler {
	return func(ctx context.Context, event domain.PaymentEvent) error {
		if err := h(ctx, event); err != nil {
			return err
		}

		m.EventsConsumed.WithLabelValues(group).Inc()

		return nil
	}
}

func runConsumer(ctx context.Context, c *kafkaAdapter.Consumer, group string) {
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("group", group).Msg("consumer exited")
	}
}
