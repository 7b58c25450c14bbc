package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tradein-service/internal/api/http"
	"github.com/spec-kit/tradein-service/internal/api/http/handlers"
	"github.com/spec-kit/tradein-service/internal/auth"
	"github.com/spec-kit/tradein-service/internal/config"
	"github.com/spec-kit/tradein-service/internal/events"
	"github.com/spec-kit/tradein-service/internal/lifecycle"
	"github.com/spec-kit/tradein-service/internal/notification"
	"github.com/spec-kit/tradein-service/internal/observability"
	"github.com/spec-kit/tradein-service/internal/persistence"
	"github.com/spec-kit/tradein-service/internal/pricing"
	"github.com/spec-kit/tradein-service/internal/repository"
	"github.com/spec-kit/tradein-service/internal/service"
	"github.com/spec-kit/tradein-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	if pg.PoolHandle() == nil {
		logger.Fatal("postgres is required, set POSTGRES_DSN")
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repo := repository.NewTradeInRepository(pg.PoolHandle())
	cache := repository.NewRedisTradeInCache(redis.Client, redis.KeyPrefix, redis.CacheTTL, logger)

	engine := pricing.NewEngine(nil)
	var policy lifecycle.Policy = lifecycle.PermissivePolicy{}
	if cfg.Lifecycle.StrictTransitions {
		policy = lifecycle.NewStrictPolicy()
	}
	machine := lifecycle.NewMachine(policy, engine)

	dispatcher := events.NewInMemoryDispatcher(logger)

	if cfg.Notification.Enabled {
		notifier, err := notification.NewNotifier(cfg.Notification.EmailFrom, newSender(cfg.Notification, logger))
		if err != nil {
			logger.Fatal("failed to init notifier", zap.Error(err))
		}
		worker.StartNotificationWorker(service.NewNotificationService(dispatcher, notifier, metrics, logger))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("kafka writer close", zap.Error(err))
			}
		}()
		worker.StartEventForwarder(publisher, dispatcher)
		logger.Info("event forwarding enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	tradeInService := service.NewTradeInService(service.TradeInDependencies{
		Repo:       repo,
		Cache:      cache,
		Machine:    machine,
		Pricing:    engine,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		TradeIns:       handlers.NewTradeInHandler(tradeInService),
		Admin:          handlers.NewAdminTradeInHandler(tradeInService),
		AuthMiddleware: authMiddleware,
		Registry:       metrics.Registry(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func newSender(cfg config.NotificationConfig, logger *zap.Logger) notification.Sender {
	if cfg.WebhookURL != "" {
		return notification.NewWebhookSender(cfg.WebhookURL, cfg.Timeout())
	}
	return notification.NewLogSender(logger)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
