package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/api"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/compliance"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/config"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/redis"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/service"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/storage/postgres"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/workers"
	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/logger"
)

type Components struct {
	logger        *slog.Logger
	cfg           *config.Config
	HttpServer    *api.Server
	Postgres      *postgres.Postgres
	Redis         *redis.Redis
	Sweeper       *workers.OverdueSweeper
	WebhookSender *service.WebhookSender
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	logger.Info("initializing postgres")
	storage, err := postgres.NewPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	logger.Info("initializing redis")
	redisClient, err := redis.NewRedis(ctx, cfg, logger)
	if err != nil {
		storage.Pool.Close()
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	statsCache := redis.NewStatsCache(redisClient)
	eventQueue := redis.NewEventQueue(redisClient.Client, "compliance:events")
	clock := compliance.RealClock{}

	incidentSvc := service.NewIncidentService(storage.Incidents, storage.Notifications, eventQueue, statsCache, clock, logger)
	notificationSvc := service.NewNotificationService(storage.Incidents, storage.Notifications, storage.Templates, statsCache, clock, logger)
	templateSvc := service.NewTemplateService(storage.Templates)
	statsSvc := service.NewStatsService(storage.Incidents, storage.Notifications, statsCache, clock, logger)

	svc := service.NewService(incidentSvc, notificationSvc, templateSvc, statsSvc)

	httpServer := api.NewServer(cfg, logger, svc, storage.Pool, redisClient)

	var sweeper *workers.OverdueSweeper
	if !cfg.Sweeper.Disabled {
		sweeper = workers.NewOverdueSweeper(storage.Notifications, eventQueue, statsCache, clock, cfg.Sweeper.Interval, logger)
	}

	var sender *service.WebhookSender
	if !cfg.Webhook.Disabled {
		sender = service.NewWebhookSender(logger, cfg.Webhook, eventQueue)
	}

	logger.Info("components initialized")

	return &Components{
		logger:        logger,
		cfg:           cfg,
		HttpServer:    httpServer,
		Postgres:      storage,
		Redis:         redisClient,
		Sweeper:       sweeper,
		WebhookSender: sender,
	}, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("shutting down components")

	c.Postgres.Pool.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("components stopped", slog.Duration("latency", time.Since(start)))
}
