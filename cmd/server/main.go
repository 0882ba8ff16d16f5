// Package main provides the entry point for the directory API service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devrev/bizdir/internal/auth"
	"github.com/devrev/bizdir/internal/config"
	"github.com/devrev/bizdir/internal/handler"
	"github.com/devrev/bizdir/internal/health"
	"github.com/devrev/bizdir/internal/logging"
	"github.com/devrev/bizdir/internal/metrics"
	"github.com/devrev/bizdir/internal/notify"
	"github.com/devrev/bizdir/internal/scheduler"
	"github.com/devrev/bizdir/internal/server"
	"github.com/devrev/bizdir/internal/service"
	"github.com/devrev/bizdir/internal/store"
	"github.com/devrev/bizdir/internal/util/workerpool"
	"github.com/devrev/bizdir/internal/validation"
	"go.uber.org/zap"
)

const (
	refreshTimeout     = 2 * time.Minute
	notifyDrainTimeout = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting directory service",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.String("notifications_driver", cfg.Notifications.Driver),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
	logger.Info("directory service shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := store.NewPostgresStore(startCtx, store.PostgresConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConnections,
		MinConns: cfg.Database.MinConnections,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pg.Close()
	logger.Info("postgres store initialized")

	events, err := store.NewRedisEventStore(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer events.Close()
	logger.Info("redis event store initialized")

	cache := store.NewInMemoryCache(cfg.Cache.MaxSize, time.Minute, logger)
	defer cache.Close()

	m := metrics.NewMetrics()

	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		logger.Info("metrics server started",
			zap.Int("port", cfg.Metrics.Port),
			zap.String("path", cfg.Metrics.Path),
		)
	}

	// Notifications are delivered off the request path
	sender, closeSender, err := newSender(cfg.Notifications, logger)
	if err != nil {
		return err
	}
	defer closeSender()

	pool := workerpool.New(workerpool.Config{
		Name:       "notifications",
		MaxWorkers: cfg.Notifications.Workers,
		QueueSize:  cfg.Notifications.QueueSize,
		Logger:     logger,
	})
	// Queued notifications go out before the broker connection closes, on
	// every return path
	defer func() {
		if err := pool.Stop(notifyDrainTimeout); err != nil {
			logger.Error("failed to drain notifications", zap.Error(err))
		}
	}()
	notifier := notify.NewAsyncNotifier(sender, pool, m, logger)

	validator := validation.NewValidator()
	analytics := service.NewAnalyticsService(pg, cfg.Analytics.DedupWindow, cfg.Analytics.HashSalt, m, logger)
	promotions := service.NewPromotionService(pg, cfg.Promotions.DefaultDays, notifier, m, logger)
	services := handler.Services{
		Businesses:    service.NewBusinessService(pg, validator, notifier, logger),
		Reviews:       service.NewReviewService(pg, validator, logger),
		Verifications: service.NewVerificationService(pg, notifier, logger),
		Categories:    service.NewCategoryService(pg, cache, cfg.Cache.CategoryTTL, validator, notifier, logger),
		Analytics:     analytics,
		Promotions:    promotions,
		Webhooks: service.NewWebhookService(service.WebhookConfig{
			Secret:    cfg.Payments.WebhookSecret,
			Tolerance: cfg.Payments.SignatureTolerance,
			EventTTL:  cfg.Payments.EventTTL,
		}, events, promotions, m, logger),
		Dashboard: service.NewDashboardService(pg, logger),
		Reports:   service.NewReportService(analytics, logger),
	}

	var refresher *scheduler.Scheduler
	if cfg.Promotions.RefreshEnabled {
		refresher, err = scheduler.New(cfg.Promotions.RefreshSchedule, promotions, refreshTimeout, logger)
		if err != nil {
			return err
		}
		refresher.Start()
	}

	httpServer := server.NewServer(cfg, server.Dependencies{
		Services: services,
		Parser:   auth.NewParser(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.CookieName),
		Profiles: pg,
		Checks: map[string]health.Pinger{
			"postgres": pg,
			"redis":    events,
			"cache":    cache,
		},
		Metrics: m,
	}, logger)
	httpServer.SetupRoutes()

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- err
		}
	}()

	logger.Info("HTTP server started", zap.Int("port", cfg.Server.Port))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case serveErr = <-errChan:
		logger.Error("server error", zap.Error(serveErr))
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown HTTP server", zap.Error(err))
	}

	if refresher != nil {
		if err := refresher.Stop(ctx); err != nil {
			logger.Error("failed to stop promotion refresh", zap.Error(err))
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}

	return serveErr
}

// newSender builds the delivery end of the notifier chain.
func newSender(cfg config.NotificationsConfig, logger *zap.Logger) (notify.Notifier, func(), error) {
	switch cfg.Driver {
	case "rabbitmq":
		n, err := notify.NewRabbitMQNotifier(notify.RabbitMQConfig{
			URL:         cfg.AMQPURL,
			Exchange:    cfg.Exchange,
			Queue:       cfg.Queue,
			RoutingKey:  cfg.RoutingKey,
			FromAddress: cfg.FromAddress,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		logger.Info("rabbitmq notifier initialized", zap.String("exchange", cfg.Exchange))
		return n, func() {
			if err := n.Close(); err != nil {
				logger.Warn("failed to close rabbitmq notifier", zap.Error(err))
			}
		}, nil
	default:
		return notify.NewLogNotifier(logger), func() {}, nil
	}
}
