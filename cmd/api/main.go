package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

const shutdownTimeout = 15 * time.Second

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

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pool)
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	redisUp := redis.Reachable()

	var (
		sink  notification.Sink
		queue *notification.RedisQueue
	)
	if cfg.Notification.UseRedisQueue && redisUp {
		queue = notification.NewRedisQueue(redis.Client, redis.Key(cfg.Notification.QueueKey))
		sink = queue
	} else {
		sink = notification.NewStoreSink(store.Repos().Notifications)
	}

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg.Auth, store, logger)
	userService := service.NewUserService(store, cfg.Auth.BcryptCost)
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	lifecycleService := service.NewLifecycleService(store, dispatcher, logger)
	assignmentService := service.NewAssignmentService(store, dispatcher, logger)
	ruleService := service.NewRuleService(store, logger)
	announcementService := service.NewAnnouncementService(store)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Sink:       sink,
		Store:      store,
		Logger:     logger,
		Metrics:    metrics,
	})
	notificationService.RegisterHandlers()

	engine := service.NewEscalationEngine(service.EscalationDependencies{
		Store:       store,
		Sink:        sink,
		Logger:      logger,
		Metrics:     metrics,
		SystemActor: cfg.Escalation.SystemActor,
	})

	var scheduler *worker.EscalationScheduler
	if cfg.Escalation.Enabled {
		var locker worker.PassLocker
		if redisUp {
			locker = redis.Locker()
		}
		scheduler = worker.NewEscalationScheduler(cfg.Escalation, engine, locker, logger, metrics)
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatal("failed to start escalation scheduler", zap.Error(err))
		}
	}

	workerDone := make(chan struct{})
	if queue != nil {
		notifyWorker := worker.NewNotificationWorker(queue, store.Repos().Notifications, logger, metrics,
			cfg.Notification.PollInterval(), cfg.Notification.WorkerConcurrency)
		go func() {
			defer close(workerDone)
			if err := notifyWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("notification worker stopped", zap.Error(err))
			}
		}()
	} else {
		close(workerDone)
	}

	var redisPinger handlers.Pinger
	if redisUp {
		redisPinger = redis
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redisPinger),
		Auth:           handlers.NewAuthHandler(authService, cfg.App.Env != "production"),
		Users:          handlers.NewUsersHandler(userService),
		Complaints:     handlers.NewComplaintsHandler(complaintService, lifecycleService, assignmentService),
		Rules:          handlers.NewRulesHandler(ruleService, engine),
		Inbox:          handlers.NewInboxHandler(announcementService, notificationService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Repos().Users),
	}
	if metrics != nil {
		routes.Metrics = metrics.Handler()
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-time.After(shutdownTimeout):
			logger.Warn("escalation pass still running at shutdown")
		}
	}
	cancel()
	<-workerDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
