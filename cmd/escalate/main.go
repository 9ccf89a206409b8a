// Command escalate runs a single escalation pass and prints its report as
// JSON. It is meant for external schedulers that cannot host the API process.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

type report struct {
	Ran    bool               `json:"ran"`
	Result service.PassResult `json:"result"`
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 2
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.DSN == "" {
		logger.Error("POSTGRES_DSN is required")
		return 2
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return 1
	}
	defer pg.Close()
	store := repository.NewPostgresStore(pg.PoolHandle())

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	redisUp := redis.Reachable()

	var (
		sink   notification.Sink = notification.NewStoreSink(store.Repos().Notifications)
		locker worker.PassLocker
	)
	if redisUp {
		if cfg.Notification.UseRedisQueue {
			sink = notification.NewRedisQueue(redis.Client, redis.Key(cfg.Notification.QueueKey))
		}
		locker = redis.Locker()
	}

	engine := service.NewEscalationEngine(service.EscalationDependencies{
		Store:       store,
		Sink:        sink,
		Logger:      logger,
		SystemActor: cfg.Escalation.SystemActor,
	})
	scheduler := worker.NewEscalationScheduler(cfg.Escalation, engine, locker, logger, nil)

	result, ran, err := scheduler.RunOnce(ctx)
	if err != nil {
		logger.Error("escalation pass failed", zap.Error(err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report{Ran: ran, Result: result}); err != nil {
		logger.Error("write report", zap.Error(err))
		return 1
	}
	return 0
}
