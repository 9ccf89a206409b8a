package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/service"
)

// PassRunner executes one escalation pass.
type PassRunner interface {
	Run(ctx context.Context, now time.Time) (service.PassResult, error)
}

// PassLocker serialises passes across replicas.
type PassLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

// EscalationScheduler triggers escalation passes on a cron schedule.
type EscalationScheduler struct {
	cron     *cron.Cron
	runner   PassRunner
	locker   PassLocker
	schedule string
	lockKey  string
	lockTTL  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewEscalationScheduler builds a scheduler. locker may be nil, in which case
// every tick runs a pass.
func NewEscalationScheduler(cfg config.EscalationConfig, runner PassRunner, locker PassLocker, logger *zap.Logger, metrics *observability.Metrics) *EscalationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationScheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		runner:   runner,
		locker:   locker,
		schedule: cfg.Schedule,
		lockKey:  cfg.LockKey,
		lockTTL:  cfg.LockTTL(),
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Start registers the pass with cron and starts ticking.
func (s *EscalationScheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled escalation pass failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule escalation pass %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("escalation scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the schedule and returns a context done once running passes finish.
func (s *EscalationScheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce executes a pass unless another replica holds the lock. The boolean
// reports whether a pass ran.
func (s *EscalationScheduler) RunOnce(ctx context.Context) (service.PassResult, bool, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, s.lockKey, s.lockTTL)
		switch {
		case errors.Is(err, persistence.ErrLockHeld):
			s.logger.Info("escalation pass skipped, lock held elsewhere")
			s.metrics.RecordEscalationPass("skipped", 0, 0, 0)
			return service.PassResult{}, false, nil
		case err != nil:
			s.logger.Warn("escalation lock unavailable, running unlocked", zap.Error(err))
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.logger.Warn("escalation lock release failed", zap.Error(err))
				}
			}()
		}
	}

	result, err := s.runner.Run(ctx, s.now())
	return result, true, err
}
