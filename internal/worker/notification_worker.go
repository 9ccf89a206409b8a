package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// Dequeuer yields queued notifications. A nil notification with a nil error
// means the wait timed out.
type Dequeuer interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*domain.Notification, error)
}

// NotificationWorker drains the notification queue into the store.
type NotificationWorker struct {
	queue       Dequeuer
	repo        repository.NotificationRepository
	logger      *zap.Logger
	metrics     *observability.Metrics
	pollTimeout time.Duration
	concurrency int
	backoff     time.Duration
}

// NewNotificationWorker builds a worker with concurrency consumers.
func NewNotificationWorker(queue Dequeuer, repo repository.NotificationRepository, logger *zap.Logger, metrics *observability.Metrics, pollTimeout time.Duration, concurrency int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &NotificationWorker{
		queue:       queue,
		repo:        repo,
		logger:      logger,
		metrics:     metrics,
		pollTimeout: pollTimeout,
		concurrency: concurrency,
		backoff:     time.Second,
	}
}

// Run consumes until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) error {
	w.logger.Info("notification worker started", zap.Int("consumers", w.concurrency))
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for {
				if err := w.ProcessOne(ctx); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					w.logger.Warn("notification consume failed", zap.Error(err))
					if !sleep(ctx, w.backoff) {
						return nil
					}
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		})
	}
	err := g.Wait()
	w.logger.Info("notification worker stopped")
	return err
}

// ProcessOne waits for a single notification and persists it.
func (w *NotificationWorker) ProcessOne(ctx context.Context) error {
	n, err := w.queue.Dequeue(ctx, w.pollTimeout)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.metrics.RecordNotification("dequeue", err)
		}
		return err
	}
	if n == nil {
		return nil
	}
	err = w.repo.Create(ctx, n)
	w.metrics.RecordNotification("deliver", err)
	if err != nil {
		w.logger.Error("notification dropped",
			zap.String("recipient", n.RecipientID),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
