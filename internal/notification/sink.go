// Package notification moves in-app notifications from producers to storage.
package notification

import (
	"context"
	"errors"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// Sink accepts notifications for delivery.
type Sink interface {
	Enqueue(ctx context.Context, n domain.Notification) error
}

// StoreSink delivers notifications by writing them straight to the store.
type StoreSink struct {
	repo repository.NotificationRepository
}

// NewStoreSink builds a sink bound to repo.
func NewStoreSink(repo repository.NotificationRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Enqueue(ctx context.Context, n domain.Notification) error {
	if err := validate(n); err != nil {
		return err
	}
	return s.repo.Create(ctx, &n)
}

func validate(n domain.Notification) error {
	if n.RecipientID == "" {
		return errors.New("notification recipient required")
	}
	if n.Type == "" {
		return errors.New("notification type required")
	}
	return nil
}
