package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// LifecycleService moves complaints along the status graph.
type LifecycleService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{store: store, dispatcher: dispatcher, logger: logger}
}

// ApplyTransition changes the complaint status to target and records one
// status_changed history entry in the same transaction. On any error the
// complaint is left unchanged.
func (s *LifecycleService) ApplyTransition(ctx context.Context, complaintID string, target domain.ComplaintStatus, actor domain.Actor, comment string) (*domain.Complaint, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": target})
	}
	current, err := s.store.Repos().Complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, storeError(err, "complaint", complaintID)
	}
	if !domain.CanTransition(current.Status, target) {
		return nil, apperrors.NewInvalidTransition(string(current.Status), string(target))
	}
	if err := authorizeTransition(actor, current, target); err != nil {
		return nil, err
	}

	comment = strings.TrimSpace(comment)
	updated := current.Clone()
	updated.Status = target

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Complaints.Update(ctx, updated, current.Version); err != nil {
			return err
		}
		record := domain.NewHistoryRecord(
			current.ID,
			actor.ID,
			strPtr(string(current.Status)),
			strPtr(string(target)),
			domain.StatusChangedDetails{Comment: comment},
		)
		return tx.History.Append(ctx, record)
	})
	if err != nil {
		return nil, storeError(err, "complaint", complaintID)
	}

	s.logger.Info("complaint status changed",
		zap.String("complaint_id", updated.ID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(target)),
		zap.String("actor", actor.ID))

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventComplaintStatusChanged, updated, eventActor(actor),
		events.ComplaintStatusChangedPayload{
			StudentID:  updated.StudentID,
			AssignedTo: updated.AssignedTo,
			Title:      updated.Title,
			OldStatus:  current.Status,
			NewStatus:  target,
			Comment:    comment,
		}))
	return updated, nil
}

// authorizeTransition allows withdrawal only by the owning student and every
// other edge only by staff who can see the complaint.
func authorizeTransition(actor domain.Actor, c *domain.Complaint, target domain.ComplaintStatus) error {
	if target == domain.ComplaintStatusWithdrawn {
		if !isOwner(actor, c) {
			return apperrors.NewForbidden("only the submitting student can withdraw a complaint")
		}
		return nil
	}
	if !actor.IsStaff() || !canAccess(actor, c) {
		return apperrors.NewForbidden("not allowed to change the status of this complaint")
	}
	return nil
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{ID: actor.ID, Role: actor.Role}
}

// publish delivers an event after commit. Handler failures are logged only.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("complaint_id", event.ComplaintID),
			zap.Error(err))
	}
}
