package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AssignmentService handles complaint assignment operations.
type AssignmentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{store: store, dispatcher: dispatcher, logger: logger}
}

// SelfAssign lets a lecturer or admin take a complaint into their own queue.
func (s *AssignmentService) SelfAssign(ctx context.Context, actor domain.Actor, complaintID string) (*domain.Complaint, error) {
	return s.AssignComplaint(ctx, actor, complaintID, actor.ID)
}

// AssignComplaint assigns the complaint to an active lecturer or admin.
func (s *AssignmentService) AssignComplaint(ctx context.Context, actor domain.Actor, complaintID, assigneeID string) (*domain.Complaint, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	repos := s.store.Repos()

	assignee, err := repos.Users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if !assignee.EscalationEligible() {
		return nil, apperrors.NewConflict("assignee must be an active lecturer or admin", map[string]any{"user_id": assigneeID})
	}

	current, err := repos.Complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, storeError(err, "complaint", complaintID)
	}
	if !canAccess(actor, current) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !current.IsOpen() {
		return nil, apperrors.NewConflict("complaint is no longer open", map[string]any{"status": current.Status})
	}
	if current.AssignedTo != nil && *current.AssignedTo == assignee.ID {
		return current, nil
	}

	updated := current.Clone()
	updated.AssignedTo = strPtr(assignee.ID)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Complaints.Update(ctx, updated, current.Version); err != nil {
			return err
		}
		return tx.History.Append(ctx, domain.NewHistoryRecord(
			current.ID,
			actor.ID,
			current.AssignedTo,
			updated.AssignedTo,
			domain.AssignedDetails{PreviousAssignee: current.AssignedTo, AssignedTo: assignee.ID},
		))
	})
	if err != nil {
		return nil, storeError(err, "complaint", complaintID)
	}

	s.logger.Info("complaint assigned",
		zap.String("complaint_id", current.ID),
		zap.String("assigned_to", assignee.ID),
		zap.String("actor", actor.ID))

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventComplaintAssigned, updated, eventActor(actor),
		events.ComplaintAssignedPayload{
			Title:            updated.Title,
			PreviousAssignee: current.AssignedTo,
			AssignedTo:       assignee.ID,
		}))
	return updated, nil
}
