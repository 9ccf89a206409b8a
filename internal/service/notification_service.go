package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// NotificationService turns domain events into in-app notifications and
// serves each user's inbox.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       notification.Sink
	store      repository.Store
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NotificationDependencies bundles collaborators of the notification service.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Sink       notification.Sink
	Store      repository.Store
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		sink:       deps.Sink,
		store:      deps.Store,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventComplaintAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventFeedbackAdded, n.handleFeedbackAdded)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintStatusChangedPayload)
	if !ok || payload.StudentID == event.Actor.ID {
		return nil
	}
	return n.send(ctx, domain.Notification{
		RecipientID: payload.StudentID,
		Type:        domain.NotificationStatusChanged,
		ComplaintID: &event.ComplaintID,
		Title:       "Complaint status updated",
		Message:     fmt.Sprintf("%q moved from %s to %s", payload.Title, payload.OldStatus, payload.NewStatus),
	})
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintAssignedPayload)
	if !ok || payload.AssignedTo == event.Actor.ID {
		return nil
	}
	return n.send(ctx, domain.Notification{
		RecipientID: payload.AssignedTo,
		Type:        domain.NotificationComplaintAssigned,
		ComplaintID: &event.ComplaintID,
		Title:       "Complaint assigned to you",
		Message:     fmt.Sprintf("%q was assigned to you", payload.Title),
	})
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	var recipient string
	switch {
	case event.Actor.ID == payload.StudentID:
		if payload.AssignedTo == nil {
			return nil
		}
		recipient = *payload.AssignedTo
	case payload.Internal:
		return nil
	default:
		recipient = payload.StudentID
	}
	return n.send(ctx, domain.Notification{
		RecipientID: recipient,
		Type:        domain.NotificationCommentAdded,
		ComplaintID: &event.ComplaintID,
		Title:       "New comment",
		Message:     fmt.Sprintf("New comment on %q: %s", payload.Title, payload.BodyPreview),
	})
}

func (n *NotificationService) handleFeedbackAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FeedbackAddedPayload)
	if !ok || payload.AssignedTo == nil {
		return nil
	}
	return n.send(ctx, domain.Notification{
		RecipientID: *payload.AssignedTo,
		Type:        domain.NotificationFeedbackAdded,
		ComplaintID: &event.ComplaintID,
		Title:       "Feedback received",
		Message:     fmt.Sprintf("%q was rated %d/5", payload.Title, payload.Rating),
	})
}

func (n *NotificationService) send(ctx context.Context, msg domain.Notification) error {
	if n.sink == nil {
		return nil
	}
	err := n.sink.Enqueue(ctx, msg)
	n.metrics.RecordNotification("enqueue", err)
	if err != nil {
		n.logger.Warn("notification not enqueued",
			zap.String("type", string(msg.Type)),
			zap.String("recipient", msg.RecipientID),
			zap.Error(err))
		return err
	}
	return nil
}

// ListNotifications returns the actor's inbox, newest first.
func (n *NotificationService) ListNotifications(ctx context.Context, actor domain.Actor, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	list, err := n.store.Repos().Notifications.ListByRecipient(ctx, actor.ID, unreadOnly, limit, offset)
	if err != nil {
		return nil, storeError(err, "notification", "")
	}
	return list, nil
}

// MarkRead flags one of the actor's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id string) error {
	return storeError(n.store.Repos().Notifications.MarkRead(ctx, id, actor.ID), "notification", id)
}

// MarkAllRead flags every unread notification of the actor as read.
func (n *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	count, err := n.store.Repos().Notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, storeError(err, "notification", "")
	}
	return count, nil
}
