package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// NotificationRepository stores delivered in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	db DBTX
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_id, type, complaint_id, title, message)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return translateError(r.db.QueryRow(ctx, query,
		n.RecipientID,
		n.Type,
		n.ComplaintID,
		n.Title,
		n.Message,
	).Scan(&n.ID, &n.CreatedAt))
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	limit, offset = pageBounds(limit, offset, 50)
	query := fmt.Sprintf(`
        SELECT id, recipient_id, type, complaint_id, title, message, read_flag, created_at
        FROM notifications WHERE recipient_id=$1 AND (NOT $2 OR read_flag = FALSE)
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.db.Query(ctx, query, recipientID, unreadOnly)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.ComplaintID, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, translateError(rows.Err())
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read_flag=TRUE WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read_flag=TRUE WHERE recipient_id=$1 AND read_flag=FALSE`, recipientID)
	if err != nil {
		return 0, translateError(err)
	}
	return cmd.RowsAffected(), nil
}
