package domain

import "time"

// NotificationType identifies why a notification was sent.
type NotificationType string

const (
	NotificationComplaintEscalated NotificationType = "complaint_escalated"
	NotificationStatusChanged      NotificationType = "status_changed"
	NotificationComplaintAssigned  NotificationType = "complaint_assigned"
	NotificationCommentAdded       NotificationType = "comment_added"
	NotificationFeedbackAdded      NotificationType = "feedback_added"
)

// Notification is an in-app message for one recipient.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	ComplaintID *string          `json:"complaint_id,omitempty"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// PasswordResetToken persists a one-time reset credential.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
