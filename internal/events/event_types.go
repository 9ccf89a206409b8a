package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated         EventType = "complaint_created"
	EventComplaintStatusChanged   EventType = "complaint_status_changed"
	EventComplaintPriorityChanged EventType = "complaint_priority_changed"
	EventComplaintAssigned        EventType = "complaint_assigned"
	EventCommentAdded             EventType = "complaint_comment_added"
	EventFeedbackAdded            EventType = "complaint_feedback_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string          `json:"id"`
	Role domain.UserRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// NewEvent stamps an event with an id and timestamp.
func NewEvent(eventType EventType, complaint *domain.Complaint, actor Actor, payload interface{}) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ComplaintID: complaint.ID,
		Actor:       actor,
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
	}
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	StudentID string                   `json:"student_id"`
	Category  domain.ComplaintCategory `json:"category"`
	Priority  domain.ComplaintPriority `json:"priority"`
	Title     string                   `json:"title"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	StudentID  string                 `json:"student_id"`
	AssignedTo *string                `json:"assigned_to,omitempty"`
	Title      string                 `json:"title"`
	OldStatus  domain.ComplaintStatus `json:"old_status"`
	NewStatus  domain.ComplaintStatus `json:"new_status"`
	Comment    string                 `json:"comment,omitempty"`
}

// ComplaintPriorityChangedPayload payload.
type ComplaintPriorityChangedPayload struct {
	OldPriority domain.ComplaintPriority `json:"old_priority"`
	NewPriority domain.ComplaintPriority `json:"new_priority"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	Title            string  `json:"title"`
	PreviousAssignee *string `json:"previous_assignee,omitempty"`
	AssignedTo       string  `json:"assigned_to"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string  `json:"comment_id"`
	StudentID   string  `json:"student_id"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	Title       string  `json:"title"`
	Internal    bool    `json:"internal"`
	BodyPreview string  `json:"body_preview"`
}

// FeedbackAddedPayload payload.
type FeedbackAddedPayload struct {
	FeedbackID string  `json:"feedback_id"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	Title      string  `json:"title"`
	Rating     int     `json:"rating"`
}
