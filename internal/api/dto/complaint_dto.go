package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Title       string                   `json:"title" validate:"required,max=200"`
	Description string                   `json:"description" validate:"required"`
	Category    domain.ComplaintCategory `json:"category" validate:"required,oneof=academic administrative facilities financial technical other"`
	Priority    domain.ComplaintPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// TransitionRequest moves a complaint to a new status.
type TransitionRequest struct {
	Status  domain.ComplaintStatus `json:"status" validate:"required"`
	Comment string                 `json:"comment" validate:"max=2000"`
}

// AssignRequest names the new assignee.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// PriorityRequest changes the complaint priority.
type PriorityRequest struct {
	Priority domain.ComplaintPriority `json:"priority" validate:"required,oneof=low medium high urgent"`
	Reason   string                   `json:"reason" validate:"max=500"`
}

// CommentRequest adds to the thread.
type CommentRequest struct {
	Body     string `json:"body" validate:"required,max=5000"`
	Internal bool   `json:"internal"`
}

// FeedbackRequest rates a resolved complaint.
type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ComplaintResponse is the full complaint view.
type ComplaintResponse struct {
	ID              string                   `json:"id"`
	StudentID       string                   `json:"student_id"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Category        domain.ComplaintCategory `json:"category"`
	Priority        domain.ComplaintPriority `json:"priority"`
	Status          domain.ComplaintStatus   `json:"status"`
	NextStatuses    []domain.ComplaintStatus `json:"next_statuses"`
	AssignedTo      *string                  `json:"assigned_to"`
	EscalationLevel int                      `json:"escalation_level"`
	EscalatedAt     *time.Time               `json:"escalated_at"`
	Version         int64                    `json:"version"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// NewComplaintResponse maps a complaint.
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:              c.ID,
		StudentID:       c.StudentID,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Priority:        c.Priority,
		Status:          c.Status,
		NextStatuses:    domain.NextStatuses(c.Status),
		AssignedTo:      c.AssignedTo,
		EscalationLevel: c.EscalationLevel,
		EscalatedAt:     c.EscalatedAt,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// FeedItem is a public feed entry. It never names the student.
type FeedItem struct {
	ID        string                   `json:"id"`
	Title     string                   `json:"title"`
	Category  domain.ComplaintCategory `json:"category"`
	Priority  domain.ComplaintPriority `json:"priority"`
	Status    domain.ComplaintStatus   `json:"status"`
	VoteCount int                      `json:"vote_count"`
	CreatedAt time.Time                `json:"created_at"`
}

// NewFeedItem maps a summary.
func NewFeedItem(s domain.ComplaintSummary) FeedItem {
	return FeedItem(s)
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		Internal:  c.Internal,
		CreatedAt: c.CreatedAt,
	}
}

// FeedbackResponse is a stored rating.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFeedbackResponse maps feedback.
func NewFeedbackResponse(f *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{ID: f.ID, Rating: f.Rating, Comment: f.Comment, CreatedAt: f.CreatedAt}
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID          string                `json:"id"`
	Action      domain.HistoryAction  `json:"action"`
	OldValue    *string               `json:"old_value"`
	NewValue    *string               `json:"new_value"`
	PerformedBy string                `json:"performed_by"`
	Details     domain.HistoryDetails `json:"details"`
	CreatedAt   time.Time             `json:"created_at"`
}

// NewHistoryResponses maps an audit trail.
func NewHistoryResponses(records []domain.HistoryRecord) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(records))
	for _, r := range records {
		out = append(out, HistoryResponse{
			ID:          r.ID,
			Action:      r.Action,
			OldValue:    r.OldValue,
			NewValue:    r.NewValue,
			PerformedBy: r.PerformedBy,
			Details:     r.Details,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}
