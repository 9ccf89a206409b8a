package repository

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// FeedbackRepository stores resolution feedback; one row per complaint.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	GetByComplaint(ctx context.Context, complaintID string) (*domain.Feedback, error)
}

type feedbackRepository struct {
	db DBTX
}

// NewFeedbackRepository builds repository.
func NewFeedbackRepository(db DBTX) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	const query = `
        INSERT INTO complaint_feedback (complaint_id, student_id, rating, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return translateError(r.db.QueryRow(ctx, query,
		feedback.ComplaintID,
		feedback.StudentID,
		feedback.Rating,
		feedback.Comment,
	).Scan(&feedback.ID, &feedback.CreatedAt))
}

func (r *feedbackRepository) GetByComplaint(ctx context.Context, complaintID string) (*domain.Feedback, error) {
	const query = `
        SELECT id, complaint_id, student_id, rating, comment, created_at
        FROM complaint_feedback WHERE complaint_id=$1`
	var feedback domain.Feedback
	if err := r.db.QueryRow(ctx, query, complaintID).Scan(
		&feedback.ID,
		&feedback.ComplaintID,
		&feedback.StudentID,
		&feedback.Rating,
		&feedback.Comment,
		&feedback.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &feedback, nil
}
