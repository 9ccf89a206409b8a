package repository

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CommentRepository manages complaint thread comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByComplaint(ctx context.Context, complaintID string, includeInternal bool) ([]domain.Comment, error)
}

type commentRepository struct {
	db DBTX
}

// NewCommentRepository builds repository.
func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO complaint_comments (complaint_id, author_id, body, internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return translateError(r.db.QueryRow(ctx, query,
		comment.ComplaintID,
		comment.AuthorID,
		comment.Body,
		comment.Internal,
	).Scan(&comment.ID, &comment.CreatedAt))
}

func (r *commentRepository) ListByComplaint(ctx context.Context, complaintID string, includeInternal bool) ([]domain.Comment, error) {
	const query = `
        SELECT id, complaint_id, author_id, body, internal, created_at
        FROM complaint_comments WHERE complaint_id=$1 AND (internal = FALSE OR $2)
        ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, complaintID, includeInternal)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.ComplaintID,
			&comment.AuthorID,
			&comment.Body,
			&comment.Internal,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, translateError(rows.Err())
}
