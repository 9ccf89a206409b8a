package repository

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// VoteRepository stores one vote per (complaint, user).
type VoteRepository interface {
	Add(ctx context.Context, vote *domain.Vote) error
	Remove(ctx context.Context, complaintID, userID string) error
	Count(ctx context.Context, complaintID string) (int, error)
	HasVoted(ctx context.Context, complaintID, userID string) (bool, error)
}

type voteRepository struct {
	db DBTX
}

// NewVoteRepository builds repository.
func NewVoteRepository(db DBTX) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Add(ctx context.Context, vote *domain.Vote) error {
	const query = `
        INSERT INTO complaint_votes (complaint_id, user_id) VALUES ($1,$2)
        RETURNING created_at`
	return translateError(r.db.QueryRow(ctx, query, vote.ComplaintID, vote.UserID).Scan(&vote.CreatedAt))
}

func (r *voteRepository) Remove(ctx context.Context, complaintID, userID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM complaint_votes WHERE complaint_id=$1 AND user_id=$2`, complaintID, userID)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *voteRepository) Count(ctx context.Context, complaintID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM complaint_votes WHERE complaint_id=$1`, complaintID).Scan(&count)
	return count, translateError(err)
}

func (r *voteRepository) HasVoted(ctx context.Context, complaintID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM complaint_votes WHERE complaint_id=$1 AND user_id=$2)`,
		complaintID, userID).Scan(&exists)
	return exists, translateError(err)
}
