package repository

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintHistoryRepository stores audit entries. It is append-only.
type ComplaintHistoryRepository interface {
	Append(ctx context.Context, record *domain.HistoryRecord) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.HistoryRecord, error)
}

type complaintHistoryRepository struct {
	db DBTX
}

// NewComplaintHistoryRepository builds repository.
func NewComplaintHistoryRepository(db DBTX) ComplaintHistoryRepository {
	return &complaintHistoryRepository{db: db}
}

func (r *complaintHistoryRepository) Append(ctx context.Context, record *domain.HistoryRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	details, err := domain.MarshalDetails(record.Details)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO complaint_history (complaint_id, action, old_value, new_value, performed_by, details)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return translateError(r.db.QueryRow(ctx, query,
		record.ComplaintID,
		record.Action,
		record.OldValue,
		record.NewValue,
		record.PerformedBy,
		details,
	).Scan(&record.ID, &record.CreatedAt))
}

func (r *complaintHistoryRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.HistoryRecord, error) {
	const query = `
        SELECT id, complaint_id, action, old_value, new_value, performed_by, details, created_at
        FROM complaint_history WHERE complaint_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, complaintID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.HistoryRecord
	for rows.Next() {
		var (
			record domain.HistoryRecord
			raw    []byte
		)
		if err := rows.Scan(
			&record.ID,
			&record.ComplaintID,
			&record.Action,
			&record.OldValue,
			&record.NewValue,
			&record.PerformedBy,
			&raw,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		details, err := domain.UnmarshalDetails(record.Action, raw)
		if err != nil {
			return nil, err
		}
		record.Details = details
		result = append(result, record)
	}
	return result, translateError(rows.Err())
}
