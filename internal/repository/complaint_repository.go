package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintFilter captures listing parameters.
type ComplaintFilter struct {
	StudentID *string
	// AssignedToOrUnassigned scopes a lecturer to their own queue plus the triage pool.
	AssignedToOrUnassigned *string
	AssignedTo             *string
	Statuses               []domain.ComplaintStatus
	Categories             []domain.ComplaintCategory
	Priorities             []domain.ComplaintPriority
	SearchTerm             *string
	CreatedFrom            *time.Time
	CreatedTo              *time.Time
	Limit                  int
	Offset                 int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	// Update writes the mutable fields when the stored version equals
	// expectedVersion, then bumps complaint.Version.
	Update(ctx context.Context, complaint *domain.Complaint, expectedVersion int64) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	ListOpen(ctx context.Context) ([]domain.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	Feed(ctx context.Context, limit, offset int) ([]domain.ComplaintSummary, error)
}

type complaintRepository struct {
	db DBTX
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(db DBTX) ComplaintRepository {
	return &complaintRepository{db: db}
}

const complaintColumns = `id, student_id, title, description, category, priority, status, assigned_to,
               escalation_level, escalated_at, version, created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (student_id, title, description, category, priority, status, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, escalation_level, version, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		complaint.StudentID,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.AssignedTo,
	).Scan(&complaint.ID, &complaint.EscalationLevel, &complaint.Version, &complaint.CreatedAt, &complaint.UpdatedAt)
	return translateError(err)
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint, expectedVersion int64) error {
	const query = `
        UPDATE complaints SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            assigned_to=$6, escalation_level=$7, escalated_at=$8, version=version+1, updated_at=NOW()
        WHERE id=$9 AND version=$10
        RETURNING version, updated_at`
	err := r.db.QueryRow(ctx, query,
		complaint.Title,
		complaint.Description,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.AssignedTo,
		complaint.EscalationLevel,
		complaint.EscalatedAt,
		complaint.ID,
		expectedVersion,
	).Scan(&complaint.Version, &complaint.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return translateError(err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id=$1)`, complaint.ID).Scan(&exists); err != nil {
		return translateError(err)
	}
	if exists {
		return ErrConcurrentModification
	}
	return ErrNotFound
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id=$1`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	result, err := scanComplaints(rows)
	if err != nil {
		return nil, translateError(err)
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return &result[0], nil
}

func (r *complaintRepository) ListOpen(ctx context.Context) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
             FROM complaints WHERE status NOT IN ($1, $2) ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, domain.ComplaintStatusClosed, domain.ComplaintStatusWithdrawn)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.AssignedToOrUnassigned != nil {
		args = append(args, *filter.AssignedToOrUnassigned)
		clauses = append(clauses, fmt.Sprintf("(assigned_to=$%d OR assigned_to IS NULL)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, inClause("status", filter.Statuses, &args))
	}
	if len(filter.Categories) > 0 {
		clauses = append(clauses, inClause("category", filter.Categories, &args))
	}
	if len(filter.Priorities) > 0 {
		clauses = append(clauses, inClause("priority", filter.Priorities, &args))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 20)
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		complaintColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) Feed(ctx context.Context, limit, offset int) ([]domain.ComplaintSummary, error) {
	limit, offset = pageBounds(limit, offset, 20)
	query := fmt.Sprintf(`
        SELECT c.id, c.title, c.category, c.priority, c.status, COUNT(v.user_id), c.created_at
        FROM complaints c LEFT JOIN complaint_votes v ON v.complaint_id = c.id
        WHERE c.status <> $1
        GROUP BY c.id
        ORDER BY COUNT(v.user_id) DESC, c.created_at DESC
        LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.db.Query(ctx, query, domain.ComplaintStatusWithdrawn)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.ComplaintSummary
	for rows.Next() {
		var s domain.ComplaintSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Category, &s.Priority, &s.Status, &s.VoteCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, translateError(rows.Err())
}

func inClause[T ~string](column string, values []T, args *[]any) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		*args = append(*args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(*args))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var c domain.Complaint
		if err := rows.Scan(
			&c.ID,
			&c.StudentID,
			&c.Title,
			&c.Description,
			&c.Category,
			&c.Priority,
			&c.Status,
			&c.AssignedTo,
			&c.EscalationLevel,
			&c.EscalatedAt,
			&c.Version,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, translateError(rows.Err())
}
