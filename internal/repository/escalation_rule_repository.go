package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EscalationRuleRepository persists escalation policy records.
type EscalationRuleRepository interface {
	Create(ctx context.Context, rule *domain.EscalationRule) error
	Update(ctx context.Context, rule *domain.EscalationRule) error
	GetByID(ctx context.Context, id string) (*domain.EscalationRule, error)
	ListActive(ctx context.Context) ([]domain.EscalationRule, error)
	List(ctx context.Context) ([]domain.EscalationRule, error)
}

type escalationRuleRepository struct {
	db DBTX
}

// NewEscalationRuleRepository instantiates the repository.
func NewEscalationRuleRepository(db DBTX) EscalationRuleRepository {
	return &escalationRuleRepository{db: db}
}

const ruleColumns = `id, category, priority, hours_threshold, escalate_to, is_active, created_at, updated_at`

func (r *escalationRuleRepository) Create(ctx context.Context, rule *domain.EscalationRule) error {
	const query = `
        INSERT INTO escalation_rules (category, priority, hours_threshold, escalate_to, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return translateError(r.db.QueryRow(ctx, query,
		rule.Category,
		rule.Priority,
		rule.HoursThreshold,
		rule.EscalateTo,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt))
}

func (r *escalationRuleRepository) Update(ctx context.Context, rule *domain.EscalationRule) error {
	const query = `
        UPDATE escalation_rules SET category=$1, priority=$2, hours_threshold=$3, escalate_to=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return translateError(r.db.QueryRow(ctx, query,
		rule.Category,
		rule.Priority,
		rule.HoursThreshold,
		rule.EscalateTo,
		rule.IsActive,
		rule.ID,
	).Scan(&rule.UpdatedAt))
}

func (r *escalationRuleRepository) GetByID(ctx context.Context, id string) (*domain.EscalationRule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ruleColumns+` FROM escalation_rules WHERE id=$1`, id)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	rules, err := scanRules(rows)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, ErrNotFound
	}
	return &rules[0], nil
}

func (r *escalationRuleRepository) ListActive(ctx context.Context) ([]domain.EscalationRule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ruleColumns+` FROM escalation_rules WHERE is_active ORDER BY hours_threshold ASC, id ASC`)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *escalationRuleRepository) List(ctx context.Context) ([]domain.EscalationRule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ruleColumns+` FROM escalation_rules ORDER BY category, priority, hours_threshold`)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows pgx.Rows) ([]domain.EscalationRule, error) {
	var result []domain.EscalationRule
	for rows.Next() {
		var rule domain.EscalationRule
		if err := rows.Scan(
			&rule.ID,
			&rule.Category,
			&rule.Priority,
			&rule.HoursThreshold,
			&rule.EscalateTo,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, translateError(rows.Err())
}
