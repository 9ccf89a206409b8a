package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type historyRepo struct{ v *view }

func (r historyRepo) Append(_ context.Context, record *domain.HistoryRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return r.v.with(func(st *state) error {
		if _, ok := st.complaints[record.ComplaintID]; !ok {
			return repository.ErrNotFound
		}
		record.ID = uuid.NewString()
		record.CreatedAt = r.v.now()
		st.history = append(st.history, *record)
		return nil
	})
}

func (r historyRepo) ListByComplaint(_ context.Context, complaintID string) ([]domain.HistoryRecord, error) {
	var out []domain.HistoryRecord
	err := r.v.with(func(st *state) error {
		for _, rec := range st.history {
			if rec.ComplaintID == complaintID {
				out = append(out, rec)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

type ruleRepo struct{ v *view }

func (r ruleRepo) Create(_ context.Context, rule *domain.EscalationRule) error {
	return r.v.with(func(st *state) error {
		now := r.v.now()
		rule.ID = uuid.NewString()
		rule.CreatedAt = now
		rule.UpdatedAt = now
		stored := *rule
		st.rules[rule.ID] = &stored
		return nil
	})
}

func (r ruleRepo) Update(_ context.Context, rule *domain.EscalationRule) error {
	return r.v.with(func(st *state) error {
		existing, ok := st.rules[rule.ID]
		if !ok {
			return repository.ErrNotFound
		}
		rule.CreatedAt = existing.CreatedAt
		rule.UpdatedAt = r.v.now()
		stored := *rule
		st.rules[rule.ID] = &stored
		return nil
	})
}

func (r ruleRepo) GetByID(_ context.Context, id string) (*domain.EscalationRule, error) {
	var out *domain.EscalationRule
	err := r.v.with(func(st *state) error {
		rule, ok := st.rules[id]
		if !ok {
			return repository.ErrNotFound
		}
		copied := *rule
		out = &copied
		return nil
	})
	return out, err
}

func (r ruleRepo) ListActive(ctx context.Context) ([]domain.EscalationRule, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, rule := range all {
		if rule.IsActive {
			active = append(active, rule)
		}
	}
	return active, nil
}

func (r ruleRepo) List(_ context.Context) ([]domain.EscalationRule, error) {
	var out []domain.EscalationRule
	err := r.v.with(func(st *state) error {
		for _, rule := range st.rules {
			out = append(out, *rule)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].HoursThreshold != out[j].HoursThreshold {
			return out[i].HoursThreshold < out[j].HoursThreshold
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}
