package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type complaintRepo struct{ v *view }

func (r complaintRepo) Create(_ context.Context, complaint *domain.Complaint) error {
	return r.v.with(func(st *state) error {
		now := r.v.now()
		complaint.ID = uuid.NewString()
		if complaint.CreatedAt.IsZero() {
			complaint.CreatedAt = now
		}
		complaint.UpdatedAt = complaint.CreatedAt
		complaint.Version = 1
		st.complaints[complaint.ID] = complaint.Clone()
		return nil
	})
}

func (r complaintRepo) Update(_ context.Context, complaint *domain.Complaint, expectedVersion int64) error {
	return r.v.with(func(st *state) error {
		stored, ok := st.complaints[complaint.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if stored.Version != expectedVersion {
			return repository.ErrConcurrentModification
		}
		next := complaint.Clone()
		next.StudentID = stored.StudentID
		next.CreatedAt = stored.CreatedAt
		next.Version = stored.Version + 1
		next.UpdatedAt = r.v.now()
		st.complaints[complaint.ID] = next
		complaint.Version = next.Version
		complaint.UpdatedAt = next.UpdatedAt
		return nil
	})
}

func (r complaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	var out *domain.Complaint
	err := r.v.with(func(st *state) error {
		c, ok := st.complaints[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

func (r complaintRepo) ListOpen(_ context.Context) ([]domain.Complaint, error) {
	var out []domain.Complaint
	err := r.v.with(func(st *state) error {
		for _, c := range st.complaints {
			if c.IsOpen() {
				out = append(out, *c.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r complaintRepo) List(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	var out []domain.Complaint
	err := r.v.with(func(st *state) error {
		for _, c := range st.complaints {
			if matchesFilter(c, filter) {
				out = append(out, *c.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return page(out, filter.Limit, filter.Offset, 20), nil
}

func (r complaintRepo) Feed(_ context.Context, limit, offset int) ([]domain.ComplaintSummary, error) {
	var out []domain.ComplaintSummary
	err := r.v.with(func(st *state) error {
		counts := make(map[string]int)
		for k := range st.votes {
			counts[k.complaintID]++
		}
		for _, c := range st.complaints {
			if c.Status == domain.ComplaintStatusWithdrawn {
				continue
			}
			out = append(out, domain.ComplaintSummary{
				ID:        c.ID,
				Title:     c.Title,
				Category:  c.Category,
				Priority:  c.Priority,
				Status:    c.Status,
				VoteCount: counts[c.ID],
				CreatedAt: c.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VoteCount != out[j].VoteCount {
			return out[i].VoteCount > out[j].VoteCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset, 20), nil
}

func matchesFilter(c *domain.Complaint, f repository.ComplaintFilter) bool {
	if f.StudentID != nil && c.StudentID != *f.StudentID {
		return false
	}
	if f.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.AssignedToOrUnassigned != nil && c.AssignedTo != nil && *c.AssignedTo != *f.AssignedToOrUnassigned {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, c.Status) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, c.Category) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, c.Priority) {
		return false
	}
	if f.CreatedFrom != nil && c.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && c.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Title), term) &&
			!strings.Contains(strings.ToLower(c.Description), term) {
			return false
		}
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
