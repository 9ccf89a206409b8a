package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type userRepo struct{ v *view }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	return r.v.with(func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return repository.ErrDuplicate
			}
		}
		now := r.v.now()
		user.ID = uuid.NewString()
		user.CreatedAt = now
		user.UpdatedAt = now
		stored := *user
		st.users[user.ID] = &stored
		return nil
	})
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	return r.v.with(func(st *state) error {
		existing, ok := st.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = r.v.now()
		stored := *user
		st.users[user.ID] = &stored
		return nil
	})
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.v.with(func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		copied := *user
		out = &copied
		return nil
	})
	return out, err
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.v.with(func(st *state) error {
		for _, user := range st.users {
			if strings.EqualFold(user.Email, email) {
				copied := *user
				out = &copied
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

type resetRepo struct{ v *view }

func (r resetRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.resets[token.Token]; ok {
			return repository.ErrDuplicate
		}
		token.ID = uuid.NewString()
		token.CreatedAt = r.v.now()
		stored := *token
		st.resets[token.Token] = &stored
		return nil
	})
}

func (r resetRepo) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	var out *domain.PasswordResetToken
	err := r.v.with(func(st *state) error {
		stored, ok := st.resets[token]
		if !ok {
			return repository.ErrNotFound
		}
		copied := *stored
		out = &copied
		return nil
	})
	return out, err
}

func (r resetRepo) MarkUsed(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		for _, stored := range st.resets {
			if stored.ID == id && stored.UsedAt == nil {
				now := r.v.now()
				stored.UsedAt = &now
				return nil
			}
		}
		return repository.ErrNotFound
	})
}
