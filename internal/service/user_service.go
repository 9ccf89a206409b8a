package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// UserService lets administrators manage accounts.
type UserService struct {
	store      repository.Store
	bcryptCost int
}

// UserCreateInput describes an account created by an administrator.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.UserRole
}

// UserUpdateInput carries editable account fields. Nil fields are kept.
type UserUpdateInput struct {
	Name   *string
	Email  *string
	Role   *domain.UserRole
	Active *bool
}

// NewUserService constructs the service.
func NewUserService(store repository.Store, bcryptCost int) *UserService {
	return &UserService{store: store, bcryptCost: bcryptCost}
}

// CreateUser adds an account of any role.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Actor, input UserCreateInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if err := s.store.Repos().Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, storeError(err, "user", "")
	}
	return user, nil
}

// GetUser fetches an account.
func (s *UserService) GetUser(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.store.Repos().Users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user", id)
	}
	return user, nil
}

// UpdateUser changes account details, role or active flag.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.Actor, id string, input UserUpdateInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if id == actor.ID && input.Active != nil && !*input.Active {
		return nil, apperrors.NewConflict("administrators cannot deactivate themselves", nil)
	}
	users := s.store.Repos().Users
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user", id)
	}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, storeError(err, "user", id)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if err := auth.CheckPasswordPolicy(password); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	return nil
}
