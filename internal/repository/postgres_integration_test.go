//go:build integration

package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/testsupport"
)

func seedStudentComplaint(t *testing.T, store *repository.PostgresStore) *domain.Complaint {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()

	student := &domain.User{
		Name:         "Ada",
		Email:        uuid.NewString() + "@campus.test",
		PasswordHash: "hash",
		Role:         domain.RoleStudent,
		Active:       true,
	}
	require.NoError(t, repos.Users.Create(ctx, student))

	complaint := &domain.Complaint{
		StudentID:   student.ID,
		Title:       "Broken projector",
		Description: "Room 4 projector has been out for a week",
		Category:    domain.CategoryFacilities,
		Priority:    domain.PriorityMedium,
		Status:      domain.ComplaintStatusNew,
	}
	require.NoError(t, repos.Complaints.Create(ctx, complaint))
	return complaint
}

func TestPostgresComplaintVersionGuard(t *testing.T) {
	store := repository.NewPostgresStore(testsupport.StartPostgres(t))
	ctx := context.Background()
	complaints := store.Repos().Complaints

	complaint := seedStudentComplaint(t, store)
	require.EqualValues(t, 1, complaint.Version)

	t.Run("matching version bumps", func(t *testing.T) {
		complaint.Status = domain.ComplaintStatusOpened
		require.NoError(t, complaints.Update(ctx, complaint, 1))
		assert.EqualValues(t, 2, complaint.Version)

		stored, err := complaints.GetByID(ctx, complaint.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ComplaintStatusOpened, stored.Status)
		assert.EqualValues(t, 2, stored.Version)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale := complaint.Clone()
		stale.Status = domain.ComplaintStatusInProgress
		err := complaints.Update(ctx, stale, 1)
		assert.ErrorIs(t, err, repository.ErrConcurrentModification)

		stored, err := complaints.GetByID(ctx, complaint.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ComplaintStatusOpened, stored.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		ghost := complaint.Clone()
		ghost.ID = uuid.NewString()
		assert.ErrorIs(t, complaints.Update(ctx, ghost, 1), repository.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		ghost := complaint.Clone()
		ghost.ID = "not-a-uuid"
		assert.ErrorIs(t, complaints.Update(ctx, ghost, 1), repository.ErrNotFound)

		_, err := complaints.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = store.Repos().Users.GetByID(ctx, "admin")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestPostgresDuplicateEmail(t *testing.T) {
	store := repository.NewPostgresStore(testsupport.StartPostgres(t))
	ctx := context.Background()
	users := store.Repos().Users

	first := &domain.User{Name: "A", Email: "dup@campus.test", PasswordHash: "h", Role: domain.RoleStudent, Active: true}
	require.NoError(t, users.Create(ctx, first))

	second := &domain.User{Name: "B", Email: "DUP@campus.test", PasswordHash: "h", Role: domain.RoleStudent, Active: true}
	assert.ErrorIs(t, users.Create(ctx, second), repository.ErrDuplicate)
}

func TestPostgresWithinTxRollsBack(t *testing.T) {
	store := repository.NewPostgresStore(testsupport.StartPostgres(t))
	ctx := context.Background()
	complaint := seedStudentComplaint(t, store)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		updated := complaint.Clone()
		updated.Status = domain.ComplaintStatusResolved
		if err := tx.Complaints.Update(ctx, updated, complaint.Version); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := store.Repos().Complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusNew, stored.Status)
	assert.Equal(t, complaint.Version, stored.Version)
}
