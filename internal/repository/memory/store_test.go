package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

func newComplaint() *domain.Complaint {
	return &domain.Complaint{
		StudentID:   "student-1",
		Title:       "Broken projector",
		Description: "Room 4 projector has been broken for a week",
		Category:    domain.CategoryFacilities,
		Priority:    domain.PriorityMedium,
		Status:      domain.ComplaintStatusNew,
	}
}

func TestComplaintUpdateIsVersionGuarded(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repos()

	c := newComplaint()
	require.NoError(t, repos.Complaints.Create(ctx, c))
	assert.Equal(t, int64(1), c.Version)

	first := c.Clone()
	second := c.Clone()

	first.Status = domain.ComplaintStatusOpened
	require.NoError(t, repos.Complaints.Update(ctx, first, 1))
	assert.Equal(t, int64(2), first.Version)

	second.Status = domain.ComplaintStatusWithdrawn
	err := repos.Complaints.Update(ctx, second, 1)
	assert.ErrorIs(t, err, repository.ErrConcurrentModification)

	stored, err := repos.Complaints.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusOpened, stored.Status)

	missing := newComplaint()
	missing.ID = "does-not-exist"
	assert.ErrorIs(t, repos.Complaints.Update(ctx, missing, 1), repository.ErrNotFound)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	c := newComplaint()
	require.NoError(t, store.Repos().Complaints.Create(ctx, c))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		updated := c.Clone()
		updated.Status = domain.ComplaintStatusOpened
		if err := tx.Complaints.Update(ctx, updated, c.Version); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := store.Repos().Complaints.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusNew, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	c := newComplaint()
	require.NoError(t, store.Repos().Complaints.Create(ctx, c))

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		updated := c.Clone()
		updated.Status = domain.ComplaintStatusOpened
		if err := tx.Complaints.Update(ctx, updated, c.Version); err != nil {
			return err
		}
		return tx.History.Append(ctx, domain.NewHistoryRecord(c.ID, "staff-1", nil, nil, domain.StatusChangedDetails{}))
	})
	require.NoError(t, err)

	history, err := store.Repos().History.ListByComplaint(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionStatusChanged, history[0].Action)
}

func TestListOpenExcludesTerminal(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time { return base }))
	repos := store.Repos()

	statuses := []domain.ComplaintStatus{
		domain.ComplaintStatusNew,
		domain.ComplaintStatusResolved,
		domain.ComplaintStatusClosed,
		domain.ComplaintStatusWithdrawn,
	}
	for i, status := range statuses {
		c := newComplaint()
		c.Status = status
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repos.Complaints.Create(ctx, c))
	}

	open, err := repos.Complaints.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, domain.ComplaintStatusNew, open[0].Status)
	assert.Equal(t, domain.ComplaintStatusResolved, open[1].Status)
}

func TestFeedOrdersByVotes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repos()

	quiet := newComplaint()
	popular := newComplaint()
	withdrawn := newComplaint()
	withdrawn.Status = domain.ComplaintStatusWithdrawn
	for _, c := range []*domain.Complaint{quiet, popular, withdrawn} {
		require.NoError(t, repos.Complaints.Create(ctx, c))
	}
	require.NoError(t, repos.Votes.Add(ctx, &domain.Vote{ComplaintID: popular.ID, UserID: "a"}))
	require.NoError(t, repos.Votes.Add(ctx, &domain.Vote{ComplaintID: popular.ID, UserID: "b"}))
	assert.ErrorIs(t, repos.Votes.Add(ctx, &domain.Vote{ComplaintID: popular.ID, UserID: "b"}), repository.ErrDuplicate)

	feed, err := repos.Complaints.Feed(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, popular.ID, feed[0].ID)
	assert.Equal(t, 2, feed[0].VoteCount)
}

func TestRulesListedByThreshold(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repos()

	for _, hours := range []int{4, 2, 8} {
		require.NoError(t, repos.Rules.Create(ctx, &domain.EscalationRule{
			Category:       domain.CategoryAcademic,
			Priority:       domain.PriorityHigh,
			HoursThreshold: hours,
			EscalateTo:     "lecturer-1",
			IsActive:       hours != 8,
		}))
	}

	active, err := repos.Rules.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 2, active[0].HoursThreshold)
	assert.Equal(t, 4, active[1].HoursThreshold)
}
