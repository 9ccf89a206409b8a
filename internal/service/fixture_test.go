package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
)

var errInjected = errors.New("injected failure")

type fixture struct {
	ctx        context.Context
	now        time.Time
	store      *memory.Store
	dispatcher events.Dispatcher

	student      *domain.User
	otherStudent *domain.User
	lecturer     *domain.User
	colleague    *domain.User
	admin        *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		ctx:        context.Background(),
		now:        now,
		store:      memory.NewStore(memory.WithClock(func() time.Time { return now })),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	f.student = f.seedUser(t, "Ada Student", "ada@uni.test", domain.RoleStudent)
	f.otherStudent = f.seedUser(t, "Ben Student", "ben@uni.test", domain.RoleStudent)
	f.lecturer = f.seedUser(t, "Cleo Lecturer", "cleo@uni.test", domain.RoleLecturer)
	f.colleague = f.seedUser(t, "Dev Lecturer", "dev@uni.test", domain.RoleLecturer)
	f.admin = f.seedUser(t, "Eve Admin", "eve@uni.test", domain.RoleAdmin)
	return f
}

func (f *fixture) seedUser(t *testing.T, name, email string, role domain.UserRole) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: email, PasswordHash: "x", Role: role, Active: true}
	require.NoError(t, f.store.Repos().Users.Create(f.ctx, u))
	return u
}

// seedComplaint stores an academic/high complaint from f.student filed three
// hours before f.now, after applying mutate.
func (f *fixture) seedComplaint(t *testing.T, mutate func(c *domain.Complaint)) *domain.Complaint {
	t.Helper()
	c := &domain.Complaint{
		StudentID:   f.student.ID,
		Title:       "Exam results missing",
		Description: "My CS101 exam result is not on the portal",
		Category:    domain.CategoryAcademic,
		Priority:    domain.PriorityHigh,
		Status:      domain.ComplaintStatusNew,
		CreatedAt:   f.now.Add(-3 * time.Hour),
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, f.store.Repos().Complaints.Create(f.ctx, c))
	return c
}

func (f *fixture) seedRule(t *testing.T, hours int, escalateTo string) *domain.EscalationRule {
	t.Helper()
	r := &domain.EscalationRule{
		Category:       domain.CategoryAcademic,
		Priority:       domain.PriorityHigh,
		HoursThreshold: hours,
		EscalateTo:     escalateTo,
		IsActive:       true,
	}
	require.NoError(t, f.store.Repos().Rules.Create(f.ctx, r))
	return r
}

func (f *fixture) reload(t *testing.T, id string) *domain.Complaint {
	t.Helper()
	c, err := f.store.Repos().Complaints.GetByID(f.ctx, id)
	require.NoError(t, err)
	return c
}

func (f *fixture) history(t *testing.T, id string) []domain.HistoryRecord {
	t.Helper()
	h, err := f.store.Repos().History.ListByComplaint(f.ctx, id)
	require.NoError(t, err)
	return h
}

func actorOf(u *domain.User) domain.Actor {
	return domain.ActorOf(u)
}

// hookStore lets tests interfere with transactions of the wrapped store.
type hookStore struct {
	repository.Store
	before func()
	wrap   func(tx repository.Repos) repository.Repos
}

func (s *hookStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	if s.before != nil {
		s.before()
	}
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if s.wrap != nil {
			tx = s.wrap(tx)
		}
		return fn(ctx, tx)
	})
}

// failingHistory rejects appends for one complaint, or for all when failFor is empty.
type failingHistory struct {
	repository.ComplaintHistoryRepository
	failFor string
}

func (h failingHistory) Append(ctx context.Context, record *domain.HistoryRecord) error {
	if h.failFor == "" || record.ComplaintID == h.failFor {
		return errInjected
	}
	return h.ComplaintHistoryRepository.Append(ctx, record)
}

func failHistory(complaintID string) func(tx repository.Repos) repository.Repos {
	return func(tx repository.Repos) repository.Repos {
		tx.History = failingHistory{ComplaintHistoryRepository: tx.History, failFor: complaintID}
		return tx
	}
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Enqueue(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
