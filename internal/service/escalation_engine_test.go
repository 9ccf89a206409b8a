package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

func newEngine(store repository.Store, sink notification.Sink) *EscalationEngine {
	return NewEscalationEngine(EscalationDependencies{Store: store, Sink: sink, SystemActor: "escalation-bot"})
}

func TestEscalationAfterThreshold(t *testing.T) {
	f := newFixture(t)
	rule := f.seedRule(t, 2, f.admin.ID)
	c := f.seedComplaint(t, nil)

	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return n.RecipientID == f.admin.ID &&
			n.Type == domain.NotificationComplaintEscalated &&
			n.ComplaintID != nil && *n.ComplaintID == c.ID
	})).Return(nil).Once()

	result, err := newEngine(f.store, sink).Run(f.ctx, f.now)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Escalated)
	assert.Equal(t, []string{c.ID}, result.EscalatedIDs)
	assert.Empty(t, result.Failures)

	stored := f.reload(t, c.ID)
	require.NotNil(t, stored.AssignedTo)
	assert.Equal(t, f.admin.ID, *stored.AssignedTo)
	assert.Equal(t, 1, stored.EscalationLevel)
	require.NotNil(t, stored.EscalatedAt)
	assert.True(t, stored.EscalatedAt.Equal(f.now))
	assert.Equal(t, domain.ComplaintStatusNew, stored.Status)

	history := f.history(t, c.ID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionEscalated, history[0].Action)
	assert.Equal(t, "escalation-bot", history[0].PerformedBy)
	require.NotNil(t, history[0].NewValue)
	assert.Equal(t, "1", *history[0].NewValue)
	assert.Equal(t, domain.EscalatedDetails{
		EscalationLevel: 1,
		RuleID:          rule.ID,
		HoursThreshold:  2,
		AutoEscalated:   true,
	}, history[0].Details)

	sink.AssertExpectations(t)
}

func TestNoEscalationBeforeThreshold(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, 2, f.admin.ID)
	c := f.seedComplaint(t, func(c *domain.Complaint) {
		c.CreatedAt = f.now.Add(-1 * time.Hour)
	})

	sink := &mockSink{}
	result, err := newEngine(f.store, sink).Run(f.ctx, f.now)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Escalated)
	assert.Equal(t, 1, result.Skipped)
	stored := f.reload(t, c.ID)
	assert.Equal(t, 0, stored.EscalationLevel)
	assert.Nil(t, stored.EscalatedAt)
	assert.Nil(t, stored.AssignedTo)
	assert.Empty(t, f.history(t, c.ID))
	sink.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestSmallestThresholdWins(t *testing.T) {
	f := newFixture(t)
	slow := f.seedRule(t, 4, f.lecturer.ID)
	fast := f.seedRule(t, 2, f.admin.ID)
	c := f.seedComplaint(t, nil)

	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	result, err := newEngine(f.store, sink).Run(f.ctx, f.now)
	require.NoError(t, err)
	require.Equal(t, 1, result.Escalated)

	stored := f.reload(t, c.ID)
	assert.Equal(t, f.admin.ID, *stored.AssignedTo)
	history := f.history(t, c.ID)
	require.Len(t, history, 1)
	details := history[0].Details.(domain.EscalatedDetails)
	assert.Equal(t, fast.ID, details.RuleID)
	assert.NotEqual(t, slow.ID, details.RuleID)
}

func TestEqualThresholdsBreakTiesByRuleID(t *testing.T) {
	rules := []domain.EscalationRule{
		{ID: "rule-b", Category: domain.CategoryAcademic, Priority: domain.PriorityHigh, HoursThreshold: 2, EscalateTo: "b", IsActive: true},
		{ID: "rule-a", Category: domain.CategoryAcademic, Priority: domain.PriorityHigh, HoursThreshold: 2, EscalateTo: "a", IsActive: true},
	}
	index := buildRuleIndex(rules)
	assert.Equal(t, "rule-a", index[ruleKey{domain.CategoryAcademic, domain.PriorityHigh}].ID)

	reversed := []domain.EscalationRule{rules[1], rules[0]}
	assert.Equal(t, "rule-a", buildRuleIndex(reversed)[ruleKey{domain.CategoryAcademic, domain.PriorityHigh}].ID)
}

func TestSecondPassIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, 2, f.admin.ID)
	c := f.seedComplaint(t, nil)

	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
	engine := newEngine(f.store, sink)

	first, err := engine.Run(f.ctx, f.now)
	require.NoError(t, err)
	second, err := engine.Run(f.ctx, f.now)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Escalated)
	assert.Equal(t, 0, second.Escalated)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, f.reload(t, c.ID).EscalationLevel)
	assert.Len(t, f.history(t, c.ID), 1)
	sink.AssertExpectations(t)
}

func TestLaterPassDoesNotReescalateUnderSameRule(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, 2, f.admin.ID)
	c := f.seedComplaint(t, nil)

	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.Anything).Return(nil)
	engine := newEngine(f.store, sink)

	_, err := engine.Run(f.ctx, f.now)
	require.NoError(t, err)
	result, err := engine.Run(f.ctx, f.now.Add(48*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Escalated)
	assert.Equal(t, 1, f.reload(t, c.ID).EscalationLevel)
}

func TestHigherThresholdRuleEscalatesAgain(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, 2, f.lecturer.ID)
	urgent := &domain.EscalationRule{
		Category:       domain.CategoryAcademic,
		Priority:       domain.PriorityUrgent,
		HoursThreshold: 24,
		EscalateTo:     f.admin.ID,
		IsActive:       true,
	}
	require.NoError(t, f.store.Repos().Rules.Create(f.ctx, urgent))
	c := f.seedComplaint(t, nil)

	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.Anything).Return(nil)
	engine := newEngine(f.store, sink)

	_, err := engine.Run(f.ctx, f.now)
	require.NoError(t, err)

	bumped := f.reload(t, c.ID)
	version := bumped.Version
	bumped.Priority = domain.PriorityUrgent
	require.NoError(t, f.store.Repos().Complaints.Update(f.ctx, bumped, version))

	result, err := engine.Run(f.ctx, f.now.Add(22*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, result.Escalated)

	stored := f.reload(t, c.ID)
	assert.Equal(t, 2, stored.EscalationLevel)
	assert.Equal(t, f.admin.ID, *stored.AssignedTo)
}

func TestNotificationFailureDoesNotFailEscalation(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, 2, f.admin.ID)
	c := f.seedComplaint(t, nil)

	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.Anything).Return(errInjected)

	result, err := newEngine(f.store, sink).Run(f.ctx, f.now)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Escalated)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 1, f.reload(t, c.ID).EscalationLevel)
}

func TestFailureOnOneComplaintDoesNotAbortPass(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, 2, f.admin.ID)
	broken := f.seedComplaint(t, nil)
	healthy := f.seedComplaint(t, func(c *domain.Complaint) {
		c.CreatedAt = f.now.Add(-5 * time.Hour)
	})

	store := &hookStore{Store: f.store, wrap: failHistory(broken.ID)}
	sink := &mockSink{}
	sink.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	result, err := newEngine(store, sink).Run(f.ctx, f.now)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Escalated)
	assert.Equal(t, []string{healthy.ID}, result.EscalatedIDs)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, broken.ID, result.Failures[0].ComplaintID)
	assert.ErrorIs(t, result.Failures[0].Err, errInjected)

	unchanged := f.reload(t, broken.ID)
	assert.Equal(t, 0, unchanged.EscalationLevel)
	assert.Nil(t, unchanged.AssignedTo)
	assert.Equal(t, int64(1), unchanged.Version)
	assert.Empty(t, f.history(t, broken.ID))
}

func TestStaleSnapshotReportsConcurrentModification(t *testing.T) {
	f := newFixture(t)
	rule := f.seedRule(t, 2, f.admin.ID)
	c := f.seedComplaint(t, nil)
	snapshot := *f.reload(t, c.ID)

	moved := f.reload(t, c.ID)
	moved.Status = domain.ComplaintStatusOpened
	require.NoError(t, f.store.Repos().Complaints.Update(f.ctx, moved, moved.Version))

	result := newEngine(f.store, nil).RunPass(f.ctx, f.now, []domain.EscalationRule{*rule}, []domain.Complaint{snapshot})

	require.Len(t, result.Failures, 1)
	assert.True(t, apperrors.HasCode(result.Failures[0].Err, apperrors.CodeConcurrentModification))
	stored := f.reload(t, c.ID)
	assert.Equal(t, domain.ComplaintStatusOpened, stored.Status)
	assert.Equal(t, 0, stored.EscalationLevel)
}

func TestRunPassSkipsMalformedRulesAndTerminalComplaints(t *testing.T) {
	engine := newEngine(nil, nil)
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	old := now.Add(-10 * time.Hour)

	rules := []domain.EscalationRule{
		{ID: "inactive", Category: domain.CategoryAcademic, Priority: domain.PriorityHigh, HoursThreshold: 1, EscalateTo: "x", IsActive: false},
		{ID: "zero", Category: domain.CategoryAcademic, Priority: domain.PriorityHigh, HoursThreshold: 0, EscalateTo: "x", IsActive: true},
		{ID: "no-target", Category: domain.CategoryAcademic, Priority: domain.PriorityHigh, HoursThreshold: 1, IsActive: true},
		{ID: "bad-category", Category: "sports", Priority: domain.PriorityHigh, HoursThreshold: 1, EscalateTo: "x", IsActive: true},
		{ID: "closed-match", Category: domain.CategoryFinancial, Priority: domain.PriorityLow, HoursThreshold: 1, EscalateTo: "x", IsActive: true},
	}
	open := []domain.Complaint{
		{ID: "c-1", Category: domain.CategoryAcademic, Priority: domain.PriorityHigh, Status: domain.ComplaintStatusNew, CreatedAt: old},
		{ID: "c-2", Category: domain.CategoryFinancial, Priority: domain.PriorityLow, Status: domain.ComplaintStatusClosed, CreatedAt: old},
		{ID: "c-3", Category: domain.CategoryTechnical, Priority: domain.PriorityLow, Status: domain.ComplaintStatusNew, CreatedAt: old},
	}

	result := engine.RunPass(context.Background(), now, rules, open)

	assert.Equal(t, 3, result.Evaluated)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 0, result.Escalated)
	assert.Empty(t, result.Failures)
}

func TestDueRuleBoundaries(t *testing.T) {
	created := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	rule := domain.EscalationRule{ID: "r", Category: domain.CategoryAcademic, Priority: domain.PriorityHigh, HoursThreshold: 2, EscalateTo: "x", IsActive: true}
	index := buildRuleIndex([]domain.EscalationRule{rule})
	crossing := created.Add(2 * time.Hour)
	earlier := crossing.Add(-time.Minute)

	tests := []struct {
		name        string
		now         time.Time
		escalatedAt *time.Time
		status      domain.ComplaintStatus
		want        bool
	}{
		{name: "just before threshold", now: crossing.Add(-time.Second), status: domain.ComplaintStatusNew},
		{name: "exactly at threshold", now: crossing, status: domain.ComplaintStatusNew, want: true},
		{name: "resolved is still open", now: crossing, status: domain.ComplaintStatusResolved, want: true},
		{name: "withdrawn", now: crossing, status: domain.ComplaintStatusWithdrawn},
		{name: "escalated after crossing", now: crossing.Add(time.Hour), escalatedAt: &crossing, status: domain.ComplaintStatusInProgress},
		{name: "escalated before crossing", now: crossing.Add(time.Hour), escalatedAt: &earlier, status: domain.ComplaintStatusInProgress, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &domain.Complaint{
				Category:    domain.CategoryAcademic,
				Priority:    domain.PriorityHigh,
				Status:      tt.status,
				CreatedAt:   created,
				EscalatedAt: tt.escalatedAt,
			}
			_, got := dueRule(index, c, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("oversized threshold never matches", func(t *testing.T) {
		huge := rule
		huge.HoursThreshold = 3_000_000
		c := &domain.Complaint{Category: domain.CategoryAcademic, Priority: domain.PriorityHigh, Status: domain.ComplaintStatusNew, CreatedAt: created}
		_, got := dueRule(buildRuleIndex([]domain.EscalationRule{huge}), c, crossing)
		assert.False(t, got)
	})
}

func TestOversizedStoredRuleDoesNotEscalate(t *testing.T) {
	f := newFixture(t)
	f.seedRule(t, 3_000_000, f.admin.ID)
	c := f.seedComplaint(t, nil)

	result, err := newEngine(f.store, nil).Run(f.ctx, f.now)
	require.NoError(t, err)
	assert.Zero(t, result.Escalated)

	stored := f.reload(t, c.ID)
	assert.Zero(t, stored.EscalationLevel)
	assert.Nil(t, stored.AssignedTo)
}

func TestRunReportsStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	store := &brokenRulesStore{Store: f.store}

	_, err := newEngine(store, nil).Run(f.ctx, f.now)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStoreUnavailable))
}

type brokenRulesStore struct {
	repository.Store
}

func (s *brokenRulesStore) Repos() repository.Repos {
	repos := s.Store.Repos()
	repos.Rules = brokenRules{repos.Rules}
	return repos
}

type brokenRules struct {
	repository.EscalationRuleRepository
}

func (brokenRules) ListActive(context.Context) ([]domain.EscalationRule, error) {
	return nil, errInjected
}
