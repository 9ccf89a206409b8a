package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// EscalationFailure records a complaint that could not be escalated.
type EscalationFailure struct {
	ComplaintID string `json:"complaint_id"`
	Message     string `json:"error"`
	Err         error  `json:"-"`
}

// PassResult summarises one escalation pass.
type PassResult struct {
	Evaluated    int                 `json:"evaluated"`
	Escalated    int                 `json:"escalated"`
	Skipped      int                 `json:"skipped"`
	EscalatedIDs []string            `json:"escalated_ids"`
	Failures     []EscalationFailure `json:"failures"`
}

// EscalationEngine reassigns aging complaints according to the rule set.
type EscalationEngine struct {
	store       repository.Store
	sink        notification.Sink
	logger      *zap.Logger
	metrics     *observability.Metrics
	systemActor string
}

// EscalationDependencies bundles collaborators of the engine.
type EscalationDependencies struct {
	Store       repository.Store
	Sink        notification.Sink
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	SystemActor string
}

// NewEscalationEngine constructs the engine.
func NewEscalationEngine(deps EscalationDependencies) *EscalationEngine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	actor := deps.SystemActor
	if actor == "" {
		actor = "system"
	}
	return &EscalationEngine{
		store:       deps.Store,
		sink:        deps.Sink,
		logger:      logger,
		metrics:     deps.Metrics,
		systemActor: actor,
	}
}

// Run loads the active rules and open complaints and evaluates them at now.
// An error is returned only when the inputs cannot be loaded.
func (e *EscalationEngine) Run(ctx context.Context, now time.Time) (PassResult, error) {
	start := time.Now()
	repos := e.store.Repos()

	rules, err := repos.Rules.ListActive(ctx)
	if err != nil {
		e.metrics.RecordEscalationPass("failed", 0, 0, time.Since(start))
		return PassResult{}, apperrors.NewStoreUnavailable(fmt.Errorf("list escalation rules: %w", err))
	}
	open, err := repos.Complaints.ListOpen(ctx)
	if err != nil {
		e.metrics.RecordEscalationPass("failed", 0, 0, time.Since(start))
		return PassResult{}, apperrors.NewStoreUnavailable(fmt.Errorf("list open complaints: %w", err))
	}

	result := e.RunPass(ctx, now, rules, open)
	e.metrics.RecordEscalationPass("completed", result.Escalated, len(result.Failures), time.Since(start))
	e.logger.Info("escalation pass finished",
		zap.Int("evaluated", result.Evaluated),
		zap.Int("escalated", result.Escalated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// RunPass evaluates every complaint in open against rules at now. A failure
// on one complaint is recorded in the result and does not stop the pass.
func (e *EscalationEngine) RunPass(ctx context.Context, now time.Time, rules []domain.EscalationRule, open []domain.Complaint) PassResult {
	result := PassResult{EscalatedIDs: []string{}, Failures: []EscalationFailure{}}
	index := buildRuleIndex(rules)

	for i := range open {
		c := &open[i]
		result.Evaluated++

		rule, ok := dueRule(index, c, now)
		if !ok {
			result.Skipped++
			continue
		}

		if err := e.escalate(ctx, now, c, rule); err != nil {
			e.logger.Warn("complaint escalation failed",
				zap.String("complaint_id", c.ID),
				zap.String("rule_id", rule.ID),
				zap.Error(err))
			result.Failures = append(result.Failures, EscalationFailure{
				ComplaintID: c.ID,
				Message:     err.Error(),
				Err:         err,
			})
			continue
		}
		result.Escalated++
		result.EscalatedIDs = append(result.EscalatedIDs, c.ID)
	}
	return result
}

type ruleKey struct {
	category domain.ComplaintCategory
	priority domain.ComplaintPriority
}

// buildRuleIndex keeps, per classification, the well-formed active rule with
// the smallest threshold. Equal thresholds fall back to the smaller rule id.
func buildRuleIndex(rules []domain.EscalationRule) map[ruleKey]domain.EscalationRule {
	index := make(map[ruleKey]domain.EscalationRule, len(rules))
	for _, rule := range rules {
		if !rule.WellFormed() {
			continue
		}
		key := ruleKey{category: rule.Category, priority: rule.Priority}
		current, exists := index[key]
		if !exists ||
			rule.HoursThreshold < current.HoursThreshold ||
			(rule.HoursThreshold == current.HoursThreshold && rule.ID < current.ID) {
			index[key] = rule
		}
	}
	return index
}

// dueRule returns the rule under which c must be escalated at now, if any.
func dueRule(index map[ruleKey]domain.EscalationRule, c *domain.Complaint, now time.Time) (domain.EscalationRule, bool) {
	if !c.IsOpen() {
		return domain.EscalationRule{}, false
	}
	rule, ok := index[ruleKey{category: c.Category, priority: c.Priority}]
	if !ok {
		return domain.EscalationRule{}, false
	}
	if now.Sub(c.CreatedAt) < rule.Threshold() {
		return domain.EscalationRule{}, false
	}
	// Already escalated since the threshold was crossed.
	crossing := c.CreatedAt.Add(rule.Threshold())
	if c.EscalatedAt != nil && !c.EscalatedAt.Before(crossing) {
		return domain.EscalationRule{}, false
	}
	return rule, true
}

func (e *EscalationEngine) escalate(ctx context.Context, now time.Time, c *domain.Complaint, rule domain.EscalationRule) error {
	updated := c.Clone()
	updated.AssignedTo = strPtr(rule.EscalateTo)
	updated.EscalationLevel = c.EscalationLevel + 1
	escalatedAt := now
	updated.EscalatedAt = &escalatedAt

	err := e.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Complaints.Update(ctx, updated, c.Version); err != nil {
			return err
		}
		record := domain.NewHistoryRecord(
			c.ID,
			e.systemActor,
			strPtr(strconv.Itoa(c.EscalationLevel)),
			strPtr(strconv.Itoa(updated.EscalationLevel)),
			domain.EscalatedDetails{
				EscalationLevel: updated.EscalationLevel,
				RuleID:          rule.ID,
				HoursThreshold:  rule.HoursThreshold,
				AutoEscalated:   true,
			},
		)
		return tx.History.Append(ctx, record)
	})
	if err != nil {
		return storeError(err, "complaint", c.ID)
	}

	e.logger.Info("complaint escalated",
		zap.String("complaint_id", c.ID),
		zap.String("rule_id", rule.ID),
		zap.String("escalate_to", rule.EscalateTo),
		zap.Int("escalation_level", updated.EscalationLevel))

	e.notify(ctx, updated, rule)
	return nil
}

func (e *EscalationEngine) notify(ctx context.Context, c *domain.Complaint, rule domain.EscalationRule) {
	if e.sink == nil {
		return
	}
	err := e.sink.Enqueue(ctx, domain.Notification{
		RecipientID: rule.EscalateTo,
		Type:        domain.NotificationComplaintEscalated,
		ComplaintID: strPtr(c.ID),
		Title:       "Complaint escalated",
		Message: fmt.Sprintf("%q has been open for over %d hours and was escalated to you (level %d)",
			c.Title, rule.HoursThreshold, c.EscalationLevel),
	})
	e.metrics.RecordNotification("enqueue", err)
	if err != nil {
		e.logger.Warn("escalation notification not enqueued",
			zap.String("complaint_id", c.ID),
			zap.String("recipient", rule.EscalateTo),
			zap.Error(err))
	}
}
