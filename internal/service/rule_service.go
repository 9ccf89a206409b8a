package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// RuleInput carries the editable fields of an escalation rule.
type RuleInput struct {
	Category       domain.ComplaintCategory
	Priority       domain.ComplaintPriority
	HoursThreshold int
	EscalateTo     string
	IsActive       *bool
}

// RuleService administers the escalation rule set.
type RuleService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewRuleService constructs the service.
func NewRuleService(store repository.Store, logger *zap.Logger) *RuleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleService{store: store, logger: logger}
}

// ValidateRule checks a rule before it is stored. Every failure is an
// INVALID_RULE error naming the offending field.
func (s *RuleService) ValidateRule(ctx context.Context, rule *domain.EscalationRule) error {
	if rule.HoursThreshold <= 0 {
		return apperrors.NewInvalidRule("hours_threshold", "hours_threshold must be a positive integer")
	}
	if rule.HoursThreshold > domain.MaxHoursThreshold {
		return apperrors.NewInvalidRule("hours_threshold", fmt.Sprintf("hours_threshold must not exceed %d", domain.MaxHoursThreshold))
	}
	if !rule.Category.Valid() {
		return apperrors.NewInvalidRule("category", "unknown category "+string(rule.Category))
	}
	if !rule.Priority.Valid() {
		return apperrors.NewInvalidRule("priority", "unknown priority "+string(rule.Priority))
	}
	if strings.TrimSpace(rule.EscalateTo) == "" {
		return apperrors.NewInvalidRule("escalate_to", "escalate_to is required")
	}
	if _, err := uuid.Parse(rule.EscalateTo); err != nil {
		return apperrors.NewInvalidRule("escalate_to", "escalate_to must be a user id")
	}
	target, err := s.store.Repos().Users.GetByID(ctx, rule.EscalateTo)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewInvalidRule("escalate_to", "escalate_to does not reference an existing user")
	}
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if !target.EscalationEligible() {
		return apperrors.NewInvalidRule("escalate_to", "escalate_to must be an active lecturer or admin")
	}
	return nil
}

// CreateRule validates and stores a new rule.
func (s *RuleService) CreateRule(ctx context.Context, actor domain.Actor, input RuleInput) (*domain.EscalationRule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rule := &domain.EscalationRule{IsActive: true}
	applyRuleInput(rule, input)
	if err := s.ValidateRule(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.store.Repos().Rules.Create(ctx, rule); err != nil {
		return nil, storeError(err, "escalation rule", "")
	}
	s.logger.Info("escalation rule created",
		zap.String("rule_id", rule.ID),
		zap.String("category", string(rule.Category)),
		zap.String("priority", string(rule.Priority)),
		zap.Int("hours_threshold", rule.HoursThreshold))
	return rule, nil
}

// UpdateRule replaces the editable fields of an existing rule.
func (s *RuleService) UpdateRule(ctx context.Context, actor domain.Actor, id string, input RuleInput) (*domain.EscalationRule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rule, err := s.store.Repos().Rules.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "escalation rule", id)
	}
	applyRuleInput(rule, input)
	if err := s.ValidateRule(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.store.Repos().Rules.Update(ctx, rule); err != nil {
		return nil, storeError(err, "escalation rule", id)
	}
	return rule, nil
}

// DeactivateRule removes a rule from evaluation without deleting it.
func (s *RuleService) DeactivateRule(ctx context.Context, actor domain.Actor, id string) (*domain.EscalationRule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rule, err := s.store.Repos().Rules.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "escalation rule", id)
	}
	if !rule.IsActive {
		return rule, nil
	}
	rule.IsActive = false
	if err := s.store.Repos().Rules.Update(ctx, rule); err != nil {
		return nil, storeError(err, "escalation rule", id)
	}
	s.logger.Info("escalation rule deactivated", zap.String("rule_id", id))
	return rule, nil
}

// GetRule returns one rule.
func (s *RuleService) GetRule(ctx context.Context, actor domain.Actor, id string) (*domain.EscalationRule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rule, err := s.store.Repos().Rules.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "escalation rule", id)
	}
	return rule, nil
}

// ListRules returns every rule, active or not.
func (s *RuleService) ListRules(ctx context.Context, actor domain.Actor) ([]domain.EscalationRule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rules, err := s.store.Repos().Rules.List(ctx)
	if err != nil {
		return nil, storeError(err, "escalation rule", "")
	}
	return rules, nil
}

func applyRuleInput(rule *domain.EscalationRule, input RuleInput) {
	rule.Category = input.Category
	rule.Priority = input.Priority
	rule.HoursThreshold = input.HoursThreshold
	rule.EscalateTo = strings.TrimSpace(input.EscalateTo)
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
}
