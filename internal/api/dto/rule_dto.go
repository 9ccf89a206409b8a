package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// RuleRequest creates or replaces an escalation rule. Field checks beyond
// presence are left to rule validation so failures carry INVALID_RULE.
type RuleRequest struct {
	Category       domain.ComplaintCategory `json:"category" validate:"required"`
	Priority       domain.ComplaintPriority `json:"priority" validate:"required"`
	HoursThreshold int                      `json:"hours_threshold"`
	EscalateTo     string                   `json:"escalate_to" validate:"required"`
	IsActive       *bool                    `json:"is_active"`
}

// RuleResponse is the rule view.
type RuleResponse struct {
	ID             string                   `json:"id"`
	Category       domain.ComplaintCategory `json:"category"`
	Priority       domain.ComplaintPriority `json:"priority"`
	HoursThreshold int                      `json:"hours_threshold"`
	EscalateTo     string                   `json:"escalate_to"`
	IsActive       bool                     `json:"is_active"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// NewRuleResponse maps a rule.
func NewRuleResponse(r *domain.EscalationRule) RuleResponse {
	return RuleResponse{
		ID:             r.ID,
		Category:       r.Category,
		Priority:       r.Priority,
		HoursThreshold: r.HoursThreshold,
		EscalateTo:     r.EscalateTo,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
