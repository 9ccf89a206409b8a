package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryAction captures what happened in a history entry.
type HistoryAction string

const (
	ActionCreated         HistoryAction = "created"
	ActionStatusChanged   HistoryAction = "status_changed"
	ActionEscalated       HistoryAction = "escalated"
	ActionAssigned        HistoryAction = "assigned"
	ActionPriorityChanged HistoryAction = "priority_changed"
	ActionCommented       HistoryAction = "commented"
	ActionFeedbackAdded   HistoryAction = "feedback_added"
)

// HistoryDetails is the action-specific payload of a history record.
type HistoryDetails interface {
	Action() HistoryAction
}

// CreatedDetails accompanies ActionCreated.
type CreatedDetails struct {
	Category ComplaintCategory `json:"category"`
	Priority ComplaintPriority `json:"priority"`
}

func (CreatedDetails) Action() HistoryAction { return ActionCreated }

// StatusChangedDetails accompanies ActionStatusChanged.
type StatusChangedDetails struct {
	Comment string `json:"comment,omitempty"`
}

func (StatusChangedDetails) Action() HistoryAction { return ActionStatusChanged }

// EscalatedDetails accompanies ActionEscalated.
type EscalatedDetails struct {
	EscalationLevel int    `json:"escalation_level"`
	RuleID          string `json:"rule_id"`
	HoursThreshold  int    `json:"hours_threshold"`
	AutoEscalated   bool   `json:"auto_escalated"`
}

func (EscalatedDetails) Action() HistoryAction { return ActionEscalated }

// AssignedDetails accompanies ActionAssigned.
type AssignedDetails struct {
	PreviousAssignee *string `json:"previous_assignee,omitempty"`
	AssignedTo       string  `json:"assigned_to"`
}

func (AssignedDetails) Action() HistoryAction { return ActionAssigned }

// PriorityChangedDetails accompanies ActionPriorityChanged.
type PriorityChangedDetails struct {
	Reason string `json:"reason,omitempty"`
}

func (PriorityChangedDetails) Action() HistoryAction { return ActionPriorityChanged }

// CommentedDetails accompanies ActionCommented.
type CommentedDetails struct {
	CommentID string `json:"comment_id"`
	Internal  bool   `json:"internal"`
}

func (CommentedDetails) Action() HistoryAction { return ActionCommented }

// FeedbackDetails accompanies ActionFeedbackAdded.
type FeedbackDetails struct {
	FeedbackID string `json:"feedback_id"`
	Rating     int    `json:"rating"`
}

func (FeedbackDetails) Action() HistoryAction { return ActionFeedbackAdded }

// HistoryRecord is an immutable audit trail entry.
type HistoryRecord struct {
	ID          string
	ComplaintID string
	Action      HistoryAction
	OldValue    *string
	NewValue    *string
	PerformedBy string
	Details     HistoryDetails
	CreatedAt   time.Time
}

// NewHistoryRecord builds a record whose action is taken from its details.
func NewHistoryRecord(complaintID, performedBy string, oldValue, newValue *string, details HistoryDetails) *HistoryRecord {
	return &HistoryRecord{
		ComplaintID: complaintID,
		Action:      details.Action(),
		OldValue:    oldValue,
		NewValue:    newValue,
		PerformedBy: performedBy,
		Details:     details,
	}
}

// Validate checks the record is internally consistent before it is written.
func (r *HistoryRecord) Validate() error {
	if r.ComplaintID == "" {
		return fmt.Errorf("history record: complaint id required")
	}
	if r.PerformedBy == "" {
		return fmt.Errorf("history record: performed_by required")
	}
	if r.Details == nil {
		return fmt.Errorf("history record: details required for %s", r.Action)
	}
	if r.Details.Action() != r.Action {
		return fmt.Errorf("history record: %s details on %s record", r.Details.Action(), r.Action)
	}
	return nil
}

// MarshalDetails encodes the details payload for storage.
func MarshalDetails(details HistoryDetails) ([]byte, error) {
	if details == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(details)
}

// UnmarshalDetails decodes a stored payload into the variant keyed by action.
func UnmarshalDetails(action HistoryAction, raw []byte) (HistoryDetails, error) {
	var target HistoryDetails
	switch action {
	case ActionCreated:
		var d CreatedDetails
		if err := decodeDetails(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionStatusChanged:
		var d StatusChangedDetails
		if err := decodeDetails(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionEscalated:
		var d EscalatedDetails
		if err := decodeDetails(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionAssigned:
		var d AssignedDetails
		if err := decodeDetails(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionPriorityChanged:
		var d PriorityChangedDetails
		if err := decodeDetails(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionCommented:
		var d CommentedDetails
		if err := decodeDetails(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case ActionFeedbackAdded:
		var d FeedbackDetails
		if err := decodeDetails(raw, &d); err != nil {
			return nil, err
		}
		target = d
	default:
		return nil, fmt.Errorf("unknown history action %q", action)
	}
	return target, nil
}

func decodeDetails(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode history details: %w", err)
	}
	return nil
}
