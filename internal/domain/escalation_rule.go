package domain

import "time"

// MaxHoursThreshold caps rule thresholds at ten years. Larger values would
// overflow time.Duration.
const MaxHoursThreshold = 24 * 365 * 10

// EscalationRule maps a (category, priority) pair to an age threshold and a target.
type EscalationRule struct {
	ID             string
	Category       ComplaintCategory
	Priority       ComplaintPriority
	HoursThreshold int
	EscalateTo     string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Threshold returns the rule age threshold as a duration.
func (r EscalationRule) Threshold() time.Duration {
	return time.Duration(r.HoursThreshold) * time.Hour
}

// WellFormed reports whether the rule can take part in evaluation.
func (r EscalationRule) WellFormed() bool {
	return r.IsActive &&
		r.HoursThreshold > 0 &&
		r.HoursThreshold <= MaxHoursThreshold &&
		r.Category.Valid() &&
		r.Priority.Valid() &&
		r.EscalateTo != ""
}

// Matches reports whether the rule applies to the complaint classification.
func (r EscalationRule) Matches(c *Complaint) bool {
	return r.Category == c.Category && r.Priority == c.Priority
}
