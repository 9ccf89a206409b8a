package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusNew        ComplaintStatus = "new"
	ComplaintStatusOpened     ComplaintStatus = "opened"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusClosed     ComplaintStatus = "closed"
	ComplaintStatusWithdrawn  ComplaintStatus = "withdrawn"
)

// ComplaintStatuses lists every status in lifecycle order.
var ComplaintStatuses = []ComplaintStatus{
	ComplaintStatusNew,
	ComplaintStatusOpened,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
	ComplaintStatusClosed,
	ComplaintStatusWithdrawn,
}

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	for _, candidate := range ComplaintStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ComplaintCategory classifies what the complaint is about.
type ComplaintCategory string

const (
	CategoryAcademic       ComplaintCategory = "academic"
	CategoryAdministrative ComplaintCategory = "administrative"
	CategoryFacilities     ComplaintCategory = "facilities"
	CategoryFinancial      ComplaintCategory = "financial"
	CategoryTechnical      ComplaintCategory = "technical"
	CategoryOther          ComplaintCategory = "other"
)

var complaintCategories = map[ComplaintCategory]struct{}{
	CategoryAcademic:       {},
	CategoryAdministrative: {},
	CategoryFacilities:     {},
	CategoryFinancial:      {},
	CategoryTechnical:      {},
	CategoryOther:          {},
}

// Valid reports whether c is a known category.
func (c ComplaintCategory) Valid() bool {
	_, ok := complaintCategories[c]
	return ok
}

// ComplaintPriority enumerates urgency.
type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "low"
	PriorityMedium ComplaintPriority = "medium"
	PriorityHigh   ComplaintPriority = "high"
	PriorityUrgent ComplaintPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Complaint is the aggregate for a filed grievance.
type Complaint struct {
	ID              string
	StudentID       string
	Title           string
	Description     string
	Category        ComplaintCategory
	Priority        ComplaintPriority
	Status          ComplaintStatus
	AssignedTo      *string
	EscalationLevel int
	EscalatedAt     *time.Time
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOpen reports whether the complaint can still change state.
func (c *Complaint) IsOpen() bool {
	return !c.Status.IsTerminal()
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	out := *c
	if c.AssignedTo != nil {
		assigned := *c.AssignedTo
		out.AssignedTo = &assigned
	}
	if c.EscalatedAt != nil {
		at := *c.EscalatedAt
		out.EscalatedAt = &at
	}
	return &out
}

// ComplaintSummary is the public feed view; it never carries the owner.
type ComplaintSummary struct {
	ID        string
	Title     string
	Category  ComplaintCategory
	Priority  ComplaintPriority
	Status    ComplaintStatus
	VoteCount int
	CreatedAt time.Time
}
