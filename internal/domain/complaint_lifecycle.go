package domain

var allowedTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintStatusNew:        {ComplaintStatusOpened, ComplaintStatusWithdrawn},
	ComplaintStatusOpened:     {ComplaintStatusInProgress, ComplaintStatusWithdrawn},
	ComplaintStatusInProgress: {ComplaintStatusResolved, ComplaintStatusWithdrawn},
	ComplaintStatusResolved:   {ComplaintStatusClosed},
	ComplaintStatusClosed:     {},
	ComplaintStatusWithdrawn:  {},
}

// IsTerminal reports whether no further transitions are accepted from s.
func (s ComplaintStatus) IsTerminal() bool {
	return s == ComplaintStatusClosed || s == ComplaintStatusWithdrawn
}

// CanTransition reports whether current -> next is an edge of the lifecycle.
func CanTransition(current, next ComplaintStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s ComplaintStatus) []ComplaintStatus {
	return append([]ComplaintStatus(nil), allowedTransitions[s]...)
}
