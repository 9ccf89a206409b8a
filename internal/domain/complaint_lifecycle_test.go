package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	valid := map[ComplaintStatus][]ComplaintStatus{
		ComplaintStatusNew:        {ComplaintStatusOpened, ComplaintStatusWithdrawn},
		ComplaintStatusOpened:     {ComplaintStatusInProgress, ComplaintStatusWithdrawn},
		ComplaintStatusInProgress: {ComplaintStatusResolved, ComplaintStatusWithdrawn},
		ComplaintStatusResolved:   {ComplaintStatusClosed},
	}

	for _, from := range ComplaintStatuses {
		for _, to := range ComplaintStatuses {
			want := false
			for _, candidate := range valid[from] {
				if candidate == to {
					want = true
				}
			}
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, status := range []ComplaintStatus{ComplaintStatusClosed, ComplaintStatusWithdrawn} {
		assert.True(t, status.IsTerminal())
		assert.Empty(t, NextStatuses(status))
	}
	assert.False(t, ComplaintStatusResolved.IsTerminal())
}

func TestResolvedCannotReopen(t *testing.T) {
	assert.False(t, CanTransition(ComplaintStatusResolved, ComplaintStatusOpened))
	assert.False(t, CanTransition(ComplaintStatusNew, ComplaintStatusResolved))
}

func TestComplaintCloneDoesNotAlias(t *testing.T) {
	assignee := "lecturer-1"
	c := &Complaint{ID: "c1", AssignedTo: &assignee}
	clone := c.Clone()
	*clone.AssignedTo = "admin-1"
	assert.Equal(t, "lecturer-1", *c.AssignedTo)
}
