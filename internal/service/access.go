package service

import (
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// canAccess reports whether actor may read complaint c. Students see their
// own complaints, lecturers see their queue and unassigned complaints, admins
// see everything.
func canAccess(actor domain.Actor, c *domain.Complaint) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleLecturer:
		return c.AssignedTo == nil || *c.AssignedTo == actor.ID
	case domain.RoleStudent:
		return c.StudentID == actor.ID
	}
	return false
}

func isOwner(actor domain.Actor, c *domain.Complaint) bool {
	return actor.Role == domain.RoleStudent && c.StudentID == actor.ID
}

// scopeFilter narrows a listing to what actor may read.
func scopeFilter(actor domain.Actor, filter *repository.ComplaintFilter) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleLecturer:
		filter.AssignedToOrUnassigned = &actor.ID
	default:
		filter.StudentID = &actor.ID
	}
}

func requireStaff(actor domain.Actor) error {
	if !actor.IsStaff() {
		return apperrors.NewForbidden("lecturer or admin role required")
	}
	return nil
}

func requireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func requireStudent(actor domain.Actor) error {
	if actor.Role != domain.RoleStudent {
		return apperrors.NewForbidden("student role required")
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

func stringPreview(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
