package service

import (
	"context"
	"strings"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AnnouncementInput describes a new announcement.
type AnnouncementInput struct {
	Title    string
	Body     string
	Audience domain.AnnouncementAudience
}

// AnnouncementService publishes staff announcements.
type AnnouncementService struct {
	store repository.Store
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(store repository.Store) *AnnouncementService {
	return &AnnouncementService{store: store}
}

// CreateAnnouncement posts an announcement to an audience.
func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, actor domain.Actor, input AnnouncementInput) (*domain.Announcement, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	a := &domain.Announcement{
		AuthorID: actor.ID,
		Title:    strings.TrimSpace(input.Title),
		Body:     strings.TrimSpace(input.Body),
		Audience: input.Audience,
	}
	if a.Audience == "" {
		a.Audience = domain.AudienceAll
	}
	if a.Title == "" || a.Body == "" {
		return nil, apperrors.NewValidationError("title and body are required", nil)
	}
	if !a.Audience.Valid() {
		return nil, apperrors.NewValidationError("unknown audience", map[string]any{"audience": a.Audience})
	}
	if err := s.store.Repos().Announcements.Create(ctx, a); err != nil {
		return nil, storeError(err, "announcement", "")
	}
	return a, nil
}

// ListAnnouncements returns announcements addressed to the actor's role.
// Admins see every audience.
func (s *AnnouncementService) ListAnnouncements(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Announcement, error) {
	var audiences []domain.AnnouncementAudience
	if actor.Role != domain.RoleAdmin {
		audiences = domain.AudiencesFor(actor.Role)
	}
	list, err := s.store.Repos().Announcements.List(ctx, audiences, limit, offset)
	if err != nil {
		return nil, storeError(err, "announcement", "")
	}
	return list, nil
}

// DeleteAnnouncement removes an announcement; only its author or an admin may.
func (s *AnnouncementService) DeleteAnnouncement(ctx context.Context, actor domain.Actor, id string) error {
	repo := s.store.Repos().Announcements
	a, err := repo.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "announcement", id)
	}
	if actor.Role != domain.RoleAdmin && a.AuthorID != actor.ID {
		return apperrors.NewForbidden("only the author or an admin can delete an announcement")
	}
	return storeError(repo.Delete(ctx, id), "announcement", id)
}
