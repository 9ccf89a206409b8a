package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// AnnouncementRequest payload.
type AnnouncementRequest struct {
	Title    string                      `json:"title" validate:"required,max=200"`
	Body     string                      `json:"body" validate:"required"`
	Audience domain.AnnouncementAudience `json:"audience" validate:"omitempty,oneof=all students staff"`
}

// AnnouncementResponse view.
type AnnouncementResponse struct {
	ID        string                      `json:"id"`
	AuthorID  string                      `json:"author_id"`
	Title     string                      `json:"title"`
	Body      string                      `json:"body"`
	Audience  domain.AnnouncementAudience `json:"audience"`
	CreatedAt time.Time                   `json:"created_at"`
}

// NewAnnouncementResponse maps an announcement.
func NewAnnouncementResponse(a *domain.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:        a.ID,
		AuthorID:  a.AuthorID,
		Title:     a.Title,
		Body:      a.Body,
		Audience:  a.Audience,
		CreatedAt: a.CreatedAt,
	}
}
