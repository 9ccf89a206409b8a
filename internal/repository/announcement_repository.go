package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// AnnouncementRepository persists staff announcements.
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *domain.Announcement) error
	GetByID(ctx context.Context, id string) (*domain.Announcement, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, audiences []domain.AnnouncementAudience, limit, offset int) ([]domain.Announcement, error)
}

type announcementRepository struct {
	db DBTX
}

// NewAnnouncementRepository instantiates the repository.
func NewAnnouncementRepository(db DBTX) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) Create(ctx context.Context, announcement *domain.Announcement) error {
	const query = `
        INSERT INTO announcements (author_id, title, body, audience)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return translateError(r.db.QueryRow(ctx, query,
		announcement.AuthorID,
		announcement.Title,
		announcement.Body,
		announcement.Audience,
	).Scan(&announcement.ID, &announcement.CreatedAt))
}

func (r *announcementRepository) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	const query = `SELECT id, author_id, title, body, audience, created_at FROM announcements WHERE id=$1`
	var a domain.Announcement
	if err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.Audience, &a.CreatedAt); err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *announcementRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM announcements WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *announcementRepository) List(ctx context.Context, audiences []domain.AnnouncementAudience, limit, offset int) ([]domain.Announcement, error) {
	args := []any{}
	where := "1=1"
	if len(audiences) > 0 {
		where = inClause("audience", audiences, &args)
	}
	limit, offset = pageBounds(limit, offset, 50)
	query := fmt.Sprintf(`
        SELECT id, author_id, title, body, audience, created_at
        FROM announcements WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.Audience, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, translateError(rows.Err())
}
