package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

type commentRepo struct{ v *view }

func (r commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	return r.v.with(func(st *state) error {
		comment.ID = uuid.NewString()
		comment.CreatedAt = r.v.now()
		st.comments = append(st.comments, *comment)
		return nil
	})
}

func (r commentRepo) ListByComplaint(_ context.Context, complaintID string, includeInternal bool) ([]domain.Comment, error) {
	var out []domain.Comment
	err := r.v.with(func(st *state) error {
		for _, c := range st.comments {
			if c.ComplaintID != complaintID || (c.Internal && !includeInternal) {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

type voteRepo struct{ v *view }

func (r voteRepo) Add(_ context.Context, vote *domain.Vote) error {
	return r.v.with(func(st *state) error {
		key := voteKey{complaintID: vote.ComplaintID, userID: vote.UserID}
		if _, ok := st.votes[key]; ok {
			return repository.ErrDuplicate
		}
		vote.CreatedAt = r.v.now()
		st.votes[key] = *vote
		return nil
	})
}

func (r voteRepo) Remove(_ context.Context, complaintID, userID string) error {
	return r.v.with(func(st *state) error {
		key := voteKey{complaintID: complaintID, userID: userID}
		if _, ok := st.votes[key]; !ok {
			return repository.ErrNotFound
		}
		delete(st.votes, key)
		return nil
	})
}

func (r voteRepo) Count(_ context.Context, complaintID string) (int, error) {
	count := 0
	err := r.v.with(func(st *state) error {
		for k := range st.votes {
			if k.complaintID == complaintID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r voteRepo) HasVoted(_ context.Context, complaintID, userID string) (bool, error) {
	var ok bool
	err := r.v.with(func(st *state) error {
		_, ok = st.votes[voteKey{complaintID: complaintID, userID: userID}]
		return nil
	})
	return ok, err
}

type feedbackRepo struct{ v *view }

func (r feedbackRepo) Create(_ context.Context, feedback *domain.Feedback) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.feedback[feedback.ComplaintID]; ok {
			return repository.ErrDuplicate
		}
		feedback.ID = uuid.NewString()
		feedback.CreatedAt = r.v.now()
		st.feedback[feedback.ComplaintID] = *feedback
		return nil
	})
}

func (r feedbackRepo) GetByComplaint(_ context.Context, complaintID string) (*domain.Feedback, error) {
	var out *domain.Feedback
	err := r.v.with(func(st *state) error {
		f, ok := st.feedback[complaintID]
		if !ok {
			return repository.ErrNotFound
		}
		out = &f
		return nil
	})
	return out, err
}

type announcementRepo struct{ v *view }

func (r announcementRepo) Create(_ context.Context, a *domain.Announcement) error {
	return r.v.with(func(st *state) error {
		a.ID = uuid.NewString()
		a.CreatedAt = r.v.now()
		st.announcements[a.ID] = *a
		return nil
	})
}

func (r announcementRepo) GetByID(_ context.Context, id string) (*domain.Announcement, error) {
	var out *domain.Announcement
	err := r.v.with(func(st *state) error {
		a, ok := st.announcements[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r announcementRepo) Delete(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.announcements[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.announcements, id)
		return nil
	})
}

func (r announcementRepo) List(_ context.Context, audiences []domain.AnnouncementAudience, limit, offset int) ([]domain.Announcement, error) {
	var out []domain.Announcement
	err := r.v.with(func(st *state) error {
		for _, a := range st.announcements {
			if len(audiences) == 0 || contains(audiences, a.Audience) {
				out = append(out, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset, 50), nil
}

type notificationRepo struct{ v *view }

func (r notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	return r.v.with(func(st *state) error {
		n.ID = uuid.NewString()
		n.CreatedAt = r.v.now()
		stored := *n
		st.notifications[n.ID] = &stored
		return nil
	})
}

func (r notificationRepo) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.v.with(func(st *state) error {
		for _, n := range st.notifications {
			if n.RecipientID != recipientID || (unreadOnly && n.Read) {
				continue
			}
			out = append(out, *n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset, 50), nil
}

func (r notificationRepo) MarkRead(_ context.Context, id, recipientID string) error {
	return r.v.with(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.RecipientID != recipientID {
			return repository.ErrNotFound
		}
		n.Read = true
		return nil
	})
}

func (r notificationRepo) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.v.with(func(st *state) error {
		for _, n := range st.notifications {
			if n.RecipientID == recipientID && !n.Read {
				n.Read = true
				count++
			}
		}
		return nil
	})
	return count, err
}
