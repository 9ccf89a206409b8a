package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintService coordinates complaint workflows other than status changes
// and escalation.
type ComplaintService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ComplaintDependencies bundles collaborators of the complaint service.
type ComplaintDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	Title       string
	Description string
	Category    domain.ComplaintCategory
	Priority    domain.ComplaintPriority
}

// ComplaintListFilter describes listing filters.
type ComplaintListFilter struct {
	Statuses    []domain.ComplaintStatus
	Categories  []domain.ComplaintCategory
	Priorities  []domain.ComplaintPriority
	AssignedTo  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{store: deps.Store, dispatcher: deps.Dispatcher, logger: logger}
}

// CreateComplaint files a new complaint for a student.
func (s *ComplaintService) CreateComplaint(ctx context.Context, actor domain.Actor, input ComplaintCreateInput) (*domain.Complaint, error) {
	if err := requireStudent(actor); err != nil {
		return nil, err
	}
	complaint := &domain.Complaint{
		StudentID:   actor.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.ComplaintStatusNew,
	}
	if complaint.Priority == "" {
		complaint.Priority = domain.PriorityMedium
	}
	if err := validateComplaint(complaint); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Complaints.Create(ctx, complaint); err != nil {
			return err
		}
		return tx.History.Append(ctx, domain.NewHistoryRecord(
			complaint.ID,
			actor.ID,
			nil,
			strPtr(string(complaint.Status)),
			domain.CreatedDetails{Category: complaint.Category, Priority: complaint.Priority},
		))
	})
	if err != nil {
		return nil, storeError(err, "complaint", "")
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventComplaintCreated, complaint, eventActor(actor),
		events.ComplaintCreatedPayload{
			StudentID: complaint.StudentID,
			Category:  complaint.Category,
			Priority:  complaint.Priority,
			Title:     complaint.Title,
		}))
	return complaint, nil
}

// ListComplaints returns the complaints visible to actor.
func (s *ComplaintService) ListComplaints(ctx context.Context, actor domain.Actor, filter ComplaintListFilter) ([]domain.Complaint, error) {
	repoFilter := repository.ComplaintFilter{
		Statuses:    filter.Statuses,
		Categories:  filter.Categories,
		Priorities:  filter.Priorities,
		AssignedTo:  filter.AssignedTo,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	scopeFilter(actor, &repoFilter)
	complaints, err := s.store.Repos().Complaints.List(ctx, repoFilter)
	if err != nil {
		return nil, storeError(err, "complaint", "")
	}
	return complaints, nil
}

// GetComplaint fetches one complaint ensuring actor may read it.
func (s *ComplaintService) GetComplaint(ctx context.Context, actor domain.Actor, id string) (*domain.Complaint, error) {
	complaint, err := s.store.Repos().Complaints.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "complaint", id)
	}
	if !canAccess(actor, complaint) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return complaint, nil
}

// PublicFeed lists complaints by support without revealing who filed them.
func (s *ComplaintService) PublicFeed(ctx context.Context, limit, offset int) ([]domain.ComplaintSummary, error) {
	feed, err := s.store.Repos().Complaints.Feed(ctx, limit, offset)
	if err != nil {
		return nil, storeError(err, "complaint", "")
	}
	return feed, nil
}

// UpdatePriority changes the complaint priority.
func (s *ComplaintService) UpdatePriority(ctx context.Context, actor domain.Actor, id string, priority domain.ComplaintPriority, reason string) (*domain.Complaint, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	current, err := s.GetComplaint(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !current.IsOpen() {
		return nil, apperrors.NewConflict("complaint is no longer open", map[string]any{"status": current.Status})
	}
	if current.Priority == priority {
		return current, nil
	}

	updated := current.Clone()
	updated.Priority = priority
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Complaints.Update(ctx, updated, current.Version); err != nil {
			return err
		}
		return tx.History.Append(ctx, domain.NewHistoryRecord(
			current.ID,
			actor.ID,
			strPtr(string(current.Priority)),
			strPtr(string(priority)),
			domain.PriorityChangedDetails{Reason: strings.TrimSpace(reason)},
		))
	})
	if err != nil {
		return nil, storeError(err, "complaint", id)
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventComplaintPriorityChanged, updated, eventActor(actor),
		events.ComplaintPriorityChangedPayload{OldPriority: current.Priority, NewPriority: priority}))
	return updated, nil
}

// AddComment appends a message to the complaint thread. Internal notes are
// restricted to staff.
func (s *ComplaintService) AddComment(ctx context.Context, actor domain.Actor, id, body string, internal bool) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}
	if internal && !actor.IsStaff() {
		return nil, apperrors.NewForbidden("only staff can add internal notes")
	}
	complaint, err := s.GetComplaint(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ComplaintID: complaint.ID,
		AuthorID:    actor.ID,
		Body:        body,
		Internal:    internal,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		return tx.History.Append(ctx, domain.NewHistoryRecord(
			complaint.ID,
			actor.ID,
			nil,
			nil,
			domain.CommentedDetails{CommentID: comment.ID, Internal: internal},
		))
	})
	if err != nil {
		return nil, storeError(err, "complaint", id)
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventCommentAdded, complaint, eventActor(actor),
		events.CommentAddedPayload{
			CommentID:   comment.ID,
			StudentID:   complaint.StudentID,
			AssignedTo:  complaint.AssignedTo,
			Title:       complaint.Title,
			Internal:    internal,
			BodyPreview: stringPreview(body, 120),
		}))
	return comment, nil
}

// ListComments returns the thread; internal notes are hidden from students.
func (s *ComplaintService) ListComments(ctx context.Context, actor domain.Actor, id string) ([]domain.Comment, error) {
	complaint, err := s.GetComplaint(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Repos().Comments.ListByComplaint(ctx, complaint.ID, actor.IsStaff())
	if err != nil {
		return nil, storeError(err, "complaint", id)
	}
	return comments, nil
}

// Vote records a student's support for a complaint.
func (s *ComplaintService) Vote(ctx context.Context, actor domain.Actor, id string) (int, error) {
	if err := requireStudent(actor); err != nil {
		return 0, err
	}
	repos := s.store.Repos()
	complaint, err := repos.Complaints.GetByID(ctx, id)
	if err != nil {
		return 0, storeError(err, "complaint", id)
	}
	if complaint.Status == domain.ComplaintStatusWithdrawn {
		return 0, apperrors.NewConflict("withdrawn complaints cannot be voted on", nil)
	}
	if err := repos.Votes.Add(ctx, &domain.Vote{ComplaintID: id, UserID: actor.ID}); err != nil {
		return 0, storeError(err, "vote", id)
	}
	count, err := repos.Votes.Count(ctx, id)
	if err != nil {
		return 0, storeError(err, "vote", id)
	}
	return count, nil
}

// Unvote withdraws a student's vote.
func (s *ComplaintService) Unvote(ctx context.Context, actor domain.Actor, id string) (int, error) {
	if err := requireStudent(actor); err != nil {
		return 0, err
	}
	repos := s.store.Repos()
	if err := repos.Votes.Remove(ctx, id, actor.ID); err != nil {
		return 0, storeError(err, "vote", id)
	}
	count, err := repos.Votes.Count(ctx, id)
	if err != nil {
		return 0, storeError(err, "vote", id)
	}
	return count, nil
}

// AddFeedback lets the owner rate a resolved or closed complaint once.
func (s *ComplaintService) AddFeedback(ctx context.Context, actor domain.Actor, id string, rating int, comment string) (*domain.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	complaint, err := s.store.Repos().Complaints.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "complaint", id)
	}
	if !isOwner(actor, complaint) {
		return nil, apperrors.NewForbidden("only the submitting student can leave feedback")
	}
	if complaint.Status != domain.ComplaintStatusResolved && complaint.Status != domain.ComplaintStatusClosed {
		return nil, apperrors.NewConflict("feedback requires a resolved or closed complaint", map[string]any{"status": complaint.Status})
	}

	feedback := &domain.Feedback{
		ComplaintID: complaint.ID,
		StudentID:   actor.ID,
		Rating:      rating,
		Comment:     strings.TrimSpace(comment),
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Feedback.Create(ctx, feedback); err != nil {
			return err
		}
		return tx.History.Append(ctx, domain.NewHistoryRecord(
			complaint.ID,
			actor.ID,
			nil,
			nil,
			domain.FeedbackDetails{FeedbackID: feedback.ID, Rating: rating},
		))
	})
	if err != nil {
		return nil, storeError(err, "feedback", id)
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventFeedbackAdded, complaint, eventActor(actor),
		events.FeedbackAddedPayload{
			FeedbackID: feedback.ID,
			AssignedTo: complaint.AssignedTo,
			Title:      complaint.Title,
			Rating:     rating,
		}))
	return feedback, nil
}

// ListHistory returns the audit trail oldest first. Students do not see
// entries about internal notes.
func (s *ComplaintService) ListHistory(ctx context.Context, actor domain.Actor, id string) ([]domain.HistoryRecord, error) {
	complaint, err := s.GetComplaint(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	history, err := s.store.Repos().History.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, storeError(err, "complaint", id)
	}
	if actor.IsStaff() {
		return history, nil
	}
	visible := make([]domain.HistoryRecord, 0, len(history))
	for _, record := range history {
		if details, ok := record.Details.(domain.CommentedDetails); ok && details.Internal {
			continue
		}
		visible = append(visible, record)
	}
	return visible, nil
}

func validateComplaint(c *domain.Complaint) error {
	if c.Title == "" {
		return apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if len(c.Title) > 200 {
		return apperrors.NewValidationError("title must be at most 200 characters", map[string]any{"field": "title"})
	}
	if c.Description == "" {
		return apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}
	if !c.Category.Valid() {
		return apperrors.NewValidationError("unknown category", map[string]any{"field": "category"})
	}
	if !c.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"field": "priority"})
	}
	return nil
}
