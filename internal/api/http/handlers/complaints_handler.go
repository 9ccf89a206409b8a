package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

// ComplaintsHandler manages complaint endpoints for every role.
type ComplaintsHandler struct {
	complaints  *service.ComplaintService
	lifecycle   *service.LifecycleService
	assignments *service.AssignmentService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService, lifecycle *service.LifecycleService, assignments *service.AssignmentService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints, lifecycle: lifecycle, assignments: assignments}
}

// Create handles POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.CreateComplaint(c.UserContext(), actor, service.ComplaintCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// List handles GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	filter := service.ComplaintListFilter{
		Statuses:    splitQuery[domain.ComplaintStatus](c, "status"),
		Categories:  splitQuery[domain.ComplaintCategory](c, "category"),
		Priorities:  splitQuery[domain.ComplaintPriority](c, "priority"),
		CreatedFrom: parseTime(c.Query("created_from")),
		CreatedTo:   parseTime(c.Query("created_to")),
		Limit:       limit,
		Offset:      offset,
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	complaints, err := h.complaints.ListComplaints(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, dto.NewComplaintResponse(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Feed handles GET /complaints/feed.
func (h *ComplaintsHandler) Feed(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	feed, err := h.complaints.PublicFeed(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.FeedItem, 0, len(feed))
	for _, s := range feed {
		items = append(items, dto.NewFeedItem(s))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.GetComplaint(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// Transition handles POST /complaints/:id/transitions.
func (h *ComplaintsHandler) Transition(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.lifecycle.ApplyTransition(c.UserContext(), c.Params("id"), req.Status, actor, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// Assign handles POST /complaints/:id/assign.
func (h *ComplaintsHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.assignments.AssignComplaint(c.UserContext(), actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// Claim handles POST /complaints/:id/claim.
func (h *ComplaintsHandler) Claim(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	complaint, err := h.assignments.SelfAssign(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// UpdatePriority handles POST /complaints/:id/priority.
func (h *ComplaintsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.PriorityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.UpdatePriority(c.UserContext(), actor, c.Params("id"), req.Priority, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// AddComment handles POST /complaints/:id/comments.
func (h *ComplaintsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.complaints.AddComment(c.UserContext(), actor, c.Params("id"), req.Body, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments handles GET /complaints/:id/comments.
func (h *ComplaintsHandler) ListComments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	comments, err := h.complaints.ListComments(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Vote handles POST /complaints/:id/vote.
func (h *ComplaintsHandler) Vote(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	count, err := h.complaints.Vote(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"vote_count": count}})
}

// Unvote handles DELETE /complaints/:id/vote.
func (h *ComplaintsHandler) Unvote(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	count, err := h.complaints.Unvote(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"vote_count": count}})
}

// AddFeedback handles POST /complaints/:id/feedback.
func (h *ComplaintsHandler) AddFeedback(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	feedback, err := h.complaints.AddFeedback(c.UserContext(), actor, c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFeedbackResponse(feedback)})
}

// History handles GET /complaints/:id/history.
func (h *ComplaintsHandler) History(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	history, err := h.complaints.ListHistory(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(history)})
}
