package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

// InboxHandler serves announcements and per-user notifications.
type InboxHandler struct {
	announcements *service.AnnouncementService
	notifications *service.NotificationService
}

// NewInboxHandler constructs handler.
func NewInboxHandler(announcements *service.AnnouncementService, notifications *service.NotificationService) *InboxHandler {
	return &InboxHandler{announcements: announcements, notifications: notifications}
}

// ListAnnouncements handles GET /announcements.
func (h *InboxHandler) ListAnnouncements(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	list, err := h.announcements.ListAnnouncements(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.AnnouncementResponse, 0, len(list))
	for i := range list {
		items = append(items, dto.NewAnnouncementResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateAnnouncement handles POST /announcements.
func (h *InboxHandler) CreateAnnouncement(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AnnouncementRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.announcements.CreateAnnouncement(c.UserContext(), actor, service.AnnouncementInput{
		Title:    req.Title,
		Body:     req.Body,
		Audience: req.Audience,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAnnouncementResponse(a)})
}

// DeleteAnnouncement handles DELETE /announcements/:id.
func (h *InboxHandler) DeleteAnnouncement(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.announcements.DeleteAnnouncement(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListNotifications handles GET /notifications.
func (h *InboxHandler) ListNotifications(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	list, err := h.notifications.ListNotifications(c.UserContext(), actor, parseBoolQuery(c, "unread", false), limit, offset)
	if err != nil {
		return err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return c.JSON(fiber.Map{"data": list})
}

// MarkRead handles POST /notifications/:id/read.
func (h *InboxHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "read"}})
}

// MarkAllRead handles POST /notifications/read-all.
func (h *InboxHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"marked": count}})
}
