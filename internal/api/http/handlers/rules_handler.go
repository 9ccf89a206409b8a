package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/service"
)

// PassRunner runs one escalation pass on demand.
type PassRunner interface {
	Run(ctx context.Context, now time.Time) (service.PassResult, error)
}

// RulesHandler exposes escalation rule administration.
type RulesHandler struct {
	rules  *service.RuleService
	runner PassRunner
}

// NewRulesHandler constructs handler.
func NewRulesHandler(rules *service.RuleService, runner PassRunner) *RulesHandler {
	return &RulesHandler{rules: rules, runner: runner}
}

// List handles GET /admin/escalation-rules.
func (h *RulesHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	rules, err := h.rules.ListRules(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.RuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, dto.NewRuleResponse(&rules[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create handles POST /admin/escalation-rules.
func (h *RulesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.RuleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rule, err := h.rules.CreateRule(c.UserContext(), actor, ruleInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRuleResponse(rule)})
}

// Get handles GET /admin/escalation-rules/:id.
func (h *RulesHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	rule, err := h.rules.GetRule(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRuleResponse(rule)})
}

// Update handles PUT /admin/escalation-rules/:id.
func (h *RulesHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.RuleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rule, err := h.rules.UpdateRule(c.UserContext(), actor, c.Params("id"), ruleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRuleResponse(rule)})
}

// Deactivate handles POST /admin/escalation-rules/:id/deactivate.
func (h *RulesHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	rule, err := h.rules.DeactivateRule(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRuleResponse(rule)})
}

// RunEscalations handles POST /admin/escalations/run.
func (h *RulesHandler) RunEscalations(c *fiber.Ctx) error {
	result, err := h.runner.Run(c.UserContext(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

func ruleInput(req dto.RuleRequest) service.RuleInput {
	return service.RuleInput{
		Category:       req.Category,
		Priority:       req.Priority,
		HoursThreshold: req.HoursThreshold,
		EscalateTo:     req.EscalateTo,
		IsActive:       req.IsActive,
	}
}
