package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	Rules          *handlers.RulesHandler
	Inbox          *handlers.InboxHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.ChangePassword)

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAnyRole()}

	complaints := app.Group("/complaints", authenticated...)
	complaints.Post("/", auth.RequireRole(domain.RoleStudent), cfg.Complaints.Create)
	complaints.Get("/", cfg.Complaints.List)
	complaints.Get("/feed", cfg.Complaints.Feed)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Post("/:id/transitions", cfg.Complaints.Transition)
	complaints.Post("/:id/assign", auth.RequireStaff(), cfg.Complaints.Assign)
	complaints.Post("/:id/claim", auth.RequireStaff(), cfg.Complaints.Claim)
	complaints.Post("/:id/priority", auth.RequireStaff(), cfg.Complaints.UpdatePriority)
	complaints.Get("/:id/comments", cfg.Complaints.ListComments)
	complaints.Post("/:id/comments", cfg.Complaints.AddComment)
	complaints.Post("/:id/vote", auth.RequireRole(domain.RoleStudent), cfg.Complaints.Vote)
	complaints.Delete("/:id/vote", auth.RequireRole(domain.RoleStudent), cfg.Complaints.Unvote)
	complaints.Post("/:id/feedback", auth.RequireRole(domain.RoleStudent), cfg.Complaints.AddFeedback)
	complaints.Get("/:id/history", cfg.Complaints.History)

	announcements := app.Group("/announcements", authenticated...)
	announcements.Get("/", cfg.Inbox.ListAnnouncements)
	announcements.Post("/", auth.RequireStaff(), cfg.Inbox.CreateAnnouncement)
	announcements.Delete("/:id", auth.RequireStaff(), cfg.Inbox.DeleteAnnouncement)

	notifications := app.Group("/notifications", authenticated...)
	notifications.Get("/", cfg.Inbox.ListNotifications)
	notifications.Post("/read-all", cfg.Inbox.MarkAllRead)
	notifications.Post("/:id/read", cfg.Inbox.MarkRead)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/users", cfg.Users.CreateUser)
	admin.Get("/users/:id", cfg.Users.GetUser)
	admin.Put("/users/:id", cfg.Users.UpdateUser)
	admin.Get("/escalation-rules", cfg.Rules.List)
	admin.Post("/escalation-rules", cfg.Rules.Create)
	admin.Get("/escalation-rules/:id", cfg.Rules.Get)
	admin.Put("/escalation-rules/:id", cfg.Rules.Update)
	admin.Post("/escalation-rules/:id/deactivate", cfg.Rules.Deactivate)
	admin.Post("/escalations/run", cfg.Rules.RunEscalations)
}
