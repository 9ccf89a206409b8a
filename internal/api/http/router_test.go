package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
	"github.com/spec-kit/complaint-service/internal/service"
)

type testServer struct {
	app      *fiber.App
	store    *memory.Store
	tokens   *auth.TokenManager
	admin    *domain.User
	lecturer *domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics("test")
	logger := zap.NewNop()

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:               "router-test-secret",
		AccessTokenTTLMinutes:   15,
		PasswordResetTTLMinutes: 30,
		BcryptCost:              bcrypt.MinCost,
	}, store, logger)
	sink := notification.NewStoreSink(store.Repos().Notifications)
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Sink:       sink,
		Store:      store,
		Metrics:    metrics,
	})
	notifications.RegisterHandlers()
	engine := service.NewEscalationEngine(service.EscalationDependencies{
		Store:       store,
		Sink:        sink,
		Metrics:     metrics,
		SystemActor: "system",
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("complaint-service", "test", store, nil),
		Auth:   handlers.NewAuthHandler(authService, true),
		Users:  handlers.NewUsersHandler(service.NewUserService(store, bcrypt.MinCost)),
		Complaints: handlers.NewComplaintsHandler(
			service.NewComplaintService(service.ComplaintDependencies{Store: store, Dispatcher: dispatcher}),
			service.NewLifecycleService(store, dispatcher, logger),
			service.NewAssignmentService(store, dispatcher, logger),
		),
		Rules:          handlers.NewRulesHandler(service.NewRuleService(store, logger), engine),
		Inbox:          handlers.NewInboxHandler(service.NewAnnouncementService(store), notifications),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Repos().Users),
		Metrics:        metrics.Handler(),
	})

	ts := &testServer{app: app, store: store, tokens: authService.TokenManager()}
	ts.admin = ts.seedUser(t, "Admin", "admin@uni.test", domain.RoleAdmin)
	ts.lecturer = ts.seedUser(t, "Lecturer", "lecturer@uni.test", domain.RoleLecturer)
	return ts
}

func (ts *testServer) seedUser(t *testing.T, name, email string, role domain.UserRole) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: role, Active: true}
	require.NoError(t, ts.store.Repos().Users.Create(context.Background(), u))
	return u
}

func (ts *testServer) tokenFor(t *testing.T, u *domain.User) string {
	t.Helper()
	token, _, err := ts.tokens.GenerateToken(u.ID, u.Role)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (ts *testServer) register(t *testing.T, name, email string) (string, string) {
	t.Helper()
	status, env := ts.do(t, "POST", "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, status)
	data := decodeData[struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}](t, env)
	return data.User.ID, data.Auth.Token
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, "GET", "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = ts.do(t, "GET", "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	resp, err := ts.app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestComplaintLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	_, studentToken := ts.register(t, "Ada", "ada@uni.test")
	_, otherToken := ts.register(t, "Ben", "ben@uni.test")
	lecturerToken := ts.tokenFor(t, ts.lecturer)

	status, env := ts.do(t, "POST", "/complaints", studentToken, map[string]string{
		"title":       "Exam results missing",
		"description": "CS101 result is not on the portal",
		"category":    "academic",
		"priority":    "high",
	})
	require.Equal(t, fiber.StatusCreated, status)
	created := decodeData[struct {
		ID           string   `json:"id"`
		Status       string   `json:"status"`
		NextStatuses []string `json:"next_statuses"`
	}](t, env)
	assert.Equal(t, "new", created.Status)
	assert.ElementsMatch(t, []string{"opened", "withdrawn"}, created.NextStatuses)

	status, env = ts.do(t, "GET", "/complaints/"+created.ID, otherToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = ts.do(t, "POST", "/complaints/"+created.ID+"/transitions", lecturerToken, map[string]string{"status": "opened"})
	require.Equal(t, fiber.StatusOK, status)

	status, env = ts.do(t, "POST", "/complaints/"+created.ID+"/transitions", lecturerToken, map[string]string{"status": "closed"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	assert.Equal(t, "opened", env.Error.Details["from"])

	status, env = ts.do(t, "GET", "/complaints/"+created.ID+"/history", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	history := decodeData[[]struct {
		Action   string `json:"action"`
		NewValue string `json:"new_value"`
	}](t, env)
	require.Len(t, history, 2)
	assert.Equal(t, "created", history[0].Action)
	assert.Equal(t, "status_changed", history[1].Action)
	assert.Equal(t, "opened", history[1].NewValue)

	status, env = ts.do(t, "GET", "/notifications?unread=true", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	inbox := decodeData[[]domain.Notification](t, env)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationStatusChanged, inbox[0].Type)
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t)
	_, studentToken := ts.register(t, "Ada", "ada@uni.test")

	status, env := ts.do(t, "POST", "/complaints", studentToken, map[string]string{"title": "no body", "category": "parking"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Equal(t, "required", env.Error.Details["description"])

	status, env = ts.do(t, "POST", "/auth/register", "", map[string]string{"name": "x", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Error.Details, "email")
}

func TestAuthorizationGuards(t *testing.T) {
	ts := newTestServer(t)
	_, studentToken := ts.register(t, "Ada", "ada@uni.test")

	status, env := ts.do(t, "GET", "/complaints", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, env = ts.do(t, "GET", "/admin/escalation-rules", studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = ts.do(t, "GET", "/no/such/route", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestEscalationRulesAndManualPass(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.tokenFor(t, ts.admin)
	studentID, _ := ts.register(t, "Ada", "ada@uni.test")

	status, env := ts.do(t, "POST", "/admin/escalation-rules", adminToken, map[string]any{
		"category": "academic", "priority": "high", "hours_threshold": 0, "escalate_to": ts.lecturer.ID,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_RULE", env.Error.Code)
	assert.Equal(t, "hours_threshold", env.Error.Details["field"])

	status, env = ts.do(t, "POST", "/admin/escalation-rules", adminToken, map[string]any{
		"category": "academic", "priority": "high", "hours_threshold": 3_000_000, "escalate_to": ts.lecturer.ID,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_RULE", env.Error.Code)
	assert.Equal(t, "hours_threshold", env.Error.Details["field"])

	status, env = ts.do(t, "POST", "/admin/escalation-rules", adminToken, map[string]any{
		"category": "academic", "priority": "high", "hours_threshold": 2, "escalate_to": "admin",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_RULE", env.Error.Code)
	assert.Equal(t, "escalate_to", env.Error.Details["field"])

	status, _ = ts.do(t, "POST", "/admin/escalation-rules", adminToken, map[string]any{
		"category": "academic", "priority": "high", "hours_threshold": 2, "escalate_to": ts.lecturer.ID,
	})
	require.Equal(t, fiber.StatusCreated, status)

	complaint := &domain.Complaint{
		StudentID:   studentID,
		Title:       "Lab access",
		Description: "Badge does not open lab 3",
		Category:    domain.CategoryAcademic,
		Priority:    domain.PriorityHigh,
		Status:      domain.ComplaintStatusNew,
		CreatedAt:   time.Now().Add(-3 * time.Hour),
	}
	require.NoError(t, ts.store.Repos().Complaints.Create(context.Background(), complaint))

	status, env = ts.do(t, "POST", "/admin/escalations/run", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	result := decodeData[service.PassResult](t, env)
	assert.Equal(t, 1, result.Escalated)
	assert.Equal(t, []string{complaint.ID}, result.EscalatedIDs)

	stored, err := ts.store.Repos().Complaints.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, ts.lecturer.ID, *stored.AssignedTo)
	assert.Equal(t, 1, stored.EscalationLevel)

	lecturerToken := ts.tokenFor(t, ts.lecturer)
	status, env = ts.do(t, "GET", "/notifications", lecturerToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	inbox := decodeData[[]domain.Notification](t, env)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationComplaintEscalated, inbox[0].Type)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Ada", "ada@uni.test")

	status, env := ts.do(t, "POST", "/auth/password/reset/request", "", map[string]string{"email": "ada@uni.test"})
	require.Equal(t, fiber.StatusAccepted, status)
	reset := decodeData[struct {
		Token string `json:"reset_token"`
	}](t, env)
	require.NotEmpty(t, reset.Token)

	status, _ = ts.do(t, "POST", "/auth/password/reset/confirm", "", map[string]string{"token": reset.Token, "new_password": "brand-new-pass"})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = ts.do(t, "POST", "/auth/login", "", map[string]string{"email": "ada@uni.test", "password": "brand-new-pass"})
	assert.Equal(t, fiber.StatusOK, status)
}
