package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	domain "github.com/shred787/mindaid/domain/task"
	"github.com/shred787/mindaid/modules/extraction"
	"github.com/shred787/mindaid/modules/notification"
	"github.com/shred787/mindaid/modules/task"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check endpoint
	app.Get("/health", m.healthHandler)

	// API v1 routes
	api := app.Group("/api/v1")
	api.Get("/overview", m.getOverview)

	// Task endpoints
	tasks := api.Group("/tasks")
	tasks.Post("/", m.createTask)
	tasks.Get("/", m.listTasks)
	tasks.Post("/plan", m.planTask)
	tasks.Get("/:id", m.getTask)
	tasks.Patch("/:id", m.updateTask)
	tasks.Put("/:id", m.updateTask)
	tasks.Delete("/:id", m.deleteTask)
	tasks.Post("/:id/complete", m.completeTask)

	// Language extraction endpoints
	ai := api.Group("/ai")
	ai.Post("/break-down-task", m.breakDownTask)
	ai.Post("/extract-task", m.extractTask)
	ai.Post("/reschedule", m.reschedule)

	// Notification endpoints
	notifications := api.Group("/notifications")
	notifications.Get("/", m.listNotifications)
	notifications.Post("/:id/acknowledge", m.acknowledgeNotification)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
			"addr":   m.cfg.Addr,
		},
	})
}

func (m *APIModule) userID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return m.cfg.DefaultUserID
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: code, Message: message})
}

// parseBody decodes the JSON body. When it reports false the 400 response
// has already been written and err is the result of writing it.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		if errors.Is(err, domain.ErrUnknownAttachmentKind) {
			return false, badRequest(c, "invalid_attachment_kind", err.Error())
		}
		return false, badRequest(c, "invalid_request", "Invalid request body")
	}
	return true, nil
}

// taskError maps a task port error onto an HTTP status.
func taskError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		status, code = fiber.StatusNotFound, "not_found"
	case errors.Is(err, task.ErrAlreadyCompleted):
		status, code = fiber.StatusConflict, "already_completed"
	case errors.Is(err, task.ErrCompleteViaUpdate):
		status, code = fiber.StatusConflict, "complete_via_update"
	case errors.Is(err, task.ErrConcurrentUpdate):
		status, code = fiber.StatusConflict, "conflict"
	case errors.Is(err, task.ErrInvalidUser):
		status, code = fiber.StatusBadRequest, "invalid_user"
	case errors.Is(err, task.ErrInvalidRequest):
		status, code = fiber.StatusBadRequest, "validation_error"
	case errors.Is(err, task.ErrPlanningUnavailable), errors.Is(err, extraction.ErrUnavailable):
		status, code = fiber.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, extraction.ErrModelFailed):
		status, code = fiber.StatusBadGateway, "model_failed"
	case errors.Is(err, task.ErrCompletionFailed):
		code = "completion_failed"
	}

	return c.Status(status).JSON(ErrorResponse{Error: code, Message: err.Error()})
}

// createTask handles POST /api/v1/tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Title) == "" {
		return badRequest(c, "validation_error", "Title is required")
	}

	resp, err := m.taskAdapter.CreateTask(c.UserContext(), &task.CreateTaskRequest{
		UserID:           m.userID(req.UserID),
		Title:            req.Title,
		Description:      req.Description,
		Priority:         req.Priority,
		EstimatedMinutes: req.EstimatedMinutes,
		ScheduledStart:   req.ScheduledStart,
		ScheduledEnd:     req.ScheduledEnd,
		ParentID:         req.ParentID,
	})
	if err != nil {
		return taskError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// getTask handles GET /api/v1/tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	resp, err := m.taskAdapter.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(resp)
}

// listTasks handles GET /api/v1/tasks.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	resp, err := m.taskAdapter.ListTasks(c.UserContext(), &task.ListTasksRequest{
		UserID: m.userID(c.Query("user_id")),
		Date:   c.Query("date"),
	})
	if err != nil {
		return taskError(c, err)
	}

	tasks := resp.Tasks
	if tasks == nil {
		tasks = []task.TaskResponse{}
	}
	return c.JSON(ListTasksResponse{Tasks: tasks, Total: resp.Total})
}

// updateTask handles PATCH and PUT /api/v1/tasks/:id.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	var req UpdateTaskRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := m.taskAdapter.UpdateTask(c.UserContext(), &task.UpdateTaskRequest{
		TaskID:           c.Params("id"),
		Title:            req.Title,
		Description:      req.Description,
		Status:           req.Status,
		Priority:         req.Priority,
		EstimatedMinutes: req.EstimatedMinutes,
		ScheduledStart:   req.ScheduledStart,
		ScheduledEnd:     req.ScheduledEnd,
	})
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(resp)
}

// deleteTask handles DELETE /api/v1/tasks/:id.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	if err := m.taskAdapter.DeleteTask(c.UserContext(), c.Params("id")); err != nil {
		return taskError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// completeTask handles POST /api/v1/tasks/:id/complete.
func (m *APIModule) completeTask(c *fiber.Ctx) error {
	var req CompleteTaskRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := m.taskAdapter.CompleteTask(c.UserContext(), c.Params("id"), req.Evidence)
	if err != nil {
		return taskError(c, err)
	}

	if resp.Outcome == task.OutcomeRejected {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(RejectionResponse{
			Outcome:  string(resp.Outcome),
			Reason:   resp.Reason,
			Guidance: resp.Guidance,
		})
	}

	out := CompletionResponse{
		Outcome:   string(resp.Outcome),
		Task:      resp.Task,
		FollowUps: resp.FollowUps,
		Insights:  resp.Insights,
		Analysis:  resp.Analysis,
	}
	if out.FollowUps == nil {
		out.FollowUps = []task.TaskResponse{}
	}
	if out.Insights == nil {
		out.Insights = []string{}
	}
	return c.JSON(out)
}

// getOverview handles GET /api/v1/overview.
func (m *APIModule) getOverview(c *fiber.Ctx) error {
	resp, err := m.taskAdapter.GetOverview(c.UserContext(), &task.OverviewRequest{
		UserID: m.userID(c.Query("user_id")),
		Date:   c.Query("date"),
	})
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(OverviewResponse{
		Date:           resp.Date,
		TaskCount:      resp.TaskCount,
		UrgentCount:    resp.UrgentCount,
		CompletedCount: resp.CompletedCount,
	})
}

// planTask handles POST /api/v1/tasks/plan.
func (m *APIModule) planTask(c *fiber.Ctx) error {
	var req PlanTaskRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Message) == "" {
		return badRequest(c, "validation_error", "Message is required")
	}

	resp, err := m.taskAdapter.PlanTask(c.UserContext(), &task.PlanTaskRequest{
		UserID:  m.userID(req.UserID),
		Message: req.Message,
	})
	if err != nil {
		return taskError(c, err)
	}

	status := fiber.StatusOK
	if resp.Task != nil {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(PlanTaskResponse{
		IsTask:    resp.IsTask,
		NeedsInfo: resp.NeedsInfo,
		Questions: resp.Questions,
		Task:      resp.Task,
		Subtasks:  resp.Subtasks,
	})
}

// breakDownTask handles POST /api/v1/ai/break-down-task.
func (m *APIModule) breakDownTask(c *fiber.Ctx) error {
	var req BreakDownTaskRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.TaskDescription) == "" {
		return badRequest(c, "validation_error", "Task description is required")
	}

	resp, err := m.extractionAdapter.BreakDownTask(c.UserContext(), &extraction.BreakDownTaskRequest{
		Description:      req.TaskDescription,
		EstimatedMinutes: req.EstimatedMinutes,
	})
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(BreakDownTaskResponse{
		Subtasks:        resp.Subtasks,
		TotalMinutes:    resp.TotalMinutes,
		Recommendations: resp.Recommendations,
		Fallback:        resp.Fallback,
	})
}

// extractTask handles POST /api/v1/ai/extract-task.
func (m *APIModule) extractTask(c *fiber.Ctx) error {
	var req ExtractTaskRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Message) == "" {
		return badRequest(c, "validation_error", "Message is required")
	}

	resp, err := m.extractionAdapter.ExtractTask(c.UserContext(), req.Message)
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(ExtractTaskResponse{IsTask: resp.IsTask, Task: resp.Task})
}

// reschedule handles POST /api/v1/ai/reschedule.
func (m *APIModule) reschedule(c *fiber.Ctx) error {
	var req RescheduleRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return badRequest(c, "validation_error", "Reason is required")
	}
	if len(req.AffectedTasks) == 0 {
		return badRequest(c, "validation_error", "At least one affected task is required")
	}

	affected := make([]extraction.RescheduleTask, 0, len(req.AffectedTasks))
	for _, t := range req.AffectedTasks {
		if t.ID == "" {
			return badRequest(c, "validation_error", "Every affected task needs an id")
		}
		affected = append(affected, extraction.RescheduleTask{
			ID:               t.ID,
			Title:            t.Title,
			ScheduledStart:   t.ScheduledStart,
			EstimatedMinutes: t.EstimatedMinutes,
		})
	}

	resp, err := m.extractionAdapter.Reschedule(c.UserContext(), &extraction.RescheduleRequest{
		Reason:        req.Reason,
		AffectedTasks: affected,
	})
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(RescheduleResponse{
		Suggestions: resp.Suggestions,
		Message:     resp.Message,
		Fallback:    resp.Fallback,
	})
}

// listNotifications handles GET /api/v1/notifications.
func (m *APIModule) listNotifications(c *fiber.Ctx) error {
	var acknowledged *bool
	switch c.Query("acknowledged") {
	case "":
	case "true":
		v := true
		acknowledged = &v
	case "false":
		v := false
		acknowledged = &v
	default:
		return badRequest(c, "validation_error", "acknowledged must be true or false")
	}

	list, err := m.notificationAdapter.ListNotifications(c.UserContext(), m.userID(c.Query("user_id")), acknowledged)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: err.Error(),
		})
	}
	if list == nil {
		list = []notification.Notification{}
	}
	return c.JSON(ListNotificationsResponse{Notifications: list, Total: len(list)})
}

// acknowledgeNotification handles POST /api/v1/notifications/:id/acknowledge.
func (m *APIModule) acknowledgeNotification(c *fiber.Ctx) error {
	if err := m.notificationAdapter.Acknowledge(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "acknowledge_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(SuccessResponse{Success: true})
}
