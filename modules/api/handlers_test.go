package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	domain "github.com/shred787/mindaid/domain/task"
	"github.com/shred787/mindaid/modules/extraction"
	"github.com/shred787/mindaid/modules/notification"
	"github.com/shred787/mindaid/modules/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// mockTaskPort records the last request and returns canned results.
type mockTaskPort struct {
	task.TaskPort

	completeResp     *task.CompleteTaskResponse
	completeErr      error
	completeEvidence *domain.Evidence
	createReq        *task.CreateTaskRequest
	listReq          *task.ListTasksRequest
	getErr           error
	planErr          error
	updateErr        error
}

func (m *mockTaskPort) UpdateTask(_ context.Context, req *task.UpdateTaskRequest) (*task.TaskResponse, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &task.TaskResponse{ID: req.TaskID, Title: "Migrate"}, nil
}

func (m *mockTaskPort) CreateTask(_ context.Context, req *task.CreateTaskRequest) (*task.TaskResponse, error) {
	m.createReq = req
	return &task.TaskResponse{ID: "t1", UserID: req.UserID, Title: req.Title, Status: "pending"}, nil
}

func (m *mockTaskPort) GetTask(_ context.Context, taskID string) (*task.TaskResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &task.TaskResponse{ID: taskID, Title: "Migrate"}, nil
}

func (m *mockTaskPort) ListTasks(_ context.Context, req *task.ListTasksRequest) (*task.ListTasksResponse, error) {
	m.listReq = req
	return &task.ListTasksResponse{}, nil
}

func (m *mockTaskPort) CompleteTask(_ context.Context, _ string, evidence *domain.Evidence) (*task.CompleteTaskResponse, error) {
	m.completeEvidence = evidence
	return m.completeResp, m.completeErr
}

func (m *mockTaskPort) PlanTask(_ context.Context, req *task.PlanTaskRequest) (*task.PlanTaskResponse, error) {
	if m.planErr != nil {
		return nil, m.planErr
	}
	return &task.PlanTaskResponse{IsTask: true, NeedsInfo: true, Questions: []string{"When is it due?"}}, nil
}

type mockExtractionPort struct {
	extraction.ExtractionPort
}

func (mockExtractionPort) BreakDownTask(_ context.Context, req *extraction.BreakDownTaskRequest) (*extraction.BreakDownTaskResponse, error) {
	return &extraction.BreakDownTaskResponse{
		Subtasks:     []extraction.Subtask{{Title: "Complete task", EstimatedMinutes: req.EstimatedMinutes, Priority: 3}},
		TotalMinutes: req.EstimatedMinutes,
		Fallback:     true,
	}, nil
}

func (mockExtractionPort) ExtractTask(context.Context, string) (*extraction.ExtractTaskResponse, error) {
	return nil, extraction.ErrUnavailable
}

func (mockExtractionPort) Reschedule(_ context.Context, req *extraction.RescheduleRequest) (*extraction.RescheduleResponse, error) {
	if req.Reason == "model down" {
		return nil, fmt.Errorf("%w: rate limited", extraction.ErrModelFailed)
	}
	return &extraction.RescheduleResponse{
		Suggestions: []extraction.RescheduleSuggestion{{TaskID: req.AffectedTasks[0].ID, NewScheduledStart: "2025-03-11T09:00:00Z", Reason: "Tomorrow morning is free"}},
		Message:     "Moved to tomorrow.",
	}, nil
}

type mockNotificationPort struct {
	lastAcknowledged *bool
	lastUserID       string
}

func (m *mockNotificationPort) ListNotifications(_ context.Context, userID string, acknowledged *bool) ([]notification.Notification, error) {
	m.lastUserID = userID
	m.lastAcknowledged = acknowledged
	return []notification.Notification{{ID: "n1", UserID: userID, Type: notification.TypeCheckIn}}, nil
}

func (m *mockNotificationPort) Acknowledge(_ context.Context, id string) error {
	if id != "n1" {
		return notification.ErrNotFound
	}
	return nil
}

func newTestAPI(tasks *mockTaskPort) (*APIModule, *mockNotificationPort, *fiber.App) {
	notifications := &mockNotificationPort{}
	m := NewModule(Config{DefaultUserID: "demo-user-123"}, &mockLogger{})
	m.taskAdapter = tasks
	m.extractionAdapter = mockExtractionPort{}
	m.notificationAdapter = notifications
	return m, notifications, m.newApp()
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

const completeBody = `{"evidence":{"description":"Deployed the database migration to production and verified the new columns exist","attachments":[{"kind":"screenshot","content":"https://example.com/shot.png"}]}}`

func TestCompleteTask_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		resp       *task.CompleteTaskResponse
		err        error
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{
			name:       "accepted",
			resp:       &task.CompleteTaskResponse{Outcome: task.OutcomeCompleted, Task: &task.TaskResponse{ID: "t1", Completed: true}},
			wantStatus: http.StatusOK,
			wantKey:    "outcome",
			wantValue:  "completed",
		},
		{
			name:       "rejected",
			resp:       &task.CompleteTaskResponse{Outcome: task.OutcomeRejected, Reason: "DescriptionTooShort", Guidance: "Say more."},
			wantStatus: http.StatusUnprocessableEntity,
			wantKey:    "reason",
			wantValue:  "DescriptionTooShort",
		},
		{name: "not found", err: task.ErrTaskNotFound, wantStatus: http.StatusNotFound, wantKey: "error", wantValue: "not_found"},
		{name: "already completed", err: task.ErrAlreadyCompleted, wantStatus: http.StatusConflict, wantKey: "error", wantValue: "already_completed"},
		{name: "store failure", err: fmt.Errorf("%w: disk full", task.ErrCompletionFailed), wantStatus: http.StatusInternalServerError, wantKey: "error", wantValue: "completion_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, app := newTestAPI(&mockTaskPort{completeResp: tt.resp, completeErr: tt.err})

			status, body := doJSON(t, app, http.MethodPost, "/api/v1/tasks/t1/complete", completeBody)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantValue, body[tt.wantKey])
		})
	}
}

func TestCompleteTask_AcceptedBodyShape(t *testing.T) {
	tasks := &mockTaskPort{completeResp: &task.CompleteTaskResponse{Outcome: task.OutcomeCompleted, Task: &task.TaskResponse{ID: "t1"}}}
	_, _, app := newTestAPI(tasks)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/tasks/t1/complete", completeBody)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["follow_ups"])
	assert.Equal(t, []any{}, body["insights"])

	require.NotNil(t, tasks.completeEvidence)
	require.Len(t, tasks.completeEvidence.Attachments, 1)
	assert.Equal(t, domain.AttachmentScreenshot, tasks.completeEvidence.Attachments[0].Kind)
}

func TestCompleteTask_BadBodies(t *testing.T) {
	tasks := &mockTaskPort{}
	_, _, app := newTestAPI(tasks)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/tasks/t1/complete",
		`{"evidence":{"description":"Recorded the call with the supplier about the delayed shipment","attachments":[{"kind":"hologram","content":"x"}]}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_attachment_kind", body["error"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/tasks/t1/complete", `{"evidence":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", body["error"])
	assert.Nil(t, tasks.completeEvidence)
}

func TestCreateTask_DefaultsUser(t *testing.T) {
	tasks := &mockTaskPort{}
	_, _, app := newTestAPI(tasks)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/tasks", `{"title":"Write report","priority":3}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "t1", body["id"])
	require.NotNil(t, tasks.createReq)
	assert.Equal(t, "demo-user-123", tasks.createReq.UserID)
	assert.Equal(t, 3, tasks.createReq.Priority)

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/tasks", `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["error"])
}

func TestGetAndListTasks(t *testing.T) {
	tasks := &mockTaskPort{}
	_, _, app := newTestAPI(tasks)

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/tasks/t9", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "t9", body["id"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/tasks?user_id=u1&date=2025-03-10", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["tasks"])
	require.NotNil(t, tasks.listReq)
	assert.Equal(t, "u1", tasks.listReq.UserID)
	assert.Equal(t, "2025-03-10", tasks.listReq.Date)

	_, _, app = newTestAPI(&mockTaskPort{getErr: task.ErrTaskNotFound})
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/tasks/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPlanTask(t *testing.T) {
	_, _, app := newTestAPI(&mockTaskPort{})
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/tasks/plan", `{"message":"prepare the report"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["needs_info"])

	_, _, app = newTestAPI(&mockTaskPort{planErr: task.ErrPlanningUnavailable})
	status, body = doJSON(t, app, http.MethodPost, "/api/v1/tasks/plan", `{"message":"prepare the report"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", body["error"])
}

func TestAIEndpoints(t *testing.T) {
	_, _, app := newTestAPI(&mockTaskPort{})

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/ai/break-down-task", `{"task_description":"Launch site","estimated_minutes":90}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["fallback"])
	assert.Equal(t, float64(90), body["total_minutes"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/ai/break-down-task", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/ai/extract-task", `{"message":"call the bank"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestRescheduleEndpoint(t *testing.T) {
	_, _, app := newTestAPI(&mockTaskPort{})

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/ai/reschedule",
		`{"reason":"Car broke down","affectedTasks":[{"id":"t1","title":"Quarterly report","scheduledStart":"2025-03-10T15:00:00Z","estimatedMinutes":90}]}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Moved to tomorrow.", body["message"])
	assert.Equal(t, false, body["fallback"])
	suggestions, ok := body["suggestions"].([]any)
	require.True(t, ok)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "t1", suggestions[0].(map[string]any)["taskId"])

	for _, bad := range []string{
		`{"affectedTasks":[{"id":"t1"}]}`,
		`{"reason":"Car broke down","affectedTasks":[]}`,
		`{"reason":"Car broke down","affectedTasks":[{"title":"no id"}]}`,
	} {
		status, body = doJSON(t, app, http.MethodPost, "/api/v1/ai/reschedule", bad)
		assert.Equal(t, http.StatusBadRequest, status, bad)
		assert.Equal(t, "validation_error", body["error"], bad)
	}

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/ai/reschedule", `{"reason":"model down","affectedTasks":[{"id":"t1"}]}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "model_failed", body["error"])
}

func TestUpdateTask_Conflict(t *testing.T) {
	_, _, app := newTestAPI(&mockTaskPort{updateErr: fmt.Errorf("%w", task.ErrConcurrentUpdate)})

	status, body := doJSON(t, app, http.MethodPatch, "/api/v1/tasks/t1", `{"priority":5}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["error"])

	_, _, app = newTestAPI(&mockTaskPort{})
	status, body = doJSON(t, app, http.MethodPatch, "/api/v1/tasks/t1", `{"priority":5}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "t1", body["id"])
}

func TestNotifications(t *testing.T) {
	_, notifications, app := newTestAPI(&mockTaskPort{})

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/notifications?acknowledged=false", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, "demo-user-123", notifications.lastUserID)
	require.NotNil(t, notifications.lastAcknowledged)
	assert.False(t, *notifications.lastAcknowledged)

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/notifications?acknowledged=maybe", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/notifications/n1/acknowledge", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/notifications/n2/acknowledge", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthEndpoint(t *testing.T) {
	m, _, app := newTestAPI(&mockTaskPort{})

	status, body := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	assert.False(t, m.Health(context.Background()).Healthy, "not started")
}
